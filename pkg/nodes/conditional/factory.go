package conditional

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// ConditionNodeFactory creates ConditionNode instances.
type ConditionNodeFactory struct{}

// NewConditionNodeFactory creates a new condition node factory.
func NewConditionNodeFactory() protocol.ExecutorFactory {
	return &ConditionNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *ConditionNodeFactory) ID() string {
	return string(models.NodeTypeCondition)
}

// Schema returns the JSON schema for condition node configuration.
func (f *ConditionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"expression"},
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Boolean expression of the form 'value1 operator value2'",
				"examples": []string{
					"variables.reply == 'yes'",
					"output.api.status >= 200",
					"{{input.text}} contains 'help'",
				},
			},
		},
	}
}

// Create builds a condition executor bound to the given node.
func (f *ConditionNodeFactory) Create(_ protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewConditionNode(node)
}
