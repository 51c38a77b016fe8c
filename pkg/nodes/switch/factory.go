package switchnode

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// SwitchNodeFactory creates SwitchNode instances.
type SwitchNodeFactory struct{}

// NewSwitchNodeFactory creates a new switch node factory.
func NewSwitchNodeFactory() protocol.ExecutorFactory {
	return &SwitchNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *SwitchNodeFactory) ID() string {
	return string(models.NodeTypeSwitch)
}

// Schema returns the JSON schema for switch node configuration.
func (f *SwitchNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"rules"},
		"properties": map[string]any{
			"rules": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"value1", "operator", "value2", "outputKey"},
					"properties": map[string]any{
						"value1": map[string]any{"type": "string"},
						"operator": map[string]any{
							"type": "string",
							"enum": []string{"==", "!=", ">", "<", ">=", "<=", "contains"},
						},
						"value2":    map[string]any{"type": "string"},
						"outputKey": map[string]any{"type": "string"},
					},
				},
			},
			"fallbackOutput": map[string]any{
				"type":        "string",
				"description": "Branch key used when no rule matches",
			},
		},
	}
}

// Create builds a switch executor bound to the given node.
func (f *SwitchNodeFactory) Create(_ protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewSwitchNode(node)
}
