package end

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// EndNodeFactory creates EndNode instances.
type EndNodeFactory struct{}

// NewEndNodeFactory creates a new END factory.
func NewEndNodeFactory() protocol.ExecutorFactory {
	return &EndNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *EndNodeFactory) ID() string {
	return string(models.NodeTypeEnd)
}

// Schema returns the JSON schema for END configuration.
func (f *EndNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"outputVariables": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Variable names projected into the final output. Empty exports all.",
			},
		},
	}
}

// Create builds an END executor bound to the given node.
func (f *EndNodeFactory) Create(_ protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewEndNode(node)
}
