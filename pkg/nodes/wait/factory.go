package wait

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// WaitNodeFactory creates WaitNode instances.
type WaitNodeFactory struct{}

// NewWaitNodeFactory creates a new WAIT factory.
func NewWaitNodeFactory() protocol.ExecutorFactory {
	return &WaitNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *WaitNodeFactory) ID() string {
	return string(models.NodeTypeWait)
}

// Schema returns the JSON schema for WAIT configuration.
func (f *WaitNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"amount", "unit"},
		"properties": map[string]any{
			"amount": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"unit": map[string]any{
				"type": "string",
				"enum": []string{"seconds", "minutes", "hours", "days"},
			},
			"resumeOnMessage": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Let an inbound message cut the pause short",
			},
		},
	}
}

// Create builds a WAIT executor bound to the given node.
func (f *WaitNodeFactory) Create(_ protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewWaitNode(node)
}
