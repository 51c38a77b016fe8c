package waitreply

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// WaitReplyNodeFactory creates WaitReplyNode instances.
type WaitReplyNodeFactory struct{}

// NewWaitReplyNodeFactory creates a new WAIT_REPLY factory.
func NewWaitReplyNodeFactory() protocol.ExecutorFactory {
	return &WaitReplyNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *WaitReplyNodeFactory) ID() string {
	return string(models.NodeTypeWaitReply)
}

// Schema returns the JSON schema for WAIT_REPLY configuration.
func (f *WaitReplyNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"saveAs", "timeoutSeconds"},
		"properties": map[string]any{
			"saveAs": map[string]any{
				"type":        "string",
				"description": "Variable name the reply text is stored under on resume",
			},
			"timeoutSeconds": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"onTimeout": map[string]any{
				"type":    "string",
				"enum":    []string{"END", "GOTO_NODE"},
				"default": "END",
			},
			"timeoutTargetNodeId": map[string]any{
				"type":        "string",
				"description": "Node resumed into when onTimeout is GOTO_NODE",
			},
		},
	}
}

// Create builds a WAIT_REPLY executor bound to the given node.
func (f *WaitReplyNodeFactory) Create(_ protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewWaitReplyNode(node)
}
