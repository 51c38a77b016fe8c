package code

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// CodeNodeFactory creates CodeNode instances.
type CodeNodeFactory struct{}

// NewCodeNodeFactory creates a new CODE factory.
func NewCodeNodeFactory() protocol.ExecutorFactory {
	return &CodeNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *CodeNodeFactory) ID() string {
	return string(models.NodeTypeCode)
}

// Schema returns the JSON schema for CODE configuration.
func (f *CodeNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"script"},
		"properties": map[string]any{
			"script": map[string]any{
				"type":        "string",
				"description": "Expression evaluated in the sandbox against the context scopes",
			},
			"mode": map[string]any{
				"type":    "string",
				"enum":    []string{"runOnceForAllItems", "runOnceForEachItem"},
				"default": "runOnceForAllItems",
			},
			"itemsPath": map[string]any{
				"type":        "string",
				"description": "Dotted context path of the list iterated in runOnceForEachItem mode",
			},
			"saveAs": map[string]any{
				"type": "string",
			},
		},
	}
}

// Create builds a CODE executor bound to the given node.
func (f *CodeNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewCodeNode(deps, node)
}
