package editfields

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// EditFieldsNodeFactory creates EditFieldsNode instances.
type EditFieldsNodeFactory struct{}

// NewEditFieldsNodeFactory creates a new EDIT_FIELDS factory.
func NewEditFieldsNodeFactory() protocol.ExecutorFactory {
	return &EditFieldsNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *EditFieldsNodeFactory) ID() string {
	return string(models.NodeTypeEditFields)
}

// Schema returns the JSON schema for EDIT_FIELDS configuration.
func (f *EditFieldsNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mode": map[string]any{
				"type": "string",
				"enum": []string{"json", "fields"},
			},
			"json": map[string]any{
				"type":        "object",
				"description": "Object template; string leaves support templating",
			},
			"fields": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"name", "value"},
					"properties": map[string]any{
						"name":  map[string]any{"type": "string"},
						"value": map[string]any{"type": "string"},
						"type": map[string]any{
							"type": "string",
							"enum": []string{"string", "number", "boolean", "json"},
						},
					},
				},
			},
			"includeOtherFields": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Keep pre-existing variables instead of replacing the scope",
			},
		},
	}
}

// Create builds an EDIT_FIELDS executor bound to the given node.
func (f *EditFieldsNodeFactory) Create(_ protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewEditFieldsNode(node)
}
