package labels

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// ManageLabelsNodeFactory creates ManageLabelsNode instances.
type ManageLabelsNodeFactory struct{}

// NewManageLabelsNodeFactory creates a new MANAGE_LABELS factory.
func NewManageLabelsNodeFactory() protocol.ExecutorFactory {
	return &ManageLabelsNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *ManageLabelsNodeFactory) ID() string {
	return string(models.NodeTypeManageLabels)
}

// Schema returns the JSON schema for MANAGE_LABELS configuration.
func (f *ManageLabelsNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"action"},
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": []string{"add", "remove", "list"},
			},
			"labels": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"saveAs": map[string]any{
				"type":        "string",
				"description": "Variable name the listed labels are stored under",
			},
		},
	}
}

// Create builds a MANAGE_LABELS executor bound to the given node.
func (f *ManageLabelsNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewManageLabelsNode(deps, node)
}

// SetTagsNodeFactory creates SetTagsNode instances.
type SetTagsNodeFactory struct{}

// NewSetTagsNodeFactory creates a new SET_TAGS factory.
func NewSetTagsNodeFactory() protocol.ExecutorFactory {
	return &SetTagsNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *SetTagsNodeFactory) ID() string {
	return string(models.NodeTypeSetTags)
}

// Schema returns the JSON schema for SET_TAGS configuration.
func (f *SetTagsNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"tags"},
		"properties": map[string]any{
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
}

// Create builds a SET_TAGS executor bound to the given node.
func (f *SetTagsNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewSetTagsNode(deps, node)
}
