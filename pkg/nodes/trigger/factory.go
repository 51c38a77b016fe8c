package trigger

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// Factory creates trigger node executors for one trigger type.
type Factory struct {
	nodeType models.NodeType
	schema   map[string]any
}

// NewMessageTriggerFactory creates the TRIGGER_MESSAGE factory.
func NewMessageTriggerFactory() protocol.ExecutorFactory {
	return &Factory{
		nodeType: models.NodeTypeTriggerMessage,
		schema: map[string]any{
			"type":     "object",
			"required": []string{"matchType", "pattern"},
			"properties": map[string]any{
				"sessionId": map[string]any{
					"type":        "string",
					"description": "Restrict matching to one session. Empty matches any session.",
				},
				"matchType": map[string]any{
					"type": "string",
					"enum": []string{"exact", "regex", "contains"},
				},
				"pattern": map[string]any{
					"type":        "string",
					"description": "Text pattern compared against the inbound message",
				},
			},
		},
	}
}

// NewScheduleTriggerFactory creates the TRIGGER_SCHEDULE factory.
func NewScheduleTriggerFactory() protocol.ExecutorFactory {
	return &Factory{
		nodeType: models.NodeTypeTriggerSchedule,
		schema: map[string]any{
			"type":     "object",
			"required": []string{"cron"},
			"properties": map[string]any{
				"cron": map[string]any{
					"type":        "string",
					"description": "Standard five-field cron expression",
					"examples":    []string{"0 9 * * 1-5", "*/15 * * * *"},
				},
				"sessionId": map[string]any{
					"type": "string",
				},
			},
		},
	}
}

// NewManualTriggerFactory creates the TRIGGER_MANUAL factory.
func NewManualTriggerFactory() protocol.ExecutorFactory {
	return &Factory{
		nodeType: models.NodeTypeTriggerManual,
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sessionId": map[string]any{
					"type": "string",
				},
			},
		},
	}
}

// ID returns the node type string this factory handles.
func (f *Factory) ID() string {
	return string(f.nodeType)
}

// Schema returns the JSON schema for the trigger configuration.
func (f *Factory) Schema() map[string]any {
	return f.schema
}

// Create builds a pass-through executor.
func (f *Factory) Create(_ protocol.Dependencies, _ *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewTriggerNode(f.nodeType), nil
}
