package send

import (
	"context"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// ListNode sends an interactive sectioned list prompt.
type ListNode struct {
	nodeID  string
	config  *models.SendListConfig
	channel protocol.ChannelAdapter
}

// NewListNode creates a SEND_LIST executor from the node configuration.
func NewListNode(deps protocol.Dependencies, node *models.WorkflowNode) (*ListNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	listConfig, ok := config.(*models.SendListConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &ListNode{
		nodeID:  node.ID,
		config:  listConfig,
		channel: deps.Channel,
	}, nil
}

// Type returns the node type.
func (n *ListNode) Type() models.NodeType {
	return models.NodeTypeSendList
}

// Execute renders all visible text fields and dispatches the list.
func (n *ListNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	sessionID, contactID, err := target(execCtx)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, err)
	}

	err = applyDelay(ctx, n.config.DelayMs)
	if err != nil {
		return protocol.Outcome{}, err
	}

	sections := make([]models.ListSection, len(n.config.Sections))
	for i, section := range n.config.Sections {
		rows := make([]models.ListRow, len(section.Rows))
		for j, row := range section.Rows {
			rows[j] = models.ListRow{
				ID:          row.ID,
				Title:       expression.Render(row.Title, execCtx),
				Description: expression.Render(row.Description, execCtx),
			}
		}

		sections[i] = models.ListSection{
			Title: expression.Render(section.Title, execCtx),
			Rows:  rows,
		}
	}

	payload := protocol.SendPayload{
		Type:       "list",
		Text:       expression.Render(n.config.Text, execCtx),
		ButtonText: n.config.ButtonText,
		Sections:   sections,
	}

	result, err := n.channel.Send(ctx, sessionID, contactID, payload)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: send failed: %w", n.nodeID, err)
	}

	execCtx.SetOutput(n.nodeID, deliveryOutput(result))

	return protocol.ContinueOutcome(), nil
}

// ListNodeFactory creates ListNode instances.
type ListNodeFactory struct{}

// NewListNodeFactory creates a new SEND_LIST factory.
func NewListNodeFactory() protocol.ExecutorFactory {
	return &ListNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *ListNodeFactory) ID() string {
	return string(models.NodeTypeSendList)
}

// Schema returns the JSON schema for SEND_LIST configuration.
func (f *ListNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"text", "buttonText", "sections"},
		"properties": map[string]any{
			"text":       map[string]any{"type": "string"},
			"buttonText": map[string]any{"type": "string"},
			"sections": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []string{"title", "rows"},
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
						"rows": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items": map[string]any{
								"type":     "object",
								"required": []string{"id", "title"},
								"properties": map[string]any{
									"id":          map[string]any{"type": "string"},
									"title":       map[string]any{"type": "string"},
									"description": map[string]any{"type": "string"},
								},
							},
						},
					},
				},
			},
			"delayMs": map[string]any{
				"type":    "integer",
				"minimum": 0,
			},
		},
	}
}

// Create builds a SEND_LIST executor bound to the given node.
func (f *ListNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewListNode(deps, node)
}
