package send

import (
	"context"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// ButtonsNode sends an interactive button prompt.
type ButtonsNode struct {
	nodeID  string
	config  *models.SendButtonsConfig
	channel protocol.ChannelAdapter
}

// NewButtonsNode creates a SEND_BUTTONS executor from the node configuration.
func NewButtonsNode(deps protocol.Dependencies, node *models.WorkflowNode) (*ButtonsNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	buttonsConfig, ok := config.(*models.SendButtonsConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &ButtonsNode{
		nodeID:  node.ID,
		config:  buttonsConfig,
		channel: deps.Channel,
	}, nil
}

// Type returns the node type.
func (n *ButtonsNode) Type() models.NodeType {
	return models.NodeTypeSendButtons
}

// Execute renders the prompt text and button labels, then dispatches.
func (n *ButtonsNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	sessionID, contactID, err := target(execCtx)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, err)
	}

	err = applyDelay(ctx, n.config.DelayMs)
	if err != nil {
		return protocol.Outcome{}, err
	}

	buttons := make([]models.Button, len(n.config.Buttons))
	for i, button := range n.config.Buttons {
		buttons[i] = models.Button{
			ID:    button.ID,
			Label: expression.Render(button.Label, execCtx),
		}
	}

	payload := protocol.SendPayload{
		Type:    "buttons",
		Text:    expression.Render(n.config.Text, execCtx),
		Buttons: buttons,
	}

	result, err := n.channel.Send(ctx, sessionID, contactID, payload)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: send failed: %w", n.nodeID, err)
	}

	execCtx.SetOutput(n.nodeID, deliveryOutput(result))

	return protocol.ContinueOutcome(), nil
}

// ButtonsNodeFactory creates ButtonsNode instances.
type ButtonsNodeFactory struct{}

// NewButtonsNodeFactory creates a new SEND_BUTTONS factory.
func NewButtonsNodeFactory() protocol.ExecutorFactory {
	return &ButtonsNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *ButtonsNodeFactory) ID() string {
	return string(models.NodeTypeSendButtons)
}

// Schema returns the JSON schema for SEND_BUTTONS configuration.
func (f *ButtonsNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"text", "buttons"},
		"properties": map[string]any{
			"text": map[string]any{
				"type": "string",
			},
			"buttons": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 3,
				"items": map[string]any{
					"type":     "object",
					"required": []string{"id", "label"},
					"properties": map[string]any{
						"id":    map[string]any{"type": "string"},
						"label": map[string]any{"type": "string"},
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

// Create builds a SEND_BUTTONS executor bound to the given node.
func (f *ButtonsNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewButtonsNode(deps, node)
}
