package send

import (
	"context"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// MessageNode sends a templated text message over the channel.
type MessageNode struct {
	nodeID  string
	config  *models.SendMessageConfig
	channel protocol.ChannelAdapter
}

// NewMessageNode creates a SEND_MESSAGE executor from the node configuration.
func NewMessageNode(deps protocol.Dependencies, node *models.WorkflowNode) (*MessageNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	messageConfig, ok := config.(*models.SendMessageConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &MessageNode{
		nodeID:  node.ID,
		config:  messageConfig,
		channel: deps.Channel,
	}, nil
}

// Type returns the node type.
func (n *MessageNode) Type() models.NodeType {
	return models.NodeTypeSendMessage
}

// Execute renders the text and dispatches it. A delivery failure fails the node.
func (n *MessageNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	sessionID, contactID, err := target(execCtx)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, err)
	}

	err = applyDelay(ctx, n.config.DelayMs)
	if err != nil {
		return protocol.Outcome{}, err
	}

	payload := protocol.SendPayload{
		Type: "text",
		Text: expression.Render(n.config.Text, execCtx),
	}

	result, err := n.channel.Send(ctx, sessionID, contactID, payload)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: send failed: %w", n.nodeID, err)
	}

	execCtx.SetOutput(n.nodeID, deliveryOutput(result))

	return protocol.ContinueOutcome(), nil
}

// MessageNodeFactory creates MessageNode instances.
type MessageNodeFactory struct{}

// NewMessageNodeFactory creates a new SEND_MESSAGE factory.
func NewMessageNodeFactory() protocol.ExecutorFactory {
	return &MessageNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *MessageNodeFactory) ID() string {
	return string(models.NodeTypeSendMessage)
}

// Schema returns the JSON schema for SEND_MESSAGE configuration.
func (f *MessageNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Message text. Supports {{dotted.path}} templating.",
			},
			"delayMs": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Pause before sending, in milliseconds",
			},
		},
	}
}

// Create builds a SEND_MESSAGE executor bound to the given node.
func (f *MessageNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewMessageNode(deps, node)
}
