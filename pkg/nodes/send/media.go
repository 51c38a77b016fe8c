package send

import (
	"context"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// MediaNode resolves a media reference and sends it with an optional caption.
type MediaNode struct {
	nodeID  string
	config  *models.SendMediaConfig
	channel protocol.ChannelAdapter
	media   protocol.MediaResolver
}

// NewMediaNode creates a SEND_MEDIA executor from the node configuration.
func NewMediaNode(deps protocol.Dependencies, node *models.WorkflowNode) (*MediaNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	mediaConfig, ok := config.(*models.SendMediaConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &MediaNode{
		nodeID:  node.ID,
		config:  mediaConfig,
		channel: deps.Channel,
		media:   deps.Media,
	}, nil
}

// Type returns the node type.
func (n *MediaNode) Type() models.NodeType {
	return models.NodeTypeSendMedia
}

// Execute fetches the media bytes and dispatches them. Both a failed fetch and
// a failed delivery fail the node.
func (n *MediaNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	sessionID, contactID, err := target(execCtx)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, err)
	}

	mediaURL := expression.Render(n.config.MediaURL, execCtx)

	media, err := n.media.Resolve(ctx, mediaURL)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: failed to resolve media %q: %w", n.nodeID, mediaURL, err)
	}

	err = applyDelay(ctx, n.config.DelayMs)
	if err != nil {
		return protocol.Outcome{}, err
	}

	payload := protocol.SendPayload{
		Type:      "media",
		MediaType: n.config.MediaType,
		Media:     media,
		Caption:   expression.Render(n.config.Caption, execCtx),
	}

	result, err := n.channel.Send(ctx, sessionID, contactID, payload)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: send failed: %w", n.nodeID, err)
	}

	execCtx.SetOutput(n.nodeID, deliveryOutput(result))

	return protocol.ContinueOutcome(), nil
}

// MediaNodeFactory creates MediaNode instances.
type MediaNodeFactory struct{}

// NewMediaNodeFactory creates a new SEND_MEDIA factory.
func NewMediaNodeFactory() protocol.ExecutorFactory {
	return &MediaNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *MediaNodeFactory) ID() string {
	return string(models.NodeTypeSendMedia)
}

// Schema returns the JSON schema for SEND_MEDIA configuration.
func (f *MediaNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"mediaUrl", "mediaType"},
		"properties": map[string]any{
			"mediaUrl": map[string]any{
				"type":        "string",
				"description": "URL or storage reference of the media. Supports templating.",
			},
			"mediaType": map[string]any{
				"type": "string",
				"enum": []string{"image", "video", "audio", "document"},
			},
			"caption": map[string]any{
				"type": "string",
			},
			"delayMs": map[string]any{
				"type":    "integer",
				"minimum": 0,
			},
		},
	}
}

// Create builds a SEND_MEDIA executor bound to the given node.
func (f *MediaNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewMediaNode(deps, node)
}
