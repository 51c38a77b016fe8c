// Package adapters provides the default collaborator implementations wired
// into the binaries: an outbound webhook channel, an HTTP media resolver, and
// label stores.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zapflowhq/zapflow/pkg/protocol"
)

const channelSendTimeout = 15 * time.Second

// WebhookChannel delivers outbound messages by POSTing them to a channel
// gateway endpoint. The gateway owns the actual messaging transport.
type WebhookChannel struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewWebhookChannel(endpoint string, logger *slog.Logger) *WebhookChannel {
	return &WebhookChannel{
		endpoint: endpoint,
		client:   &http.Client{Timeout: channelSendTimeout},
		logger:   logger.With("module", "channel"),
	}
}

type webhookEnvelope struct {
	SessionID string               `json:"sessionId"`
	ContactID string               `json:"contactId"`
	Message   protocol.SendPayload `json:"message"`
	Media     []byte               `json:"media,omitempty"`
}

type webhookReceipt struct {
	MessageID string `json:"messageId"`
}

func (w *WebhookChannel) Send(ctx context.Context, sessionID, contactID string, payload protocol.SendPayload) (*protocol.DeliveryResult, error) {
	envelope := webhookEnvelope{
		SessionID: sessionID,
		ContactID: contactID,
		Message:   payload,
		Media:     payload.Media,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal outbound message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build channel request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deliver to channel gateway: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("channel gateway returned %d", resp.StatusCode)
	}

	result := &protocol.DeliveryResult{Timestamp: time.Now().UTC()}

	var receipt webhookReceipt

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && json.Unmarshal(data, &receipt) == nil && receipt.MessageID != "" {
		result.MessageID = receipt.MessageID
	} else {
		result.MessageID = uuid.New().String()
	}

	w.logger.DebugContext(ctx, "Message delivered",
		"sessionId", sessionID, "contactId", contactID, "messageId", result.MessageID)

	return result, nil
}

// LogChannel is a ChannelAdapter that only logs. Used when no gateway endpoint
// is configured, and in tests.
type LogChannel struct {
	logger *slog.Logger
}

func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger.With("module", "channel")}
}

func (l *LogChannel) Send(ctx context.Context, sessionID, contactID string, payload protocol.SendPayload) (*protocol.DeliveryResult, error) {
	l.logger.InfoContext(ctx, "Outbound message",
		"sessionId", sessionID, "contactId", contactID, "type", payload.Type, "text", payload.Text)

	return &protocol.DeliveryResult{
		MessageID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
	}, nil
}
