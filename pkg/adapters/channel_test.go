package adapters_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/adapters"
	"github.com/zapflowhq/zapflow/pkg/log"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

func TestWebhookChannelDeliversEnvelope(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messageId": "gw-123"}`))
	}))
	defer server.Close()

	channel := adapters.NewWebhookChannel(server.URL, log.WithModule("test"))

	result, err := channel.Send(context.Background(), "s-1", "c-1", protocol.SendPayload{Type: "text", Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "gw-123", result.MessageID)

	assert.Equal(t, "s-1", received["sessionId"])
	assert.Equal(t, "c-1", received["contactId"])

	message, _ := received["message"].(map[string]any)
	assert.Equal(t, "hello", message["text"])
}

func TestWebhookChannelGeneratesMessageIDWithoutReceipt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	channel := adapters.NewWebhookChannel(server.URL, log.WithModule("test"))

	result, err := channel.Send(context.Background(), "s-1", "c-1", protocol.SendPayload{Type: "text", Text: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.MessageID)
}

func TestWebhookChannelGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel := adapters.NewWebhookChannel(server.URL, log.WithModule("test"))

	_, err := channel.Send(context.Background(), "s-1", "c-1", protocol.SendPayload{Type: "text", Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestLogChannelAlwaysSucceeds(t *testing.T) {
	channel := adapters.NewLogChannel(log.WithModule("test"))

	result, err := channel.Send(context.Background(), "s-1", "c-1", protocol.SendPayload{Type: "text", Text: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.MessageID)
}

func TestMediaResolverInlineBase64(t *testing.T) {
	resolver := adapters.NewHTTPMediaResolver()

	encoded := base64.StdEncoding.EncodeToString([]byte("image bytes"))

	data, err := resolver.Resolve(context.Background(), "base64:"+encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)
}

func TestMediaResolverFetchesHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote media"))
	}))
	defer server.Close()

	resolver := adapters.NewHTTPMediaResolver()

	data, err := resolver.Resolve(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("remote media"), data)
}

func TestMediaResolverRejectsUnknownScheme(t *testing.T) {
	resolver := adapters.NewHTTPMediaResolver()

	_, err := resolver.Resolve(context.Background(), "ftp://example.com/file")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported media reference")
}
