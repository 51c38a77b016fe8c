// Package httprequest provides the outbound HTTP call node executor.
package httprequest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 4 << 20
)

// HTTPRequestNode performs one HTTP request with templated URL, headers and
// body, and stores the response in the execution context.
type HTTPRequestNode struct {
	nodeID string
	config *models.HTTPRequestConfig
	client *http.Client
}

// NewHTTPRequestNode creates an HTTP_REQUEST executor from the node
// configuration. The base client's transport is reused; redirect policy and
// TLS verification are derived per node.
func NewHTTPRequestNode(deps protocol.Dependencies, node *models.WorkflowNode) (*HTTPRequestNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	requestConfig, ok := config.(*models.HTTPRequestConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	timeout := defaultTimeout
	if requestConfig.TimeoutSeconds > 0 {
		timeout = time.Duration(requestConfig.TimeoutSeconds) * time.Second
	}

	client := &http.Client{Timeout: timeout}

	if deps.HTTPClient != nil {
		client.Transport = deps.HTTPClient.Transport
	}

	if requestConfig.InsecureTLS {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	// Redirects are followed unless explicitly disabled.
	if requestConfig.FollowRedirects != nil && !*requestConfig.FollowRedirects {
		client.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &HTTPRequestNode{
		nodeID: node.ID,
		config: requestConfig,
		client: client,
	}, nil
}

// Type returns the node type.
func (n *HTTPRequestNode) Type() models.NodeType {
	return models.NodeTypeHTTPRequest
}

// Execute performs the request. Transport errors and non-2xx responses fail
// the node; the response is stored before failing so the execution record
// keeps it for diagnosis.
func (n *HTTPRequestNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	method := strings.ToUpper(n.config.Method)
	if method == "" {
		method = http.MethodGet
	}

	url := expression.Render(n.config.URL, execCtx)

	var body io.Reader
	if n.config.Body != "" {
		body = strings.NewReader(expression.Render(n.config.Body, execCtx))
	}

	request, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: invalid request: %w", n.nodeID, err)
	}

	for key, value := range n.config.Headers {
		request.Header.Set(key, expression.Render(value, execCtx))
	}

	response, err := n.client.Do(request)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: request failed: %w", n.nodeID, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: failed to read response: %w", n.nodeID, err)
	}

	result := map[string]any{
		"status":  response.StatusCode,
		"headers": flattenHeaders(response.Header),
		"body":    decodeBody(response.Header.Get("Content-Type"), responseBody),
	}

	execCtx.SetOutput(n.nodeID, result)

	if n.config.SaveResponseAs != "" {
		execCtx.SetVariable(n.config.SaveResponseAs, result)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return protocol.Outcome{}, fmt.Errorf("node %s: unexpected status %d", n.nodeID, response.StatusCode)
	}

	return protocol.ContinueOutcome(), nil
}

// decodeBody parses JSON responses into structured data so downstream nodes
// can address fields by path. Everything else stays a string.
func decodeBody(contentType string, body []byte) any {
	if strings.Contains(contentType, "application/json") {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			return decoded
		}
	}

	return string(body)
}

func flattenHeaders(headers http.Header) map[string]any {
	flat := make(map[string]any, len(headers))
	for key := range headers {
		flat[key] = headers.Get(key)
	}

	return flat
}
