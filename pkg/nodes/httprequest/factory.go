package httprequest

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// HTTPRequestNodeFactory creates HTTPRequestNode instances.
type HTTPRequestNodeFactory struct{}

// NewHTTPRequestNodeFactory creates a new HTTP_REQUEST factory.
func NewHTTPRequestNodeFactory() protocol.ExecutorFactory {
	return &HTTPRequestNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *HTTPRequestNodeFactory) ID() string {
	return string(models.NodeTypeHTTPRequest)
}

// Schema returns the JSON schema for HTTP_REQUEST configuration.
func (f *HTTPRequestNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"url"},
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL. Supports {{dotted.path}} templating.",
				"examples": []string{
					"https://api.example.com/users/{{input.contactId}}",
				},
			},
			"method": map[string]any{
				"type":    "string",
				"default": "GET",
				"enum":    []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"body": map[string]any{
				"type": "string",
			},
			"timeoutSeconds": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 300,
			},
			"followRedirects": map[string]any{
				"type":    "boolean",
				"default": true,
			},
			"insecureTls": map[string]any{
				"type":    "boolean",
				"default": false,
			},
			"saveResponseAs": map[string]any{
				"type":        "string",
				"description": "Variable name the response object is also stored under",
			},
		},
	}
}

// Create builds an HTTP_REQUEST executor bound to the given node.
func (f *HTTPRequestNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewHTTPRequestNode(deps, node)
}
