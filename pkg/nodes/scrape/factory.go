package scrape

import (
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// ScrapeNodeFactory creates ScrapeNode instances.
type ScrapeNodeFactory struct{}

// NewScrapeNodeFactory creates a new HTTP_SCRAPE factory.
func NewScrapeNodeFactory() protocol.ExecutorFactory {
	return &ScrapeNodeFactory{}
}

// ID returns the node type string this factory handles.
func (f *ScrapeNodeFactory) ID() string {
	return string(models.NodeTypeHTTPScrape)
}

// Schema returns the JSON schema for HTTP_SCRAPE configuration.
func (f *ScrapeNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"url"},
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Page URL. Supports {{dotted.path}} templating.",
			},
			"waitStrategy": map[string]any{
				"type":    "string",
				"enum":    []string{"networkIdle", "selector", "load"},
				"default": "load",
			},
			"waitSelector": map[string]any{
				"type":        "string",
				"description": "CSS selector to wait for when waitStrategy is 'selector'",
			},
			"script": map[string]any{
				"type":        "string",
				"description": "JavaScript evaluated in the page; its return value becomes the result",
			},
			"selector": map[string]any{
				"type":        "string",
				"description": "CSS selector to extract from when no script is given",
			},
			"extractType": map[string]any{
				"type": "string",
				"enum": []string{"text", "html", "attribute"},
			},
			"attribute": map[string]any{
				"type": "string",
			},
			"screenshot": map[string]any{
				"type":    "boolean",
				"default": false,
			},
			"timeoutSeconds": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 300,
			},
			"saveResponseAs": map[string]any{
				"type": "string",
			},
		},
	}
}

// Create builds an HTTP_SCRAPE executor bound to the given node.
func (f *ScrapeNodeFactory) Create(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	return NewScrapeNode(deps, node)
}
