// Package scrape provides the browser-backed page extraction node executor.
package scrape

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

const defaultTimeout = 60 * time.Second

// ScrapeNode loads a page in the headless browser and extracts data via a
// script, a selector, or a screenshot.
type ScrapeNode struct {
	nodeID  string
	config  *models.HTTPScrapeConfig
	browser protocol.BrowserDriver
	logger  *slog.Logger
}

// NewScrapeNode creates an HTTP_SCRAPE executor from the node configuration.
func NewScrapeNode(deps protocol.Dependencies, node *models.WorkflowNode) (*ScrapeNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	scrapeConfig, ok := config.(*models.HTTPScrapeConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &ScrapeNode{
		nodeID:  node.ID,
		config:  scrapeConfig,
		browser: deps.Browser,
		logger:  deps.Logger,
	}, nil
}

// Type returns the node type.
func (n *ScrapeNode) Type() models.NodeType {
	return models.NodeTypeHTTPScrape
}

// Execute navigates, extracts, and stores the result. The page is always
// closed, including on extraction failure.
func (n *ScrapeNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	if n.browser == nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: no browser driver configured", n.nodeID)
	}

	timeout := defaultTimeout
	if n.config.TimeoutSeconds > 0 {
		timeout = time.Duration(n.config.TimeoutSeconds) * time.Second
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := expression.Render(n.config.URL, execCtx)

	wait := protocol.WaitSpec{
		Strategy: n.config.WaitStrategy,
		Selector: n.config.WaitSelector,
		Timeout:  timeout,
	}

	page, err := n.browser.Navigate(scrapeCtx, url, wait)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: navigation failed: %w", n.nodeID, err)
	}

	defer func() {
		err := page.Close(context.WithoutCancel(scrapeCtx))
		if err != nil {
			n.logger.Warn("failed to close browser page", "node_id", n.nodeID, "error", err)
		}
	}()

	result := map[string]any{"url": url}

	switch {
	case n.config.Script != "":
		value, err := n.browser.RunScript(scrapeCtx, page, n.config.Script)
		if err != nil {
			return protocol.Outcome{}, fmt.Errorf("node %s: script failed: %w", n.nodeID, err)
		}

		result["data"] = value
	case n.config.Selector != "":
		value, err := n.browser.Extract(scrapeCtx, page, n.config.Selector, n.config.ExtractType, n.config.Attribute)
		if err != nil {
			return protocol.Outcome{}, fmt.Errorf("node %s: extraction failed: %w", n.nodeID, err)
		}

		result["data"] = value
	}

	if n.config.Screenshot {
		image, err := n.browser.Screenshot(scrapeCtx, page)
		if err != nil {
			return protocol.Outcome{}, fmt.Errorf("node %s: screenshot failed: %w", n.nodeID, err)
		}

		result["screenshot"] = base64.StdEncoding.EncodeToString(image)
	}

	execCtx.SetOutput(n.nodeID, result)

	if n.config.SaveResponseAs != "" {
		execCtx.SetVariable(n.config.SaveResponseAs, result)
	}

	return protocol.ContinueOutcome(), nil
}
