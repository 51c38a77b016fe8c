// Package code provides the sandboxed script node executor.
package code

import (
	"context"
	"fmt"
	"time"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

const scriptTimeout = 5 * time.Second

// CodeNode runs a user script inside the sandbox, either once over the whole
// context or once per item of a list.
type CodeNode struct {
	nodeID  string
	config  *models.CodeConfig
	sandbox protocol.CodeSandbox
}

// NewCodeNode creates a CODE executor from the node configuration.
func NewCodeNode(deps protocol.Dependencies, node *models.WorkflowNode) (*CodeNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	codeConfig, ok := config.(*models.CodeConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &CodeNode{
		nodeID:  node.ID,
		config:  codeConfig,
		sandbox: deps.Sandbox,
	}, nil
}

// Type returns the node type.
func (n *CodeNode) Type() models.NodeType {
	return models.NodeTypeCode
}

// Execute runs the script and stores its result. A script error or timeout
// fails the node.
func (n *CodeNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	limits := protocol.SandboxLimits{Timeout: scriptTimeout}

	var (
		result any
		err    error
	)

	switch n.config.Mode {
	case models.CodeModeRunOnceForEachItem:
		result, err = n.runPerItem(ctx, execCtx, limits)
	default:
		result, err = n.sandbox.Run(ctx, n.config.Script, execCtx.AsMap(), limits)
	}

	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, err)
	}

	execCtx.SetOutput(n.nodeID, result)

	if n.config.SaveAs != "" {
		execCtx.SetVariable(n.config.SaveAs, result)
	}

	return protocol.ContinueOutcome(), nil
}

// runPerItem resolves itemsPath to a list and runs the script once per
// element, with the element injected as "item" alongside the context scopes.
func (n *CodeNode) runPerItem(ctx context.Context, execCtx *models.ExecutionContext, limits protocol.SandboxLimits) (any, error) {
	value, ok := execCtx.Get(n.config.ItemsPath)
	if !ok {
		return nil, fmt.Errorf("items path %q not found in context", n.config.ItemsPath)
	}

	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("items path %q is not a list", n.config.ItemsPath)
	}

	results := make([]any, 0, len(items))

	for i, item := range items {
		input := execCtx.AsMap()
		input["item"] = item
		input["index"] = i

		result, err := n.sandbox.Run(ctx, n.config.Script, input, limits)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		results = append(results, result)
	}

	return results, nil
}
