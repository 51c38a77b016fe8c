// Package end provides the terminal node executor.
package end

import (
	"context"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// EndNode completes the execution, optionally projecting a subset of the
// variables scope as the final output.
type EndNode struct {
	nodeID string
	config *models.EndConfig
}

// NewEndNode creates an END executor from the node configuration.
func NewEndNode(node *models.WorkflowNode) (*EndNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	endConfig, ok := config.(*models.EndConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &EndNode{nodeID: node.ID, config: endConfig}, nil
}

// Type returns the node type.
func (n *EndNode) Type() models.NodeType {
	return models.NodeTypeEnd
}

// Execute terminates the execution. With outputVariables configured, only the
// named variables appear in the output; names missing from the scope are
// silently skipped.
func (n *EndNode) Execute(_ context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	output := make(map[string]any)

	if len(n.config.OutputVariables) == 0 {
		for key, value := range execCtx.Variables {
			output[key] = value
		}
	} else {
		for _, name := range n.config.OutputVariables {
			if value, ok := execCtx.Variables[name]; ok {
				output[name] = value
			}
		}
	}

	return protocol.Outcome{Kind: protocol.OutcomeTerminate, Output: output}, nil
}
