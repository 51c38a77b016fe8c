// Package wait provides the fixed-duration pause node executor. As with
// WAIT_REPLY, the executor only reports the suspend decision; the engine parks
// the execution and the timeout scheduler advances it when the pause elapses.
package wait

import (
	"context"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// WaitNode suspends the execution for a fixed duration.
type WaitNode struct {
	nodeID string
	config *models.WaitConfig
}

// NewWaitNode creates a WAIT executor from the node configuration.
func NewWaitNode(node *models.WorkflowNode) (*WaitNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	waitConfig, ok := config.(*models.WaitConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &WaitNode{nodeID: node.ID, config: waitConfig}, nil
}

// Type returns the node type.
func (n *WaitNode) Type() models.NodeType {
	return models.NodeTypeWait
}

// Execute suspends for the configured duration.
func (n *WaitNode) Execute(_ context.Context, _ *models.ExecutionContext) (protocol.Outcome, error) {
	return protocol.Outcome{
		Kind:       protocol.OutcomeSuspend,
		SuspendFor: n.config.Unit.Duration(n.config.Amount),
	}, nil
}
