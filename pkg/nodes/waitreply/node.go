// Package waitreply provides the reply suspension node executor. The executor
// only reports the suspend decision; parking the execution, saving the reply
// on resume, and applying the timeout behavior are engine transitions.
package waitreply

import (
	"context"
	"fmt"
	"time"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// WaitReplyNode suspends the execution until the contact replies or the
// timeout passes.
type WaitReplyNode struct {
	nodeID string
	config *models.WaitReplyConfig
}

// NewWaitReplyNode creates a WAIT_REPLY executor from the node configuration.
func NewWaitReplyNode(node *models.WorkflowNode) (*WaitReplyNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	waitConfig, ok := config.(*models.WaitReplyConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &WaitReplyNode{nodeID: node.ID, config: waitConfig}, nil
}

// Type returns the node type.
func (n *WaitReplyNode) Type() models.NodeType {
	return models.NodeTypeWaitReply
}

// Execute suspends for the configured timeout.
func (n *WaitReplyNode) Execute(_ context.Context, _ *models.ExecutionContext) (protocol.Outcome, error) {
	return protocol.Outcome{
		Kind:       protocol.OutcomeSuspend,
		SuspendFor: time.Duration(n.config.TimeoutSeconds) * time.Second,
	}, nil
}
