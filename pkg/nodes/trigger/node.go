// Package trigger provides the entry-point node executors. A trigger node does
// no work at execution time: the trigger matcher already admitted the inbound
// event and seeded the context, so execution simply flows through.
package trigger

import (
	"context"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// TriggerNode passes execution straight through to its successor.
type TriggerNode struct {
	nodeType models.NodeType
}

// NewTriggerNode creates a pass-through executor for the given trigger type.
func NewTriggerNode(nodeType models.NodeType) *TriggerNode {
	return &TriggerNode{nodeType: nodeType}
}

// Type returns the node type.
func (n *TriggerNode) Type() models.NodeType {
	return n.nodeType
}

// Execute continues along the single outgoing edge.
func (n *TriggerNode) Execute(_ context.Context, _ *models.ExecutionContext) (protocol.Outcome, error) {
	return protocol.ContinueOutcome(), nil
}
