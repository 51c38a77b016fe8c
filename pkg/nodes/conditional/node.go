// Package conditional provides two-way branching on a constrained boolean
// expression.
package conditional

import (
	"context"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// Branch keys matched against outgoing edge labels.
const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

// ConditionNode evaluates a predicate and routes to the true or false edge.
type ConditionNode struct {
	nodeID     string
	expression string
}

// NewConditionNode creates a condition executor from the node configuration.
func NewConditionNode(node *models.WorkflowNode) (*ConditionNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	conditionConfig, ok := config.(*models.ConditionConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &ConditionNode{
		nodeID:     node.ID,
		expression: conditionConfig.Expression,
	}, nil
}

// Type returns the node type.
func (n *ConditionNode) Type() models.NodeType {
	return models.NodeTypeCondition
}

// Execute evaluates the predicate. A reference to a missing context path makes
// the comparison operate on the empty string, which is ordinary false, not an
// error. Only a malformed expression fails the node.
func (n *ConditionNode) Execute(_ context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	result, err := expression.EvaluatePredicate(n.expression, execCtx)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, err)
	}

	branch := BranchFalse
	if result {
		branch = BranchTrue
	}

	return protocol.Outcome{Kind: protocol.OutcomeContinue, BranchKey: branch}, nil
}
