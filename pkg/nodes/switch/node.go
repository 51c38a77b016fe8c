// Package switchnode provides multi-way branching over ordered rules.
package switchnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// ErrNoRuleMatched is returned when no rule matches and no fallback output is
// configured. The engine turns this into a failed execution.
var ErrNoRuleMatched = errors.New("no switch rule matched and no fallback output configured")

// SwitchNode evaluates its rules in order and routes to the first match.
type SwitchNode struct {
	nodeID   string
	rules    []models.SwitchRule
	fallback string
}

// NewSwitchNode creates a switch executor from the node configuration.
func NewSwitchNode(node *models.WorkflowNode) (*SwitchNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	switchConfig, ok := config.(*models.SwitchConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &SwitchNode{
		nodeID:   node.ID,
		rules:    switchConfig.Rules,
		fallback: switchConfig.FallbackOutput,
	}, nil
}

// Type returns the node type.
func (n *SwitchNode) Type() models.NodeType {
	return models.NodeTypeSwitch
}

// Execute routes to the output key of the first rule that matches. Rules are
// evaluated in declaration order; later rules are not consulted after a match.
func (n *SwitchNode) Execute(_ context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	for i, rule := range n.rules {
		matched, err := expression.EvaluateRule(rule, execCtx)
		if err != nil {
			return protocol.Outcome{}, fmt.Errorf("node %s: rule %d: %w", n.nodeID, i, err)
		}

		if matched {
			return protocol.Outcome{Kind: protocol.OutcomeContinue, BranchKey: rule.OutputKey}, nil
		}
	}

	if n.fallback != "" {
		return protocol.Outcome{Kind: protocol.OutcomeContinue, BranchKey: n.fallback}, nil
	}

	return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, ErrNoRuleMatched)
}
