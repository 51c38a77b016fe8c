package switchnode_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/models"
	switchnode "github.com/zapflowhq/zapflow/pkg/nodes/switch"
	"github.com/zapflowhq/zapflow/pkg/protocol"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

func newNode(t *testing.T, config map[string]any) *switchnode.SwitchNode {
	t.Helper()

	node, err := switchnode.NewSwitchNode(testutil.Node("switch-1", models.NodeTypeSwitch, config))
	require.NoError(t, err)

	return node
}

func messageContext(text string) *models.ExecutionContext {
	execCtx := models.NewExecutionContext()
	execCtx.Input["message"] = map[string]any{"text": text}

	return execCtx
}

func TestFirstMatchingRuleWins(t *testing.T) {
	node := newNode(t, map[string]any{
		"rules": []map[string]any{
			{"value1": "{{input.message.text}}", "operator": "contains", "value2": "buy", "outputKey": "sales"},
			{"value1": "{{input.message.text}}", "operator": "contains", "value2": "help", "outputKey": "support"},
			{"value1": "{{input.message.text}}", "operator": "contains", "value2": "buy help", "outputKey": "both"},
		},
	})

	outcome, err := node.Execute(context.Background(), messageContext("I want to buy help please"))
	require.NoError(t, err)
	assert.Equal(t, protocol.OutcomeContinue, outcome.Kind)
	assert.Equal(t, "sales", outcome.BranchKey)
}

func TestFallbackWhenNoRuleMatches(t *testing.T) {
	node := newNode(t, map[string]any{
		"rules": []map[string]any{
			{"value1": "{{input.message.text}}", "operator": "==", "value2": "yes", "outputKey": "confirmed"},
		},
		"fallbackOutput": "other",
	})

	outcome, err := node.Execute(context.Background(), messageContext("maybe"))
	require.NoError(t, err)
	assert.Equal(t, "other", outcome.BranchKey)
}

func TestNoMatchWithoutFallbackFails(t *testing.T) {
	node := newNode(t, map[string]any{
		"rules": []map[string]any{
			{"value1": "{{input.message.text}}", "operator": "==", "value2": "yes", "outputKey": "confirmed"},
		},
	})

	_, err := node.Execute(context.Background(), messageContext("maybe"))
	require.ErrorIs(t, err, switchnode.ErrNoRuleMatched)
}

func TestNumericComparisonRule(t *testing.T) {
	node := newNode(t, map[string]any{
		"rules": []map[string]any{
			{"value1": "{{variables.score}}", "operator": ">=", "value2": "80", "outputKey": "high"},
			{"value1": "{{variables.score}}", "operator": ">=", "value2": "50", "outputKey": "medium"},
		},
		"fallbackOutput": "low",
	})

	execCtx := models.NewExecutionContext()
	execCtx.SetVariable("score", 65.0)

	outcome, err := node.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	assert.Equal(t, "medium", outcome.BranchKey)
}

func TestMissingPathComparesAsEmpty(t *testing.T) {
	node := newNode(t, map[string]any{
		"rules": []map[string]any{
			{"value1": "{{variables.never}}", "operator": "==", "value2": "", "outputKey": "empty"},
		},
	})

	outcome, err := node.Execute(context.Background(), models.NewExecutionContext())
	require.NoError(t, err)
	assert.Equal(t, "empty", outcome.BranchKey)
}
