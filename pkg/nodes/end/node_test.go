package end_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/nodes/end"
	"github.com/zapflowhq/zapflow/pkg/protocol"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

func newNode(t *testing.T, config map[string]any) *end.EndNode {
	t.Helper()

	node, err := end.NewEndNode(testutil.Node("end-1", models.NodeTypeEnd, config))
	require.NoError(t, err)

	return node
}

func TestExportsSelectedVariables(t *testing.T) {
	node := newNode(t, map[string]any{"outputVariables": []string{"name", "score", "missing"}})

	execCtx := models.NewExecutionContext()
	execCtx.SetVariable("name", "Alice")
	execCtx.SetVariable("score", 42.0)
	execCtx.SetVariable("internal", "scratch")

	outcome, err := node.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	assert.Equal(t, protocol.OutcomeTerminate, outcome.Kind)
	assert.Equal(t, map[string]any{"name": "Alice", "score": 42.0}, outcome.Output)
}

func TestExportsAllVariablesWhenUnconfigured(t *testing.T) {
	node := newNode(t, nil)

	execCtx := models.NewExecutionContext()
	execCtx.SetVariable("a", 1.0)
	execCtx.SetVariable("b", "two")

	outcome, err := node.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": "two"}, outcome.Output)
}

func TestEmptyContextProducesEmptyOutput(t *testing.T) {
	node := newNode(t, nil)

	outcome, err := node.Execute(context.Background(), models.NewExecutionContext())
	require.NoError(t, err)
	assert.Empty(t, outcome.Output)
}
