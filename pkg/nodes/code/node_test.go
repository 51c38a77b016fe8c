package code_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/nodes/code"
	"github.com/zapflowhq/zapflow/pkg/protocol"
	"github.com/zapflowhq/zapflow/pkg/sandbox"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

func newNode(t *testing.T, config map[string]any) protocol.NodeExecutor {
	t.Helper()

	deps := protocol.Dependencies{Sandbox: sandbox.NewExprSandbox()}

	executor, err := code.NewCodeNode(deps, testutil.Node("code-1", models.NodeTypeCode, config))
	require.NoError(t, err)

	return executor
}

func TestRunOnceStoresResult(t *testing.T) {
	node := newNode(t, map[string]any{
		"script": "variables.price * variables.quantity",
		"saveAs": "total",
	})

	execCtx := models.NewExecutionContext()
	execCtx.SetVariable("price", 10.0)
	execCtx.SetVariable("quantity", 3.0)

	outcome, err := node.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	assert.Equal(t, protocol.OutcomeContinue, outcome.Kind)
	assert.Equal(t, 30.0, execCtx.Variables["total"])
	assert.Equal(t, 30.0, execCtx.Output["code-1"])
}

func TestRunOnceForEachItem(t *testing.T) {
	node := newNode(t, map[string]any{
		"script":    "item * 2",
		"mode":      "runOnceForEachItem",
		"itemsPath": "variables.numbers",
		"saveAs":    "doubled",
	})

	execCtx := models.NewExecutionContext()
	execCtx.SetVariable("numbers", []any{1.0, 2.0, 3.0})

	_, err := node.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	assert.Equal(t, []any{2.0, 4.0, 6.0}, execCtx.Variables["doubled"])
}

func TestItemsPathMissingFails(t *testing.T) {
	node := newNode(t, map[string]any{
		"script":    "item",
		"mode":      "runOnceForEachItem",
		"itemsPath": "variables.absent",
	})

	_, err := node.Execute(context.Background(), models.NewExecutionContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variables.absent")
}

func TestScriptErrorFailsNode(t *testing.T) {
	node := newNode(t, map[string]any{"script": "1 +"})

	_, err := node.Execute(context.Background(), models.NewExecutionContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code-1")
}
