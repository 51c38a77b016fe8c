package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/persistence/file"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

func newStore(t *testing.T) *file.Persistence {
	t.Helper()

	return file.NewPersistence(t.TempDir())
}

func TestWorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	workflow := testutil.Workflow(testutil.WithName("File Backed"))
	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	loaded, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ID, loaded.ID)
	assert.Equal(t, "File Backed", loaded.Name)

	all, err := store.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteWorkflow(ctx, workflow.ID))

	_, err = store.WorkflowByID(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.WorkflowByID(context.Background(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = store.DeleteWorkflow(context.Background(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestActiveWorkflowsFilters(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	active := testutil.Workflow()
	inactive := testutil.Workflow(testutil.Inactive())
	require.NoError(t, store.SaveWorkflow(ctx, active))
	require.NoError(t, store.SaveWorkflow(ctx, inactive))

	workflows, err := store.ActiveWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, active.ID, workflows[0].ID)
}

func TestExecutionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	workflow := testutil.Workflow()
	execution := models.NewExecution(workflow, "s-1", "c-1")
	execution.Context.SetVariable("name", "Alice")
	require.NoError(t, store.CreateExecution(ctx, execution))

	loaded, err := store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, loaded.Status)
	assert.Equal(t, "Alice", loaded.Context.Variables["name"])

	byWorkflow, err := store.ExecutionsByWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Len(t, byWorkflow, 1)
}

func TestSaveExecutionRequiresExisting(t *testing.T) {
	store := newStore(t)

	execution := models.NewExecution(testutil.Workflow(), "s-1", "c-1")
	err := store.SaveExecution(context.Background(), execution)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestTransitionExecutionGuardsStatus(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	workflow := testutil.Workflow()
	parked := testutil.WaitingExecution(workflow, "s-1", "c-1", "wait-1", time.Now().UTC().Add(time.Minute))
	require.NoError(t, store.CreateExecution(ctx, parked))

	resumed, err := store.TransitionExecution(ctx, parked.ID, models.ExecutionStatusWaiting, func(e *models.WorkflowExecution) error {
		e.Status = models.ExecutionStatusRunning
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, resumed.Status)

	_, err = store.TransitionExecution(ctx, parked.ID, models.ExecutionStatusWaiting, func(e *models.WorkflowExecution) error {
		e.Status = models.ExecutionStatusExpired
		return nil
	})
	assert.True(t, persistence.IsStatusConflict(err))

	loaded, err := store.ExecutionByID(ctx, parked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, loaded.Status)
}

func TestWaitingQueries(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	workflow := testutil.Workflow()
	deadline := time.Now().UTC().Add(time.Minute)

	parked := testutil.WaitingExecution(workflow, "s-1", "c-1", "wait-1", deadline)
	other := testutil.WaitingExecution(workflow, "s-2", "c-2", "wait-1", deadline)
	finished := models.NewExecution(workflow, "s-3", "c-3")
	finished.Status = models.ExecutionStatusCompleted

	require.NoError(t, store.CreateExecution(ctx, parked))
	require.NoError(t, store.CreateExecution(ctx, other))
	require.NoError(t, store.CreateExecution(ctx, finished))

	waiting, err := store.WaitingExecutions(ctx)
	require.NoError(t, err)
	assert.Len(t, waiting, 2)

	bySession, err := store.WaitingBySession(ctx, "s-1", "c-1")
	require.NoError(t, err)
	require.Len(t, bySession, 1)
	assert.Equal(t, parked.ID, bySession[0].ID)
}

func TestSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := file.NewPersistence(dir)
	workflow := testutil.Workflow()
	require.NoError(t, first.SaveWorkflow(ctx, workflow))
	require.NoError(t, first.Close(ctx))

	second := file.NewPersistence(dir)

	loaded, err := second.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ID, loaded.ID)
}
