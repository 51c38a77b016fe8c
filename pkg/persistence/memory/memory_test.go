package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

func TestWorkflowCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	workflow := testutil.Workflow(testutil.WithName("Onboarding"))
	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	loaded, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", loaded.Name)

	all, err := store.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteWorkflow(ctx, workflow.ID))

	_, err = store.WorkflowByID(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestActiveWorkflowsFiltersInactive(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	active := testutil.Workflow()
	inactive := testutil.Workflow(testutil.Inactive())
	require.NoError(t, store.SaveWorkflow(ctx, active))
	require.NoError(t, store.SaveWorkflow(ctx, inactive))

	workflows, err := store.ActiveWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, active.ID, workflows[0].ID)
}

func TestExecutionCloneOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	workflow := testutil.Workflow()
	execution := models.NewExecution(workflow, "s-1", "c-1")
	execution.Context.SetVariable("name", "Alice")
	require.NoError(t, store.CreateExecution(ctx, execution))

	// Mutating the original after Create must not touch the stored copy.
	execution.Context.SetVariable("name", "Bob")

	loaded, err := store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", loaded.Context.Variables["name"])

	// Mutating a loaded copy must not touch the stored copy either.
	loaded.Status = models.ExecutionStatusError

	again, err := store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, again.Status)
}

func TestSaveExecutionRequiresExisting(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	execution := models.NewExecution(testutil.Workflow(), "s-1", "c-1")
	err := store.SaveExecution(ctx, execution)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestTransitionExecution_StatusConflict(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	execution := models.NewExecution(testutil.Workflow(), "s-1", "c-1")
	execution.Status = models.ExecutionStatusWaiting
	require.NoError(t, store.CreateExecution(ctx, execution))

	_, err := store.TransitionExecution(ctx, execution.ID, models.ExecutionStatusRunning, func(e *models.WorkflowExecution) error {
		e.Status = models.ExecutionStatusCompleted

		return nil
	})
	assert.True(t, persistence.IsStatusConflict(err))

	// The failed transition must not have persisted anything.
	loaded, err := store.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusWaiting, loaded.Status)
}

func TestTransitionExecution_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	execution := models.NewExecution(testutil.Workflow(), "s-1", "c-1")
	execution.Status = models.ExecutionStatusWaiting
	require.NoError(t, store.CreateExecution(ctx, execution))

	const racers = 16

	var wg sync.WaitGroup

	results := make([]error, racers)

	for i := range racers {
		wg.Add(1)

		go func(slot int) {
			defer wg.Done()

			_, results[slot] = store.TransitionExecution(ctx, execution.ID, models.ExecutionStatusWaiting, func(e *models.WorkflowExecution) error {
				e.Status = models.ExecutionStatusRunning

				return nil
			})
		}(i)
	}

	wg.Wait()

	winners := 0

	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.True(t, persistence.IsStatusConflict(err))
		}
	}

	assert.Equal(t, 1, winners)
}

func TestWaitingBySessionFiltersIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()
	workflow := testutil.Workflow()
	deadline := time.Now().Add(time.Minute)

	matching := testutil.WaitingExecution(workflow, "s-1", "c-1", "n-1", deadline)
	otherSession := testutil.WaitingExecution(workflow, "s-2", "c-1", "n-1", deadline)
	otherContact := testutil.WaitingExecution(workflow, "s-1", "c-2", "n-1", deadline)
	running := models.NewExecution(workflow, "s-1", "c-1")

	for _, e := range []*models.WorkflowExecution{matching, otherSession, otherContact, running} {
		require.NoError(t, store.CreateExecution(ctx, e))
	}

	waiting, err := store.WaitingBySession(ctx, "s-1", "c-1")
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, matching.ID, waiting[0].ID)

	all, err := store.WaitingExecutions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
