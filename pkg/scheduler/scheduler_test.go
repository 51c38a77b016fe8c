package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/log"
	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/persistence/memory"
	"github.com/zapflowhq/zapflow/pkg/scheduler"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

// fakeExpirer records expired ids and answers with configured errors.
type fakeExpirer struct {
	mu      sync.Mutex
	expired []string
	errs    map[string]error
}

func (f *fakeExpirer) Expire(_ context.Context, executionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.expired = append(f.expired, executionID)

	if f.errs != nil {
		return f.errs[executionID]
	}

	return nil
}

func newScheduler(t *testing.T, store persistence.Persistence, expirer scheduler.Expirer, index scheduler.DeadlineIndex) *scheduler.Scheduler {
	t.Helper()

	return scheduler.New(store, expirer, index, time.Second, nil, log.WithModule("test"))
}

func TestMemoryIndexDue(t *testing.T) {
	ctx := context.Background()
	index := scheduler.NewMemoryIndex()

	now := time.Now().UTC()
	require.NoError(t, index.Add(ctx, "past", now.Add(-time.Minute)))
	require.NoError(t, index.Add(ctx, "future", now.Add(time.Minute)))

	due, err := index.Due(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"past"}, due)

	require.NoError(t, index.Remove(ctx, "past"))
	require.NoError(t, index.Remove(ctx, "never-added"))

	due, err = index.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRebuildIndexesWaitingDeadlines(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	workflow := testutil.Workflow()
	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	parked := testutil.WaitingExecution(workflow, "s-1", "c-1", "wait-1", time.Now().UTC().Add(-time.Second))
	require.NoError(t, store.CreateExecution(ctx, parked))

	eternal := testutil.WaitingExecution(workflow, "s-2", "c-2", "wait-1", time.Time{})
	eternal.ExpiresAt = nil
	require.NoError(t, store.CreateExecution(ctx, eternal))

	index := scheduler.NewMemoryIndex()
	expirer := &fakeExpirer{}
	sched := newScheduler(t, store, expirer, index)

	require.NoError(t, sched.Rebuild(ctx))

	due, err := index.Due(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, []string{parked.ID}, due)
}

func TestSweepExpiresDueExecutions(t *testing.T) {
	ctx := context.Background()
	index := scheduler.NewMemoryIndex()
	expirer := &fakeExpirer{}
	sched := newScheduler(t, memory.NewPersistence(), expirer, index)

	require.NoError(t, index.Add(ctx, "due-1", time.Now().UTC().Add(-time.Second)))
	require.NoError(t, index.Add(ctx, "later", time.Now().UTC().Add(time.Hour)))

	sched.Sweep(ctx)

	assert.Equal(t, []string{"due-1"}, expirer.expired)

	due, err := index.Due(ctx, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"later"}, due)
}

func TestSweepDropsResolvedDeadlines(t *testing.T) {
	ctx := context.Background()
	index := scheduler.NewMemoryIndex()

	expirer := &fakeExpirer{errs: map[string]error{
		"resumed": persistence.NewExecutionError("transition", "resumed", persistence.ErrStatusConflict),
		"deleted": persistence.NewExecutionError("fetch", "deleted", persistence.ErrExecutionNotFound),
	}}

	sched := newScheduler(t, memory.NewPersistence(), expirer, index)

	past := time.Now().UTC().Add(-time.Second)
	require.NoError(t, index.Add(ctx, "resumed", past))
	require.NoError(t, index.Add(ctx, "deleted", past))

	sched.Sweep(ctx)

	due, err := index.Due(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestSweepKeepsDeadlineOnTransientFailure(t *testing.T) {
	ctx := context.Background()
	index := scheduler.NewMemoryIndex()

	expirer := &fakeExpirer{errs: map[string]error{
		"flaky": errors.New("storage unavailable"),
	}}

	sched := newScheduler(t, memory.NewPersistence(), expirer, index)

	require.NoError(t, index.Add(ctx, "flaky", time.Now().UTC().Add(-time.Second)))

	sched.Sweep(ctx)
	sched.Sweep(ctx)

	assert.Equal(t, []string{"flaky", "flaky"}, expirer.expired)
}
