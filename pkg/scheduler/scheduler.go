package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapflowhq/zapflow/pkg/metrics"
	"github.com/zapflowhq/zapflow/pkg/persistence"
)

const defaultInterval = 5 * time.Second

// Expirer is the engine-side handler for a passed deadline.
type Expirer interface {
	Expire(ctx context.Context, executionID string) error
}

// Scheduler sweeps the deadline index on an interval and hands due executions
// to the expirer. Firing is at-least-once: a deadline stays indexed until its
// expiry (or the winning resume) removes it, and losing a transition race is
// an expected, silent outcome.
type Scheduler struct {
	persistence persistence.Persistence
	expirer     Expirer
	index       DeadlineIndex
	interval    time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates a scheduler sweeping at the given interval (or a default).
func New(p persistence.Persistence, expirer Expirer, index DeadlineIndex, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}

	if m == nil {
		m = metrics.New()
	}

	return &Scheduler{
		persistence: p,
		expirer:     expirer,
		index:       index,
		interval:    interval,
		metrics:     m,
		logger:      logger.With("module", "scheduler"),
	}
}

// Rebuild reloads the index from the WAITING executions in storage. Run at
// startup so deadlines survive process restarts even with the memory index.
func (s *Scheduler) Rebuild(ctx context.Context) error {
	waiting, err := s.persistence.WaitingExecutions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load waiting executions: %w", err)
	}

	indexed := 0

	for _, execution := range waiting {
		if execution.ExpiresAt == nil {
			continue
		}

		err = s.index.Add(ctx, execution.ID, *execution.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to index execution %s: %w", execution.ID, err)
		}

		indexed++
	}

	s.logger.Info("deadline index rebuilt", "waiting", len(waiting), "indexed", indexed)

	return nil
}

// Run rebuilds the index and sweeps until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	err := s.Rebuild(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep fires every due deadline once.
func (s *Scheduler) Sweep(ctx context.Context) {
	s.metrics.SchedulerSweeps.Inc()

	due, err := s.index.Due(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to query due deadlines", "error", err)

		return
	}

	for _, executionID := range due {
		s.fire(ctx, executionID)
	}
}

// fire expires one execution. Conflicts and missing executions mean the
// deadline no longer applies; both just drop the index entry.
func (s *Scheduler) fire(ctx context.Context, executionID string) {
	err := s.expirer.Expire(ctx, executionID)

	switch {
	case err == nil:
	case persistence.IsStatusConflict(err):
		s.logger.Debug("deadline already resolved", "execution_id", executionID)
	case persistence.IsExecutionNotFound(err):
		s.logger.Debug("deadline for deleted execution", "execution_id", executionID)
	default:
		s.logger.Error("failed to expire execution", "execution_id", executionID, "error", err)

		return
	}

	err = s.index.Remove(ctx, executionID)
	if err != nil {
		s.logger.Warn("failed to remove fired deadline", "execution_id", executionID, "error", err)
	}
}
