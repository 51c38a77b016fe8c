// Package schedule runs the cron entries declared by TRIGGER_SCHEDULE nodes
// and emits schedule events into the engine.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
)

// Sink receives the inbound events produced by schedule firings.
type Sink interface {
	ProcessInbound(ctx context.Context, event *models.InboundEvent) error
}

// Runner mirrors the TRIGGER_SCHEDULE nodes of active workflows into a cron
// scheduler. Reload rebuilds the entry set, so workflow changes take effect on
// the next reload tick.
type Runner struct {
	persistence persistence.Persistence
	sink        Sink
	logger      *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID // workflowID/nodeID -> entry
}

// NewRunner creates a stopped runner.
func NewRunner(p persistence.Persistence, sink Sink, logger *slog.Logger) *Runner {
	return &Runner{
		persistence: p,
		sink:        sink,
		logger:      logger.With("module", "schedule_runner"),
		cron:        cron.New(),
		entries:     make(map[string]cron.EntryID),
	}
}

// Start loads the entries, starts the cron loop, and reloads on the given
// interval until the context is cancelled.
func (r *Runner) Start(ctx context.Context, reloadInterval time.Duration) error {
	err := r.Reload(ctx)
	if err != nil {
		return err
	}

	r.cron.Start()

	if reloadInterval <= 0 {
		reloadInterval = time.Minute
	}

	ticker := time.NewTicker(reloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stop := r.cron.Stop()
			<-stop.Done()

			return ctx.Err()
		case <-ticker.C:
			err := r.Reload(ctx)
			if err != nil {
				r.logger.Error("failed to reload schedules", "error", err)
			}
		}
	}
}

// Reload synchronizes cron entries with the current active workflows.
func (r *Runner) Reload(ctx context.Context) error {
	workflows, err := r.persistence.ActiveWorkflows(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active workflows: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)

	for _, workflow := range workflows {
		for _, node := range workflow.TriggerNodes() {
			if node.Type != models.NodeTypeTriggerSchedule {
				continue
			}

			config, err := node.DecodeConfig()
			if err != nil {
				r.logger.Warn("skipping schedule with invalid config",
					"workflow_id", workflow.ID, "node_id", node.ID, "error", err)

				continue
			}

			scheduleConfig, ok := config.(*models.TriggerScheduleConfig)
			if !ok {
				continue
			}

			key := workflow.ID + "/" + node.ID
			seen[key] = true

			if _, exists := r.entries[key]; exists {
				continue
			}

			entryID, err := r.cron.AddFunc(scheduleConfig.Cron, r.fire(workflow.ID, node.ID, scheduleConfig.SessionID))
			if err != nil {
				r.logger.Warn("skipping invalid cron expression",
					"workflow_id", workflow.ID, "node_id", node.ID,
					"cron", scheduleConfig.Cron, "error", err)

				continue
			}

			r.entries[key] = entryID

			r.logger.Info("schedule registered",
				"workflow_id", workflow.ID, "node_id", node.ID, "cron", scheduleConfig.Cron)
		}
	}

	for key, entryID := range r.entries {
		if !seen[key] {
			r.cron.Remove(entryID)
			delete(r.entries, key)

			r.logger.Info("schedule removed", "key", key)
		}
	}

	return nil
}

// Schedules returns the registered entry keys, "workflowID/nodeID".
func (r *Runner) Schedules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func (r *Runner) fire(workflowID, nodeID, sessionID string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		event := &models.InboundEvent{
			SessionID:  sessionID,
			ContactID:  "system",
			Signal:     models.SignalSchedule,
			Timestamp:  time.Now().UTC(),
			WorkflowID: workflowID,
		}

		err := r.sink.ProcessInbound(ctx, event)
		if err != nil {
			r.logger.Error("scheduled firing failed",
				"workflow_id", workflowID, "node_id", nodeID, "error", err)
		}
	}
}
