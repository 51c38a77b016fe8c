package cmd

import (
	"context"

	"github.com/zapflowhq/zapflow/pkg/scheduler"
)

// NewDeadlineIndex creates the timeout deadline index. With a Redis URL the
// index is shared across workers; without one it lives in process and is
// rebuilt from storage on start.
func NewDeadlineIndex(ctx context.Context, redisURL string) (scheduler.DeadlineIndex, error) {
	if redisURL == "" {
		return scheduler.NewMemoryIndex(), nil
	}

	return scheduler.NewRedisIndex(ctx, redisURL)
}
