// Package scheduler watches parked execution deadlines and fires expirations.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// DeadlineIndex stores execution deadlines and answers which have passed.
// The memory implementation is per-process; the redis implementation is shared
// across workers.
type DeadlineIndex interface {
	Add(ctx context.Context, executionID string, at time.Time) error
	Remove(ctx context.Context, executionID string) error
	Due(ctx context.Context, now time.Time) ([]string, error)
}

// MemoryIndex is an in-process deadline index.
type MemoryIndex struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
}

// NewMemoryIndex creates an empty in-process index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{deadlines: make(map[string]time.Time)}
}

// Add records (or updates) an execution deadline.
func (i *MemoryIndex) Add(_ context.Context, executionID string, at time.Time) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.deadlines[executionID] = at

	return nil
}

// Remove drops an execution from the index. Removing an absent id is a no-op.
func (i *MemoryIndex) Remove(_ context.Context, executionID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.deadlines, executionID)

	return nil
}

// Due returns the executions whose deadline is at or before now.
func (i *MemoryIndex) Due(_ context.Context, now time.Time) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var due []string

	for executionID, at := range i.deadlines {
		if !at.After(now) {
			due = append(due, executionID)
		}
	}

	return due, nil
}
