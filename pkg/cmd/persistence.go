// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/persistence/file"
	"github.com/zapflowhq/zapflow/pkg/persistence/memory"
	"github.com/zapflowhq/zapflow/pkg/persistence/postgresql"
)

// NewPersistence selects a storage backend from the database URL scheme.
// postgres:// and postgresql:// use PostgreSQL, memory:// keeps everything
// in process, anything else is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case databaseURL == "" || strings.HasPrefix(databaseURL, "memory://"):
		return memory.NewPersistence(), nil
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	}
}
