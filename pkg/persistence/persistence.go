// Package persistence provides the storage abstraction for workflows and
// executions.
package persistence

import (
	"context"

	"github.com/zapflowhq/zapflow/pkg/models"
)

// TransitionFunc mutates an execution inside TransitionExecution's critical
// section. The mutated execution is persisted when the func returns nil.
type TransitionFunc func(execution *models.WorkflowExecution) error

// Persistence is the storage contract consumed by the engine, the trigger
// matcher, and the timeout scheduler.
//
// TransitionExecution is the concurrency primitive of the whole system: it
// atomically loads the execution, verifies its status still equals from,
// applies mutate, and persists, all under a lock keyed by execution id.
// A caller that loses a resume/expire race gets ErrStatusConflict.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	ActiveWorkflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error
	ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error)
	SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error
	TransitionExecution(ctx context.Context, id string, from models.ExecutionStatus, mutate TransitionFunc) (*models.WorkflowExecution, error)
	DeleteExecution(ctx context.Context, id string) error
	WaitingExecutions(ctx context.Context) ([]*models.WorkflowExecution, error)
	WaitingBySession(ctx context.Context, sessionID, contactID string) ([]*models.WorkflowExecution, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
