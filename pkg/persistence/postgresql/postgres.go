// Package postgresql provides PostgreSQL persistence for workflows and
// executions.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // registers the postgres sql driver

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:            database,
		logger:        logger,
		workflowRepo:  NewWorkflowRepository(database, logger),
		executionRepo: NewExecutionRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Workflows returns all workflows from the database.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return p.workflowRepo.GetAll(ctx)
}

// ActiveWorkflows returns the workflows eligible for trigger matching.
func (p *Persistence) ActiveWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return p.workflowRepo.GetActive(ctx)
}

// WorkflowByID returns a workflow by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

// SaveWorkflow saves a workflow to the database.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflowRepo.Save(ctx, workflow)
}

// DeleteWorkflow deletes a workflow by its ID.
func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return p.workflowRepo.Delete(ctx, id)
}

// CreateExecution inserts a new execution.
func (p *Persistence) CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return p.executionRepo.Create(ctx, execution)
}

// ExecutionByID returns an execution by its ID.
func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return p.executionRepo.GetByID(ctx, id)
}

// ExecutionsByWorkflow returns all executions of a workflow.
func (p *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	return p.executionRepo.GetByWorkflow(ctx, workflowID)
}

// SaveExecution persists the execution state.
func (p *Persistence) SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return p.executionRepo.Save(ctx, execution)
}

// TransitionExecution atomically mutates an execution if its status still
// equals from. Row-level locking (SELECT ... FOR UPDATE) serializes
// concurrent transitions across processes.
func (p *Persistence) TransitionExecution(ctx context.Context, id string, from models.ExecutionStatus, mutate persistence.TransitionFunc) (*models.WorkflowExecution, error) {
	return p.executionRepo.Transition(ctx, id, from, mutate)
}

// DeleteExecution deletes an execution by its ID.
func (p *Persistence) DeleteExecution(ctx context.Context, id string) error {
	return p.executionRepo.Delete(ctx, id)
}

// WaitingExecutions returns all executions currently in WAITING status.
func (p *Persistence) WaitingExecutions(ctx context.Context) ([]*models.WorkflowExecution, error) {
	return p.executionRepo.GetWaiting(ctx)
}

// WaitingBySession returns WAITING executions for a session/contact pair.
func (p *Persistence) WaitingBySession(ctx context.Context, sessionID, contactID string) ([]*models.WorkflowExecution, error) {
	return p.executionRepo.GetWaitingBySession(ctx, sessionID, contactID)
}
