package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
		id
	  , tenant_id
	  , workflow_id
	  , session_id
	  , contact_id
	  , current_node_id
	  , status
	  , context
	  , interaction_count
	  , started_at
	  , updated_at
	  , expires_at
	  , completed_at
	  , error
	  , output
`

// Create inserts a new execution.
func (r *ExecutionRepository) Create(ctx context.Context, execution *models.WorkflowExecution) error {
	contextJSON, outputJSON, err := marshalExecutionJSON(execution)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO executions (id, tenant_id, workflow_id, session_id, contact_id,
			current_node_id, status, context, interaction_count, started_at,
			updated_at, expires_at, completed_at, error, output)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.TenantID,
		execution.WorkflowID,
		execution.SessionID,
		execution.ContactID,
		execution.CurrentNodeID,
		execution.Status,
		contextJSON,
		execution.InteractionCount,
		execution.StartedAt,
		execution.UpdatedAt,
		execution.ExpiresAt,
		execution.CompletedAt,
		nullableString(execution.Error),
		outputJSON,
	)
	if err != nil {
		return persistence.NewExecutionError("create", execution.ID, err)
	}

	return nil
}

// Save updates an existing execution, inserting when absent.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	contextJSON, outputJSON, err := marshalExecutionJSON(execution)
	if err != nil {
		return err
	}

	execution.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO executions (id, tenant_id, workflow_id, session_id, contact_id,
			current_node_id, status, context, interaction_count, started_at,
			updated_at, expires_at, completed_at, error, output)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			current_node_id = EXCLUDED.current_node_id,
			status = EXCLUDED.status,
			context = EXCLUDED.context,
			interaction_count = EXCLUDED.interaction_count,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at,
			completed_at = EXCLUDED.completed_at,
			error = EXCLUDED.error,
			output = EXCLUDED.output
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.TenantID,
		execution.WorkflowID,
		execution.SessionID,
		execution.ContactID,
		execution.CurrentNodeID,
		execution.Status,
		contextJSON,
		execution.InteractionCount,
		execution.StartedAt,
		execution.UpdatedAt,
		execution.ExpiresAt,
		execution.CompletedAt,
		nullableString(execution.Error),
		outputJSON,
	)
	if err != nil {
		return persistence.NewExecutionError("save", execution.ID, err)
	}

	return nil
}

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("get", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// GetByWorkflow returns all executions of a workflow, newest first.
func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE workflow_id = $1 ORDER BY started_at DESC`

	return r.queryExecutions(ctx, query, workflowID)
}

// GetWaiting returns all executions currently in WAITING status.
func (r *ExecutionRepository) GetWaiting(ctx context.Context) ([]*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE status = 'WAITING'`

	return r.queryExecutions(ctx, query)
}

// GetWaitingBySession returns WAITING executions for a session/contact pair,
// oldest first.
func (r *ExecutionRepository) GetWaitingBySession(ctx context.Context, sessionID, contactID string) ([]*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + `
		FROM executions
		WHERE session_id = $1 AND contact_id = $2 AND status = 'WAITING'
		ORDER BY started_at ASC`

	return r.queryExecutions(ctx, query, sessionID, contactID)
}

// Delete removes an execution by its ID.
func (r *ExecutionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM executions WHERE id = $1`, id)
	if err != nil {
		return persistence.NewExecutionError("delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("delete", id, persistence.ErrExecutionNotFound)
	}

	return nil
}

// Transition atomically loads the execution under a row lock, verifies its
// status still equals from, applies mutate, and writes the result back.
// Returns ErrStatusConflict when another transition won the race.
func (r *ExecutionRepository) Transition(ctx context.Context, id string, from models.ExecutionStatus, mutate persistence.TransitionFunc) (*models.WorkflowExecution, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1 FOR UPDATE`

	execution, err := scanExecution(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("transition", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	if execution.Status != from {
		return nil, persistence.NewExecutionError("transition", id, persistence.ErrStatusConflict)
	}

	err = mutate(execution)
	if err != nil {
		return nil, err
	}

	execution.UpdatedAt = time.Now().UTC()

	contextJSON, outputJSON, err := marshalExecutionJSON(execution)
	if err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE executions SET
			current_node_id = $2,
			status = $3,
			context = $4,
			interaction_count = $5,
			updated_at = $6,
			expires_at = $7,
			completed_at = $8,
			error = $9,
			output = $10
		WHERE id = $1
	`

	_, err = tx.ExecContext(ctx, updateQuery,
		execution.ID,
		execution.CurrentNodeID,
		execution.Status,
		contextJSON,
		execution.InteractionCount,
		execution.UpdatedAt,
		execution.ExpiresAt,
		execution.CompletedAt,
		nullableString(execution.Error),
		outputJSON,
	)
	if err != nil {
		return nil, persistence.NewExecutionError("transition", id, err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	return execution, nil
}

func (r *ExecutionRepository) queryExecutions(ctx context.Context, query string, args ...any) ([]*models.WorkflowExecution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func marshalExecutionJSON(execution *models.WorkflowExecution) ([]byte, []byte, error) {
	contextJSON, err := json.Marshal(execution.Context)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal execution context: %w", err)
	}

	var outputJSON []byte

	if execution.Output != nil {
		outputJSON, err = json.Marshal(execution.Output)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal execution output: %w", err)
		}
	}

	return contextJSON, outputJSON, nil
}

func scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	var (
		execution   models.WorkflowExecution
		contextJSON []byte
		outputJSON  []byte
		errText     sql.NullString
	)

	err := row.Scan(
		&execution.ID,
		&execution.TenantID,
		&execution.WorkflowID,
		&execution.SessionID,
		&execution.ContactID,
		&execution.CurrentNodeID,
		&execution.Status,
		&contextJSON,
		&execution.InteractionCount,
		&execution.StartedAt,
		&execution.UpdatedAt,
		&execution.ExpiresAt,
		&execution.CompletedAt,
		&errText,
		&outputJSON,
	)
	if err != nil {
		return nil, err
	}

	execution.Error = errText.String

	err = json.Unmarshal(contextJSON, &execution.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution context: %w", err)
	}

	if len(outputJSON) > 0 {
		err = json.Unmarshal(outputJSON, &execution.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution output: %w", err)
		}
	}

	return &execution, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}
