package services

import (
	"context"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
)

// Execution is the read-side service for workflow executions.
type Execution struct {
	persistence persistence.Persistence
}

// NewExecution creates the execution service.
func NewExecution(p persistence.Persistence) *Execution {
	return &Execution{persistence: p}
}

// List returns executions across every workflow.
func (s *Execution) List(ctx context.Context) ([]*models.WorkflowExecution, error) {
	workflows, err := s.persistence.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	executions := []*models.WorkflowExecution{}

	for _, workflow := range workflows {
		batch, err := s.persistence.ExecutionsByWorkflow(ctx, workflow.ID)
		if err != nil {
			return nil, err
		}

		executions = append(executions, batch...)
	}

	return executions, nil
}

// ListByWorkflow returns all executions of one workflow.
func (s *Execution) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	return s.persistence.ExecutionsByWorkflow(ctx, workflowID)
}

// FetchByID returns one execution.
func (s *Execution) FetchByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return s.persistence.ExecutionByID(ctx, id)
}
