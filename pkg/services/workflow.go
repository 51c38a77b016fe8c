package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/registry"
)

// Workflow is the workflow management service.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

// NewWorkflow creates the workflow service.
func NewWorkflow(p persistence.Persistence, r *registry.Registry) *Workflow {
	return &Workflow{persistence: p, registry: r}
}

// List returns all workflows.
func (s *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.Workflows(ctx)
}

// FetchByID returns one workflow.
func (s *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.WorkflowByID(ctx, id)
}

// Create validates and stores a new workflow. New workflows start inactive.
func (s *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	workflow.ID = uuid.New().String()
	workflow.IsActive = false

	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	err := s.validate(workflow)
	if err != nil {
		return nil, err
	}

	err = s.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Update validates and stores changes to an existing workflow.
func (s *Workflow) Update(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := s.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflow.ID = existing.ID
	workflow.CreatedAt = existing.CreatedAt
	workflow.IsActive = existing.IsActive
	workflow.UpdatedAt = time.Now().UTC()

	err = s.validate(workflow)
	if err != nil {
		return nil, err
	}

	err = s.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Delete removes a workflow.
func (s *Workflow) Delete(ctx context.Context, id string) error {
	return s.persistence.DeleteWorkflow(ctx, id)
}

// SetActive flips trigger eligibility. Activation re-validates, so a workflow
// that became invalid since saving cannot go live.
func (s *Workflow) SetActive(ctx context.Context, id string, active bool) (*models.Workflow, error) {
	workflow, err := s.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		err = s.validate(workflow)
		if err != nil {
			return nil, err
		}
	}

	workflow.IsActive = active
	workflow.UpdatedAt = time.Now().UTC()

	err = s.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// validate runs structural validation plus per-node schema validation.
func (s *Workflow) validate(workflow *models.Workflow) error {
	err := workflow.Validate()
	if err != nil {
		return NewValidationError(err)
	}

	for _, node := range workflow.Nodes {
		err = s.registry.ValidateConfig(node)
		if err != nil {
			return NewValidationError(fmt.Errorf("node %s: %w", node.ID, err))
		}
	}

	return nil
}
