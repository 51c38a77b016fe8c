// Package memory provides an in-memory persistence implementation used by
// tests and local development.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
)

// Persistence keeps workflows and executions in maps. Executions are cloned on
// the way in and out so callers never alias stored state; TransitionExecution
// serializes on a per-execution lock.
type Persistence struct {
	mu         sync.RWMutex
	workflows  map[string]*models.Workflow
	executions map[string]*models.WorkflowExecution

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows:  make(map[string]*models.Workflow),
		executions: make(map[string]*models.WorkflowExecution),
		locks:      make(map[string]*sync.Mutex),
	}
}

func (p *Persistence) executionLock(id string) *sync.Mutex {
	p.locksMu.Lock()
	defer p.locksMu.Unlock()

	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}

	return lock
}

func cloneExecution(execution *models.WorkflowExecution) *models.WorkflowExecution {
	data, err := json.Marshal(execution)
	if err != nil {
		return execution
	}

	clone := &models.WorkflowExecution{}
	if err := json.Unmarshal(data, clone); err != nil {
		return execution
	}

	return clone
}

func (p *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(p.workflows))
	for _, workflow := range p.workflows {
		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (p *Persistence) ActiveWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	all, err := p.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if workflow.IsActive {
			active = append(active, workflow)
		}
	}

	return active, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflow, ok := p.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.workflows[workflow.ID] = workflow

	return nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.workflows[id]; !ok {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	delete(p.workflows, id)

	return nil
}

func (p *Persistence) CreateExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.executions[execution.ID] = cloneExecution(execution)

	return nil
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	execution, ok := p.executions[id]
	if !ok {
		return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
	}

	return cloneExecution(execution), nil
}

func (p *Persistence) ExecutionsByWorkflow(_ context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var executions []*models.WorkflowExecution

	for _, execution := range p.executions {
		if execution.WorkflowID == workflowID {
			executions = append(executions, cloneExecution(execution))
		}
	}

	return executions, nil
}

func (p *Persistence) SaveExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.executions[execution.ID]; !ok {
		return persistence.NewExecutionError("SaveExecution", execution.ID, persistence.ErrExecutionNotFound)
	}

	p.executions[execution.ID] = cloneExecution(execution)

	return nil
}

func (p *Persistence) TransitionExecution(ctx context.Context, id string, from models.ExecutionStatus, mutate persistence.TransitionFunc) (*models.WorkflowExecution, error) {
	lock := p.executionLock(id)
	lock.Lock()
	defer lock.Unlock()

	execution, err := p.ExecutionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if execution.Status != from {
		return nil, persistence.NewExecutionError("TransitionExecution", id, persistence.ErrStatusConflict)
	}

	if err := mutate(execution); err != nil {
		return nil, err
	}

	if err := p.SaveExecution(ctx, execution); err != nil {
		return nil, err
	}

	return execution, nil
}

func (p *Persistence) DeleteExecution(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.executions[id]; !ok {
		return persistence.NewExecutionError("DeleteExecution", id, persistence.ErrExecutionNotFound)
	}

	delete(p.executions, id)

	return nil
}

func (p *Persistence) WaitingExecutions(_ context.Context) ([]*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var waiting []*models.WorkflowExecution

	for _, execution := range p.executions {
		if execution.Status == models.ExecutionStatusWaiting {
			waiting = append(waiting, cloneExecution(execution))
		}
	}

	return waiting, nil
}

func (p *Persistence) WaitingBySession(_ context.Context, sessionID, contactID string) ([]*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var waiting []*models.WorkflowExecution

	for _, execution := range p.executions {
		if execution.Status == models.ExecutionStatusWaiting &&
			execution.SessionID == sessionID &&
			execution.ContactID == contactID {
			waiting = append(waiting, cloneExecution(execution))
		}
	}

	return waiting, nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
