// Package file provides a file-based persistence implementation storing
// workflows and executions as JSON documents.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
)

const (
	workflowsDir  = "workflows"
	executionsDir = "executions"
)

// Persistence stores each workflow and execution as one JSON file under the
// root directory. A process-wide per-execution lock backs
// TransitionExecution; the single-logical-scheduler assumption makes that
// sufficient for this backend.
type Persistence struct {
	root string

	mu sync.RWMutex

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:  cleanRoot,
		locks: make(map[string]*sync.Mutex),
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

func (p *Persistence) path(kind, id string) string {
	return filepath.Join(p.root, kind, id+".json")
}

func (p *Persistence) write(kind, id string, value any) error {
	dir := filepath.Join(p.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	return os.WriteFile(p.path(kind, id), data, 0o644)
}

func (p *Persistence) read(kind, id string, into any) error {
	data, err := os.ReadFile(p.path(kind, id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, into)
}

func (p *Persistence) list(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}

func (p *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids, err := p.list(workflowsDir)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow := &models.Workflow{}
		if err := p.read(workflowsDir, id, workflow); err != nil {
			return nil, fmt.Errorf("failed to read workflow %s: %w", id, err)
		}

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

	workflow := &models.Workflow{}
	if err := p.read(workflowsDir, id, workflow); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, err
	}

	return workflow, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.write(workflowsDir, workflow.ID, workflow)
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.path(workflowsDir, id))
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return err
}

func (p *Persistence) CreateExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.write(executionsDir, execution.ID, execution)
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.readExecution(id)
}

func (p *Persistence) readExecution(id string) (*models.WorkflowExecution, error) {
	execution := &models.WorkflowExecution{}
	if err := p.read(executionsDir, id, execution); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, err
	}

	return execution, nil
}

func (p *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	all, err := p.allExecutions()
	if err != nil {
		return nil, err
	}

	var executions []*models.WorkflowExecution

	for _, execution := range all {
		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	return executions, nil
}

func (p *Persistence) allExecutions() ([]*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids, err := p.list(executionsDir)
	if err != nil {
		return nil, err
	}

	executions := make([]*models.WorkflowExecution, 0, len(ids))

	for _, id := range ids {
		execution, err := p.readExecution(id)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, nil
}

func (p *Persistence) SaveExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := os.Stat(p.path(executionsDir, execution.ID)); errors.Is(err, os.ErrNotExist) {
		return persistence.NewExecutionError("SaveExecution", execution.ID, persistence.ErrExecutionNotFound)
	}

	return p.write(executionsDir, execution.ID, execution)
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

	err := os.Remove(p.path(executionsDir, id))
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewExecutionError("DeleteExecution", id, persistence.ErrExecutionNotFound)
	}

	return err
}

func (p *Persistence) WaitingExecutions(_ context.Context) ([]*models.WorkflowExecution, error) {
	all, err := p.allExecutions()
	if err != nil {
		return nil, err
	}

	var waiting []*models.WorkflowExecution

	for _, execution := range all {
		if execution.Status == models.ExecutionStatusWaiting {
			waiting = append(waiting, execution)
		}
	}

	return waiting, nil
}

func (p *Persistence) WaitingBySession(ctx context.Context, sessionID, contactID string) ([]*models.WorkflowExecution, error) {
	waiting, err := p.WaitingExecutions(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*models.WorkflowExecution

	for _, execution := range waiting {
		if execution.SessionID == sessionID && execution.ContactID == contactID {
			matched = append(matched, execution)
		}
	}

	return matched, nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
