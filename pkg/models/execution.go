package models

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the lifecycle state of a workflow execution.
// The string values are part of the wire/storage schema.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusWaiting   ExecutionStatus = "WAITING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusExpired   ExecutionStatus = "EXPIRED"
	ExecutionStatusError     ExecutionStatus = "ERROR"
)

// IsTerminal reports whether the status admits no further transitions.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusExpired, ExecutionStatusError:
		return true
	default:
		return false
	}
}

// WorkflowExecution is one run of a workflow for a specific session/contact.
// Owned exclusively by the execution engine: created on trigger match, mutated
// only through engine transitions, retained after terminal status for audit.
type WorkflowExecution struct {
	ID               string            `json:"id"`
	TenantID         string            `json:"tenantId"`
	WorkflowID       string            `json:"workflowId"`
	SessionID        string            `json:"sessionId"`
	ContactID        string            `json:"contactId"`
	CurrentNodeID    *string           `json:"currentNodeId"`
	Status           ExecutionStatus   `json:"status"`
	Context          *ExecutionContext `json:"context"`
	InteractionCount int               `json:"interactionCount"`
	StartedAt        time.Time         `json:"startedAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	ExpiresAt        *time.Time        `json:"expiresAt,omitempty"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	Error            string            `json:"error,omitempty"`
	Output           map[string]any    `json:"output,omitempty"`
}

// NewExecution creates a RUNNING execution for the given workflow and contact.
func NewExecution(workflow *Workflow, sessionID, contactID string) *WorkflowExecution {
	now := time.Now().UTC()

	return &WorkflowExecution{
		ID:         "exec-" + uuid.New().String(),
		TenantID:   workflow.TenantID,
		WorkflowID: workflow.ID,
		SessionID:  sessionID,
		ContactID:  contactID,
		Status:     ExecutionStatusRunning,
		Context:    NewExecutionContext(),
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// SetCurrentNode points the execution at the given node id.
func (e *WorkflowExecution) SetCurrentNode(nodeID string) {
	e.CurrentNodeID = &nodeID
}

// CurrentNode returns the current node id, or "" when terminal.
func (e *WorkflowExecution) CurrentNode() string {
	if e.CurrentNodeID == nil {
		return ""
	}

	return *e.CurrentNodeID
}
