// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/zapflowhq/zapflow/pkg/models"

// CreateWorkflowRequest is the request body for creating a workflow.
type CreateWorkflowRequest struct {
	TenantID string                 `json:"tenantId" validate:"required"`
	Name     string                 `json:"name"     validate:"required,min=3"`
	Nodes    []*models.WorkflowNode `json:"nodes"`
	Edges    []*models.WorkflowEdge `json:"edges"`
}

// UpdateWorkflowRequest is the request body for updating a workflow. Fields are
// optional to support partial updates; nodes and edges replace wholesale.
type UpdateWorkflowRequest struct {
	Name  *string                `json:"name,omitempty" validate:"omitempty,min=3"`
	Nodes []*models.WorkflowNode `json:"nodes,omitempty"`
	Edges []*models.WorkflowEdge `json:"edges,omitempty"`
}

// InboundEventRequest is the request body for injecting a channel event.
type InboundEventRequest struct {
	SessionID string         `json:"sessionId" validate:"required"`
	ContactID string         `json:"contactId" validate:"required"`
	Text      string         `json:"text"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// TriggerWorkflowRequest is the request body for a manual workflow run.
type TriggerWorkflowRequest struct {
	SessionID string         `json:"sessionId"`
	ContactID string         `json:"contactId" validate:"required"`
	Payload   map[string]any `json:"payload,omitempty"`
}
