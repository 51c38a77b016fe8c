// Package testutil provides test data builders used across packages.
package testutil

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/zapflowhq/zapflow/pkg/models"
)

// Node creates a workflow node with the given id, type, and config map.
func Node(id string, nodeType models.NodeType, config map[string]any) *models.WorkflowNode {
	var raw json.RawMessage
	if config != nil {
		raw, _ = json.Marshal(config)
	}

	return &models.WorkflowNode{
		ID:     id,
		Type:   nodeType,
		Config: raw,
	}
}

// Edge creates an unlabeled edge between two nodes.
func Edge(source, target string) *models.WorkflowEdge {
	return &models.WorkflowEdge{
		ID:     uuid.New().String(),
		Source: source,
		Target: target,
	}
}

// LabeledEdge creates an edge carrying a branch key.
func LabeledEdge(source, target, label string) *models.WorkflowEdge {
	edge := Edge(source, target)
	edge.Label = label

	return edge
}

// Workflow assembles an active workflow from nodes and edges.
func Workflow(overrides ...func(*models.Workflow)) *models.Workflow {
	now := time.Now().UTC()

	workflow := &models.Workflow{
		ID:        uuid.New().String(),
		TenantID:  "tenant-1",
		Name:      "Test Workflow",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithGraph sets the workflow's nodes and edges.
func WithGraph(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Nodes = nodes
		w.Edges = edges
	}
}

// WithName sets the workflow name.
func WithName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

// Inactive marks the workflow inactive.
func Inactive() func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.IsActive = false
	}
}

// MessageEvent creates an inbound text message event.
func MessageEvent(sessionID, contactID, text string) *models.InboundEvent {
	return &models.InboundEvent{
		SessionID: sessionID,
		ContactID: contactID,
		Text:      text,
		Signal:    models.SignalMessage,
		Timestamp: time.Now().UTC(),
	}
}

// WaitingExecution creates a WAITING execution parked on the given node with
// an expiry deadline.
func WaitingExecution(workflow *models.Workflow, sessionID, contactID, nodeID string, expiresAt time.Time) *models.WorkflowExecution {
	execution := models.NewExecution(workflow, sessionID, contactID)
	execution.Status = models.ExecutionStatusWaiting
	execution.SetCurrentNode(nodeID)
	execution.ExpiresAt = &expiresAt

	return execution
}
