// Package models defines the core domain models for conversational workflow automation.
package models

import "time"

// Workflow represents a directed graph of typed nodes defining one automation.
type Workflow struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId"           validate:"required"`
	Name      string          `json:"name"               validate:"required,min=3"`
	Nodes     []*WorkflowNode `json:"nodes"`
	Edges     []*WorkflowEdge `json:"edges"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// WorkflowEdge is a directed connection between two nodes. Label (or the legacy
// condition field) carries the branch key multi-output nodes select against.
type WorkflowEdge struct {
	ID        string `json:"id"`
	Source    string `json:"source" validate:"required"`
	Target    string `json:"target" validate:"required"`
	Label     string `json:"label,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// BranchKey returns the key this edge matches against. Label wins over the
// legacy condition field when both are set.
func (e *WorkflowEdge) BranchKey() string {
	if e.Label != "" {
		return e.Label
	}

	return e.Condition
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// TriggerNodes returns the workflow's trigger nodes in declaration order.
func (w *Workflow) TriggerNodes() []*WorkflowNode {
	var triggers []*WorkflowNode

	for _, node := range w.Nodes {
		if node.Type.IsTrigger() {
			triggers = append(triggers, node)
		}
	}

	return triggers
}

// OutgoingEdges returns all edges whose source is the given node id,
// in declaration order.
func (w *Workflow) OutgoingEdges(nodeID string) []*WorkflowEdge {
	var out []*WorkflowEdge

	for _, edge := range w.Edges {
		if edge.Source == nodeID {
			out = append(out, edge)
		}
	}

	return out
}
