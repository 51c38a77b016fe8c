// Package protocol defines the interfaces and contracts between the execution
// engine, node executors, and external collaborators.
package protocol

import (
	"context"
	"time"

	"github.com/zapflowhq/zapflow/pkg/models"
)

// OutcomeKind classifies what the engine should do after a node executes.
type OutcomeKind string

const (
	// OutcomeContinue advances along the outgoing edge selected by BranchKey.
	OutcomeContinue OutcomeKind = "continue"
	// OutcomeSuspend parks the execution as WAITING until a reply or timeout.
	OutcomeSuspend OutcomeKind = "suspend"
	// OutcomeTerminate completes the execution with the final output.
	OutcomeTerminate OutcomeKind = "terminate"
)

// Outcome is what a node executor reports back to the engine. Executor errors
// are returned separately and fail the execution.
type Outcome struct {
	Kind OutcomeKind

	// BranchKey selects the outgoing edge for OutcomeContinue. Empty means
	// the node has a single unconditional successor.
	BranchKey string

	// SuspendFor is the timeout for OutcomeSuspend.
	SuspendFor time.Duration

	// Output is the final output for OutcomeTerminate.
	Output map[string]any
}

// ContinueOutcome is the common single-successor continue result.
func ContinueOutcome() Outcome {
	return Outcome{Kind: OutcomeContinue}
}

// NodeExecutor runs one node type against an execution context. Implementations
// must honor ctx cancellation on any blocking external call.
type NodeExecutor interface {
	Type() models.NodeType
	Execute(ctx context.Context, execCtx *models.ExecutionContext) (Outcome, error)
}

// ExecutorFactory creates executor instances for one node type and provides
// the JSON schema its configuration is validated against.
type ExecutorFactory interface {
	// ID returns the node type string this factory handles.
	ID() string

	// Schema returns the JSON schema for this node type's configuration.
	Schema() map[string]any

	// Create builds an executor bound to the given node.
	Create(deps Dependencies, node *models.WorkflowNode) (NodeExecutor, error)
}
