// Package engine advances workflow executions node by node: it starts them on
// trigger matches, parks them while they wait, resumes them on replies, and
// expires them on deadlines. All status transitions go through the persistence
// layer's compare-and-swap primitive, so concurrent resume and expire attempts
// resolve to exactly one winner.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zapflowhq/zapflow/pkg/eventbus"
	"github.com/zapflowhq/zapflow/pkg/events"
	"github.com/zapflowhq/zapflow/pkg/metrics"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/otelhelper"
	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/protocol"
	"github.com/zapflowhq/zapflow/pkg/registry"
	"github.com/zapflowhq/zapflow/pkg/trigger"
)

// Loop guard: an execution may run at most this many nodes in one advancement
// run, scaled by how much legitimate interaction it has already seen.
const (
	loopGuardBase           = 100
	loopGuardPerInteraction = 10
)

// DeadlineIndex is the scheduler-facing view of parked deadlines. Add and
// Remove are called as executions suspend and resume.
type DeadlineIndex interface {
	Add(ctx context.Context, executionID string, at time.Time) error
	Remove(ctx context.Context, executionID string) error
}

// Config wires an Engine. Persistence, Registry and Logger are required;
// everything else degrades gracefully when absent.
type Config struct {
	Persistence  persistence.Persistence
	Registry     *registry.Registry
	EventBus     eventbus.EventPublisher
	Deadlines    DeadlineIndex
	Dependencies protocol.Dependencies
	Metrics      *metrics.Metrics
	Tracer       trace.Tracer
	Logger       *slog.Logger
}

// Engine is the workflow execution engine.
type Engine struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventPublisher
	deadlines   DeadlineIndex
	deps        protocol.Dependencies
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
	matcher     *trigger.Matcher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an engine from the config.
func New(cfg Config) *Engine {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("engine")
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	return &Engine{
		persistence: cfg.Persistence,
		registry:    cfg.Registry,
		eventBus:    cfg.EventBus,
		deadlines:   cfg.Deadlines,
		deps:        cfg.Dependencies,
		metrics:     m,
		tracer:      tracer,
		logger:      cfg.Logger.With("module", "engine"),
		matcher:     trigger.NewMatcher(cfg.Logger),
		locks:       make(map[string]*sync.Mutex),
	}
}

// ProcessInbound routes one inbound event. A message that resumes at least one
// waiting execution is consumed by the resumption and starts nothing new;
// otherwise the event is matched against active workflow triggers.
func (e *Engine) ProcessInbound(ctx context.Context, event *models.InboundEvent) error {
	if event.Signal == models.SignalMessage {
		resumed, err := e.resumeWaiting(ctx, event)
		if err != nil {
			return err
		}

		if resumed {
			return nil
		}
	}

	workflows, err := e.persistence.ActiveWorkflows(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active workflows: %w", err)
	}

	var errs []error

	for _, match := range e.matcher.Match(workflows, event) {
		_, err := e.Start(ctx, match.Workflow, match.TriggerNode, event)
		if err != nil {
			errs = append(errs, fmt.Errorf("workflow %s: %w", match.Workflow.ID, err))
		}
	}

	return errors.Join(errs...)
}

// resumeWaiting resumes every waiting execution of this session that the
// message is allowed to wake: WAIT_REPLY always, WAIT only with
// resumeOnMessage. Reports whether any resumption won its race.
func (e *Engine) resumeWaiting(ctx context.Context, event *models.InboundEvent) (bool, error) {
	waiting, err := e.persistence.WaitingBySession(ctx, event.SessionID, event.ContactID)
	if err != nil {
		return false, fmt.Errorf("failed to load waiting executions: %w", err)
	}

	resumed := false

	for _, execution := range waiting {
		workflow, err := e.persistence.WorkflowByID(ctx, execution.WorkflowID)
		if err != nil {
			e.logger.Warn("waiting execution references missing workflow",
				"execution_id", execution.ID, "workflow_id", execution.WorkflowID, "error", err)

			continue
		}

		node := workflow.NodeByID(execution.CurrentNode())
		if node == nil {
			continue
		}

		switch node.Type {
		case models.NodeTypeWaitReply:
		case models.NodeTypeWait:
			config, err := node.DecodeConfig()
			if err != nil {
				continue
			}

			if waitConfig, ok := config.(*models.WaitConfig); !ok || !waitConfig.ResumeOnMessage {
				continue
			}
		default:
			continue
		}

		err = e.Resume(ctx, execution.ID, event)
		if err != nil {
			if persistence.IsStatusConflict(err) {
				continue
			}

			return resumed, err
		}

		resumed = true
	}

	return resumed, nil
}

// Start creates a RUNNING execution at the trigger node and advances it.
func (e *Engine) Start(ctx context.Context, workflow *models.Workflow, triggerNode *models.WorkflowNode, event *models.InboundEvent) (*models.WorkflowExecution, error) {
	execution := models.NewExecution(workflow, event.SessionID, event.ContactID)
	execution.SetCurrentNode(triggerNode.ID)
	execution.Context.Input = event.InputPayload()
	execution.Context.Globals = map[string]any{
		"executionId": execution.ID,
		"workflowId":  workflow.ID,
		"tenantId":    workflow.TenantID,
		"sessionId":   event.SessionID,
		"contactId":   event.ContactID,
	}

	err := e.persistence.CreateExecution(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	e.metrics.ExecutionsStarted.WithLabelValues(workflow.ID).Inc()
	e.publish(ctx, execution.ID, events.ExecutionStarted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionStartedEvent, execution),
		TriggerNodeID: triggerNode.ID,
		Input:         execution.Context.Input,
	})

	e.logger.Info("execution started",
		"execution_id", execution.ID,
		"workflow_id", workflow.ID,
		"trigger_node_id", triggerNode.ID)

	return execution, e.run(ctx, workflow, execution)
}

// Resume wakes a WAITING execution: the state moves to RUNNING at the wait
// node's successor, the reply (if any) is captured, and the loop continues.
// A lost race against a concurrent expiry returns ErrStatusConflict.
func (e *Engine) Resume(ctx context.Context, executionID string, event *models.InboundEvent) error {
	execution, err := e.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return err
	}

	workflow, err := e.persistence.WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		return err
	}

	waitNode := workflow.NodeByID(execution.CurrentNode())
	if waitNode == nil {
		return fmt.Errorf("execution %s: current node %q not in workflow", executionID, execution.CurrentNode())
	}

	next, err := e.nextNode(workflow, waitNode, "")
	if err != nil {
		return e.failWithoutRun(ctx, executionID, waitNode.ID, err)
	}

	saveAs := replySaveAs(waitNode)

	updated, err := e.persistence.TransitionExecution(ctx, executionID, models.ExecutionStatusWaiting, func(execution *models.WorkflowExecution) error {
		execution.Status = models.ExecutionStatusRunning
		execution.ExpiresAt = nil
		execution.SetCurrentNode(next.ID)
		execution.InteractionCount++

		if event != nil {
			for key, value := range event.InputPayload() {
				execution.Context.Input[key] = value
			}

			if saveAs != "" {
				execution.Context.SetVariable(saveAs, event.Text)
			}
		}

		return nil
	})
	if err != nil {
		if persistence.IsStatusConflict(err) {
			e.metrics.TransitionConflicts.Inc()
			e.logger.Debug("resume lost transition race", "execution_id", executionID)
		}

		return err
	}

	e.removeDeadline(ctx, executionID)
	e.metrics.WaitingExecutions.Dec()
	e.metrics.ExecutionsResumed.WithLabelValues(workflow.ID).Inc()
	e.publish(ctx, executionID, events.ExecutionResumed{
		BaseEvent:      events.NewBaseEvent(events.ExecutionResumedEvent, updated),
		PreviousStatus: models.ExecutionStatusWaiting,
		NodeID:         next.ID,
	})

	e.logger.Info("execution resumed",
		"execution_id", executionID,
		"node_id", next.ID,
		"with_reply", event != nil)

	return e.run(ctx, workflow, updated)
}

// Expire handles a passed deadline. What it means depends on the node the
// execution is parked at: a WAIT simply continues, a WAIT_REPLY applies its
// timeout behavior. A lost race against a concurrent resume returns
// ErrStatusConflict.
func (e *Engine) Expire(ctx context.Context, executionID string) error {
	execution, err := e.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return err
	}

	// Only a WAITING execution with a passed deadline can expire. Anything
	// else is treated as a lost race so callers drop the stale deadline.
	if execution.Status != models.ExecutionStatusWaiting ||
		execution.ExpiresAt == nil ||
		time.Now().UTC().Before(*execution.ExpiresAt) {
		return persistence.NewExecutionError("Expire", executionID, persistence.ErrStatusConflict)
	}

	workflow, err := e.persistence.WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		return err
	}

	node := workflow.NodeByID(execution.CurrentNode())
	if node == nil {
		return fmt.Errorf("execution %s: current node %q not in workflow", executionID, execution.CurrentNode())
	}

	if node.Type == models.NodeTypeWait {
		// A WAIT deadline is the pause ending, not an expiry.
		return e.Resume(ctx, executionID, nil)
	}

	if node.Type == models.NodeTypeWaitReply {
		config, err := node.DecodeConfig()
		if err == nil {
			waitConfig, ok := config.(*models.WaitReplyConfig)
			if ok && waitConfig.OnTimeout == models.TimeoutBehaviorGotoNode && waitConfig.TimeoutTargetNodeID != "" {
				return e.resumeAt(ctx, workflow, executionID, waitConfig.TimeoutTargetNodeID)
			}
		}
	}

	updated, err := e.persistence.TransitionExecution(ctx, executionID, models.ExecutionStatusWaiting, func(execution *models.WorkflowExecution) error {
		now := time.Now().UTC()
		execution.Status = models.ExecutionStatusExpired
		execution.ExpiresAt = nil
		execution.CompletedAt = &now

		return nil
	})
	if err != nil {
		if persistence.IsStatusConflict(err) {
			e.metrics.TransitionConflicts.Inc()
			e.logger.Debug("expire lost transition race", "execution_id", executionID)
		}

		return err
	}

	e.removeDeadline(ctx, executionID)
	e.metrics.WaitingExecutions.Dec()
	e.metrics.ExecutionsExpired.WithLabelValues(workflow.ID).Inc()
	e.publish(ctx, executionID, events.ExecutionExpired{
		BaseEvent:  events.NewBaseEvent(events.ExecutionExpiredEvent, updated),
		LastNodeID: node.ID,
	})

	e.logger.Info("execution expired", "execution_id", executionID, "node_id", node.ID)

	return nil
}

// resumeAt wakes a WAITING execution directly at a target node, used by the
// GOTO_NODE timeout behavior.
func (e *Engine) resumeAt(ctx context.Context, workflow *models.Workflow, executionID, targetNodeID string) error {
	target := workflow.NodeByID(targetNodeID)
	if target == nil {
		return e.failWithoutRun(ctx, executionID, targetNodeID,
			fmt.Errorf("timeout target node %q not in workflow", targetNodeID))
	}

	updated, err := e.persistence.TransitionExecution(ctx, executionID, models.ExecutionStatusWaiting, func(execution *models.WorkflowExecution) error {
		execution.Status = models.ExecutionStatusRunning
		execution.ExpiresAt = nil
		execution.SetCurrentNode(target.ID)
		execution.InteractionCount++

		return nil
	})
	if err != nil {
		if persistence.IsStatusConflict(err) {
			e.metrics.TransitionConflicts.Inc()
		}

		return err
	}

	e.removeDeadline(ctx, executionID)
	e.metrics.WaitingExecutions.Dec()
	e.metrics.ExecutionsResumed.WithLabelValues(workflow.ID).Inc()
	e.publish(ctx, executionID, events.ExecutionResumed{
		BaseEvent:      events.NewBaseEvent(events.ExecutionResumedEvent, updated),
		PreviousStatus: models.ExecutionStatusWaiting,
		NodeID:         target.ID,
	})

	return e.run(ctx, workflow, updated)
}

// run is the advancement loop. It executes the current node, persists after
// every step, and stops when the execution suspends, terminates, fails, or
// hits the loop guard. Per-execution locking keeps one process from advancing
// the same execution twice concurrently.
func (e *Engine) run(ctx context.Context, workflow *models.Workflow, execution *models.WorkflowExecution) error {
	unlock := e.lock(execution.ID)
	defer unlock()

	maxSteps := loopGuardBase + loopGuardPerInteraction*execution.InteractionCount
	steps := 0

	for execution.Status == models.ExecutionStatusRunning {
		if steps >= maxSteps {
			return e.fail(ctx, workflow, execution, execution.CurrentNode(),
				fmt.Errorf("node execution ceiling of %d steps exceeded", maxSteps))
		}

		node := workflow.NodeByID(execution.CurrentNode())
		if node == nil {
			return e.fail(ctx, workflow, execution, execution.CurrentNode(),
				fmt.Errorf("current node %q not in workflow", execution.CurrentNode()))
		}

		outcome, err := e.executeNode(ctx, execution, node)

		steps++

		if err != nil {
			return e.fail(ctx, workflow, execution, node.ID, err)
		}

		switch outcome.Kind {
		case protocol.OutcomeContinue:
			next, err := e.nextNode(workflow, node, outcome.BranchKey)
			if err != nil {
				return e.fail(ctx, workflow, execution, node.ID, err)
			}

			execution.SetCurrentNode(next.ID)

			err = e.persistence.SaveExecution(ctx, execution)
			if err != nil {
				return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
			}
		case protocol.OutcomeSuspend:
			return e.suspend(ctx, workflow, execution, node, outcome.SuspendFor)
		case protocol.OutcomeTerminate:
			return e.complete(ctx, workflow, execution, outcome.Output)
		default:
			return e.fail(ctx, workflow, execution, node.ID,
				fmt.Errorf("node returned unknown outcome %q", outcome.Kind))
		}
	}

	return nil
}

// executeNode builds the executor and runs it inside a span, reporting
// duration and publishing the node event regardless of result.
func (e *Engine) executeNode(ctx context.Context, execution *models.WorkflowExecution, node *models.WorkflowNode) (protocol.Outcome, error) {
	spanCtx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.node",
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
	)
	defer span.End()

	start := time.Now()

	var outcome protocol.Outcome

	executor, err := e.registry.CreateExecutor(e.deps, node)
	if err == nil {
		outcome, err = executor.Execute(spanCtx, execution.Context)
	}

	duration := time.Since(start)
	result := "ok"

	if err != nil {
		result = "error"

		otelhelper.SetError(span, err)
	}

	e.metrics.NodesExecuted.WithLabelValues(string(node.Type), result).Inc()
	e.metrics.NodeDuration.WithLabelValues(string(node.Type)).Observe(duration.Seconds())
	e.publish(ctx, execution.ID, events.NodeExecuted{
		BaseEvent:  events.NewBaseEvent(events.NodeExecutedEvent, execution),
		NodeID:     node.ID,
		NodeType:   node.Type,
		DurationMs: duration.Milliseconds(),
	})

	return outcome, err
}

// suspend parks the execution as WAITING, indexing the deadline when one is set.
func (e *Engine) suspend(ctx context.Context, workflow *models.Workflow, execution *models.WorkflowExecution, node *models.WorkflowNode, suspendFor time.Duration) error {
	execution.Status = models.ExecutionStatusWaiting

	if suspendFor > 0 {
		expiresAt := time.Now().UTC().Add(suspendFor)
		execution.ExpiresAt = &expiresAt
	}

	err := e.persistence.SaveExecution(ctx, execution)
	if err != nil {
		return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	if execution.ExpiresAt != nil && e.deadlines != nil {
		err = e.deadlines.Add(ctx, execution.ID, *execution.ExpiresAt)
		if err != nil {
			// The scheduler rebuilds its index from WAITING executions, so a
			// failed Add delays this expiry until the next rebuild.
			e.logger.Warn("failed to index execution deadline",
				"execution_id", execution.ID, "error", err)
		}
	}

	e.metrics.WaitingExecutions.Inc()
	e.publish(ctx, execution.ID, events.ExecutionWaiting{
		BaseEvent:      events.NewBaseEvent(events.ExecutionWaitingEvent, execution),
		NodeID:         node.ID,
		TimeoutSeconds: int(suspendFor / time.Second),
	})

	e.logger.Info("execution waiting",
		"execution_id", execution.ID,
		"node_id", node.ID,
		"expires_at", execution.ExpiresAt)

	return nil
}

// complete marks the execution COMPLETED with its final output.
func (e *Engine) complete(ctx context.Context, workflow *models.Workflow, execution *models.WorkflowExecution, output map[string]any) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.CompletedAt = &now
	execution.Output = output

	err := e.persistence.SaveExecution(ctx, execution)
	if err != nil {
		return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	e.metrics.ExecutionsCompleted.WithLabelValues(workflow.ID).Inc()
	e.publish(ctx, execution.ID, events.ExecutionCompleted{
		BaseEvent: events.NewBaseEvent(events.ExecutionCompletedEvent, execution),
		Output:    output,
	})

	e.logger.Info("execution completed", "execution_id", execution.ID)

	return nil
}

// fail marks the execution ERROR. The node error is recorded on the execution
// and returned so callers can log it; the execution itself is final.
func (e *Engine) fail(ctx context.Context, workflow *models.Workflow, execution *models.WorkflowExecution, nodeID string, cause error) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusError
	execution.CompletedAt = &now
	execution.Error = cause.Error()

	err := e.persistence.SaveExecution(ctx, execution)
	if err != nil {
		return errors.Join(cause, fmt.Errorf("failed to persist execution %s: %w", execution.ID, err))
	}

	e.metrics.ExecutionsFailed.WithLabelValues(workflow.ID).Inc()
	e.publish(ctx, execution.ID, events.ExecutionFailed{
		BaseEvent:  events.NewBaseEvent(events.ExecutionFailedEvent, execution),
		Error:      cause.Error(),
		LastNodeID: nodeID,
	})

	e.logger.Error("execution failed",
		"execution_id", execution.ID,
		"node_id", nodeID,
		"error", cause)

	return cause
}

// failWithoutRun fails an execution that is still WAITING, used when a resume
// cannot even determine where to continue.
func (e *Engine) failWithoutRun(ctx context.Context, executionID, nodeID string, cause error) error {
	updated, err := e.persistence.TransitionExecution(ctx, executionID, models.ExecutionStatusWaiting, func(execution *models.WorkflowExecution) error {
		now := time.Now().UTC()
		execution.Status = models.ExecutionStatusError
		execution.ExpiresAt = nil
		execution.CompletedAt = &now
		execution.Error = cause.Error()

		return nil
	})
	if err != nil {
		return err
	}

	e.removeDeadline(ctx, executionID)
	e.metrics.WaitingExecutions.Dec()
	e.metrics.ExecutionsFailed.WithLabelValues(updated.WorkflowID).Inc()
	e.publish(ctx, executionID, events.ExecutionFailed{
		BaseEvent:  events.NewBaseEvent(events.ExecutionFailedEvent, updated),
		Error:      cause.Error(),
		LastNodeID: nodeID,
	})

	return cause
}

// nextNode resolves the outgoing edge for a branch key. An empty key prefers
// the unlabeled edge and accepts a single labeled one; a named key must match
// exactly one edge.
func (e *Engine) nextNode(workflow *models.Workflow, node *models.WorkflowNode, branchKey string) (*models.WorkflowNode, error) {
	edges := workflow.OutgoingEdges(node.ID)
	if len(edges) == 0 {
		return nil, fmt.Errorf("node %s has no outgoing edge", node.ID)
	}

	var chosen *models.WorkflowEdge

	if branchKey == "" {
		for _, edge := range edges {
			if edge.BranchKey() == "" {
				chosen = edge

				break
			}
		}

		if chosen == nil && len(edges) == 1 {
			chosen = edges[0]
		}
	} else {
		for _, edge := range edges {
			if edge.BranchKey() == branchKey {
				chosen = edge

				break
			}
		}
	}

	if chosen == nil {
		return nil, fmt.Errorf("node %s: no matching edge for key %q", node.ID, branchKey)
	}

	target := workflow.NodeByID(chosen.Target)
	if target == nil {
		return nil, fmt.Errorf("node %s: edge %s targets missing node %q", node.ID, chosen.ID, chosen.Target)
	}

	return target, nil
}

// replySaveAs extracts the saveAs variable name when the node captures replies.
func replySaveAs(node *models.WorkflowNode) string {
	if node.Type != models.NodeTypeWaitReply {
		return ""
	}

	config, err := node.DecodeConfig()
	if err != nil {
		return ""
	}

	waitConfig, ok := config.(*models.WaitReplyConfig)
	if !ok {
		return ""
	}

	return waitConfig.SaveAs
}

// publish sends a lifecycle event, logging instead of failing on error.
func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	err := e.eventBus.Publish(ctx, key, event)
	if err != nil {
		e.logger.Warn("failed to publish event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}

func (e *Engine) removeDeadline(ctx context.Context, executionID string) {
	if e.deadlines == nil {
		return
	}

	err := e.deadlines.Remove(ctx, executionID)
	if err != nil {
		e.logger.Warn("failed to remove execution deadline",
			"execution_id", executionID, "error", err)
	}
}

// lock acquires the per-execution advancement mutex.
func (e *Engine) lock(executionID string) func() {
	e.mu.Lock()

	m, ok := e.locks[executionID]
	if !ok {
		m = &sync.Mutex{}
		e.locks[executionID] = m
	}

	e.mu.Unlock()
	m.Lock()

	return m.Unlock
}
