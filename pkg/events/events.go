// Package events defines event types for execution lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/zapflowhq/zapflow/pkg/models"
)

type EventType string

// Topic carries every lifecycle event. Consumers filter by event type metadata.
const Topic = "zapflow.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionResumedEvent   EventType = "execution.resumed"
	ExecutionWaitingEvent   EventType = "execution.waiting"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionExpiredEvent   EventType = "execution.expired"
	ExecutionFailedEvent    EventType = "execution.failed"
	NodeExecutedEvent       EventType = "execution.node.executed"
	InboundReceivedEvent    EventType = "channel.inbound"
)

type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	TenantID    string    `json:"tenantId"`
	WorkflowID  string    `json:"workflowId"`
	ExecutionID string    `json:"executionId"`
}

func NewBaseEvent(eventType EventType, execution *models.WorkflowExecution) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		TenantID:    execution.TenantID,
		WorkflowID:  execution.WorkflowID,
		ExecutionID: execution.ID,
	}
}

type ExecutionStarted struct {
	BaseEvent

	TriggerNodeID string         `json:"triggerNodeId"`
	Input         map[string]any `json:"input,omitempty"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionResumed struct {
	BaseEvent

	PreviousStatus models.ExecutionStatus `json:"previousStatus"`
	NodeID         string                 `json:"nodeId"`
}

func (e ExecutionResumed) GetType() EventType { return ExecutionResumedEvent }

type ExecutionWaiting struct {
	BaseEvent

	NodeID         string `json:"nodeId"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

func (e ExecutionWaiting) GetType() EventType { return ExecutionWaitingEvent }

type ExecutionCompleted struct {
	BaseEvent

	Output map[string]any `json:"output,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionExpired struct {
	BaseEvent

	LastNodeID string `json:"lastNodeId"`
}

func (e ExecutionExpired) GetType() EventType { return ExecutionExpiredEvent }

type ExecutionFailed struct {
	BaseEvent

	Error      string `json:"error"`
	LastNodeID string `json:"lastNodeId"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type NodeExecuted struct {
	BaseEvent

	NodeID     string          `json:"nodeId"`
	NodeType   models.NodeType `json:"nodeType"`
	DurationMs int64           `json:"durationMs"`
}

func (e NodeExecuted) GetType() EventType { return NodeExecutedEvent }

// InboundReceived carries one inbound channel event from the API webhook to
// the worker that processes it.
type InboundReceived struct {
	ID        string               `json:"id"`
	Timestamp time.Time            `json:"timestamp"`
	Event     *models.InboundEvent `json:"event"`
}

func NewInboundReceived(event *models.InboundEvent) InboundReceived {
	return InboundReceived{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Event:     event,
	}
}

func (e InboundReceived) GetType() EventType { return InboundReceivedEvent }
