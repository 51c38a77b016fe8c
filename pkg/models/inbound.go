package models

import "time"

// TriggerSignal distinguishes why an inbound event was produced.
type TriggerSignal string

const (
	SignalMessage  TriggerSignal = "message"
	SignalSchedule TriggerSignal = "schedule"
	SignalManual   TriggerSignal = "manual"
)

// InboundEvent is an event arriving from the messaging channel (or from the
// schedule runner / a manual trigger). It either starts new executions via the
// trigger matcher or resumes a waiting one.
type InboundEvent struct {
	SessionID  string         `json:"sessionId"`
	ContactID  string         `json:"contactId"`
	Text       string         `json:"text,omitempty"`
	Signal     TriggerSignal  `json:"signal"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflowId,omitempty"` // set for schedule/manual signals
	Payload    map[string]any `json:"payload,omitempty"`
}

// InputPayload returns the event as the execution's context.input mapping.
func (ev *InboundEvent) InputPayload() map[string]any {
	input := map[string]any{
		"sessionId": ev.SessionID,
		"contactId": ev.ContactID,
		"signal":    string(ev.Signal),
		"timestamp": ev.Timestamp.UTC().Format(time.RFC3339),
	}

	if ev.Text != "" {
		input["text"] = ev.Text
	}

	for k, v := range ev.Payload {
		input[k] = v
	}

	return input
}
