// Package eventbus provides the outbound event channel the engine publishes
// lifecycle notifications to. Publishing is fire-and-forget: the engine never
// depends on subscribers.
package eventbus

import (
	"context"

	"github.com/zapflowhq/zapflow/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventHandler func(ctx context.Context, event any) error

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
