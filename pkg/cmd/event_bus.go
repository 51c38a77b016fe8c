package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/zapflowhq/zapflow/pkg/channels/gochannel"
	"github.com/zapflowhq/zapflow/pkg/channels/kafka"
	"github.com/zapflowhq/zapflow/pkg/eventbus"
)

// NewEventBus creates the lifecycle event bus. Kafka is used for multi-process
// deployments; the default in-process go channel suits single binaries and
// tests.
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, "zapflow")
		if err != nil {
			return nil, fmt.Errorf("create kafka channel: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("create gochannel: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
