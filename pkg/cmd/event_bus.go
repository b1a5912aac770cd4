package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/mohamedadel0806/stratagem/pkg/channels/gochannel"
	"github.com/mohamedadel0806/stratagem/pkg/channels/kafka"
	"github.com/mohamedadel0806/stratagem/pkg/eventbus"
)

// NewEventBus creates an event bus instance based on the provider. "none"
// returns nil, which makes the engine execute synchronously.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, "stratagem")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub, wmLogger)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			panic(fmt.Errorf("failed to create in-process pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub, wmLogger)
	case "none", "":
		return nil
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
