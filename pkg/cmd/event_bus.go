package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/longytravel/simpleEA/pkg/channels/gochannel"
	kafkachannel "github.com/longytravel/simpleEA/pkg/channels/kafka"
	"github.com/longytravel/simpleEA/pkg/eventbus"
	kafkabus "github.com/longytravel/simpleEA/pkg/eventbus/kafka"
)

// NewEventBus creates an event bus for the given provider. The in-memory
// channel is the default so a single-process evaluation needs no broker.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-memory pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "kafka":
		pub, sub, err := kafkachannel.CreateChannel(watermill.NewSlogLogger(logger), "simpleea")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}

// NewNotificationBus creates the external notification bus used to mirror run
// lifecycle events to downstream consumers over Kafka.
func NewNotificationBus(logger *slog.Logger) eventbus.EventBus {
	bus, err := kafkabus.NewEventBus(logger)
	if err != nil {
		panic(fmt.Errorf("failed to create Kafka notification bus: %w", err))
	}

	return bus
}
