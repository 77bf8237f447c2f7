// Package kafka provides an Apache Kafka event bus for run lifecycle events.
package kafka

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/longytravel/simpleEA/pkg/eventbus"
	"github.com/longytravel/simpleEA/pkg/events"
)

type kafkaEventBus struct {
	logger   *slog.Logger
	writer   *kafkago.Writer
	reader   *kafkago.Reader
	handlers map[events.EventType]eventbus.EventHandler
}

func NewEventBus(logger *slog.Logger) (eventbus.EventBus, error) {
	brokersStr := os.Getenv("KAFKA_BROKERS")

	splitBrokers := strings.Split(brokersStr, ",")
	if len(splitBrokers) == 0 || (len(splitBrokers) == 1 && splitBrokers[0] == "") {
		return nil, errors.New("no Kafka brokers configured")
	}

	writer := kafkago.NewWriter(kafkago.WriterConfig{
		Brokers: splitBrokers,
		Topic:   events.Topic,
	})

	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "cg-simpleea-event-bus"
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: splitBrokers,
		Topic:   events.Topic,
		GroupID: groupID,
	})

	return &kafkaEventBus{
		logger:   logger,
		writer:   writer,
		reader:   reader,
		handlers: make(map[events.EventType]eventbus.EventHandler),
	}, nil
}

func (k *kafkaEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	return publishEvent(ctx, k.logger, k.writer, key, event)
}

func (k *kafkaEventBus) Subscribe(ctx context.Context) error {
	k.logger.InfoContext(ctx, "Subscribing to run events")

	tracer := otel.Tracer("simpleea-eventbus")

	go consumeEvents(ctx, k.logger, k.reader, tracer, k.handlers)

	return nil
}

func (k *kafkaEventBus) Close() error {
	if err := k.writer.Close(); err != nil {
		k.logger.Error("Failed to close Kafka writer", "error", err)

		return err
	}

	if err := k.reader.Close(); err != nil {
		k.logger.Error("Failed to close Kafka reader", "error", err)

		return err
	}

	return nil
}

func (k *kafkaEventBus) GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func (k *kafkaEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	k.handlers[eventType] = handler

	return nil
}
