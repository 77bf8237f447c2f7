package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/longytravel/simpleEA/pkg/eventbus"
	"github.com/longytravel/simpleEA/pkg/events"
	"github.com/longytravel/simpleEA/pkg/otelhelper"
)

func consumeEvents(
	ctx context.Context,
	logger *slog.Logger,
	reader *kafkago.Reader,
	tracer trace.Tracer,
	handlers map[events.EventType]eventbus.EventHandler,
) {
	for {
		message, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.InfoContext(ctx, "Stopping consumer due to context cancellation or deadline exceeded")

				break
			}

			logger.ErrorContext(ctx, "failed to fetch message", "error", err)

			continue
		}

		var eventType events.EventType

		carrier := propagation.MapCarrier{}
		for _, header := range message.Headers {
			if header.Key == events.EventTypeMetadataKey {
				eventType = events.EventType(header.Value)
			} else {
				carrier[header.Key] = string(header.Value)
			}
		}

		propagator := otel.GetTextMapPropagator()
		msgCtx := propagator.Extract(ctx, carrier)

		traceCtx, span := otelhelper.StartSpan(msgCtx, tracer, "eventbus.consumer consume",
			attribute.String("kafka.key", string(message.Key)),
			attribute.String("kafka.topic", message.Topic),
		)

		logger.InfoContext(msgCtx, "Processing message", "event_type", eventType)

		handler, exists := handlers[eventType]
		if !exists {
			span.End()

			err := reader.CommitMessages(ctx, message)
			if err != nil {
				logger.ErrorContext(msgCtx, "Failed to commit message", "error", err)
			}

			continue
		}

		var event any

		switch eventType {
		case events.RunCreatedEvent:
			event = &events.RunCreated{}
		case events.RunCompletedEvent:
			event = &events.RunCompleted{}
		case events.StepStartedEvent:
			event = &events.StepStarted{}
		case events.StepPassedEvent:
			event = &events.StepPassed{}
		case events.StepFailedEvent:
			event = &events.StepFailed{}
		case events.PostStepRecordedEvent:
			event = &events.PostStepRecorded{}
		default:
			logger.ErrorContext(msgCtx, "Unknown event type", "event_type", eventType)
			otelhelper.SetError(span, errors.New("unknown event type"))
			span.End()

			err := reader.CommitMessages(ctx, message)
			if err != nil {
				logger.ErrorContext(msgCtx, "Failed to commit message", "error", err)
			}

			continue
		}

		err = json.Unmarshal(message.Value, event)
		if err != nil {
			logger.ErrorContext(msgCtx, "Failed to unmarshal event", "error", err, "event_type", eventType)
			otelhelper.SetError(span, err)
			span.End()

			err := reader.CommitMessages(ctx, message)
			if err != nil {
				logger.ErrorContext(msgCtx, "Failed to commit message", "error", err)
			}

			continue
		}

		handlerErr := handler(traceCtx, event)
		if handlerErr != nil {
			logger.ErrorContext(msgCtx, "Failed to handle event", "error", handlerErr, "event_type", eventType)
			otelhelper.SetError(span, handlerErr)
			span.End()

			err := reader.CommitMessages(ctx, message)
			if err != nil {
				logger.ErrorContext(msgCtx, "Failed to commit message", "error", err)
			}

			continue
		}

		span.AddEvent("event_handled", trace.WithAttributes())
		span.End()

		err = reader.CommitMessages(ctx, message)
		if err != nil {
			logger.ErrorContext(msgCtx, "Failed to commit message", "error", err)
		}
	}
}
