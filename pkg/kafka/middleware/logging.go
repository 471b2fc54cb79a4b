package kafka_middleware

import (
	"context"
	"time"

	"studiobook/pkg/kafka"
	"studiobook/pkg/logger"
)

// LoggingProducerMiddleware logs the outcome of every publish.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Error("Failed to publish message", append(attrs, "transient", kafka.IsTransient(err), "error", err)...)
		} else {
			log.Debug("Published message", attrs...)
		}

		return err
	}
}
