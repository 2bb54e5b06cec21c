package kafka_middleware

import (
	"context"
	"time"

	"homigo/pkg/kafka"
	"homigo/pkg/logger"
)

// LoggingProducerMiddleware logs message publishing operations. Keys may carry
// personal data and are not logged.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		args := []any{
			"topic", msg.Topic,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Error("Failed to publish Kafka message", append(args, "error", err)...)
		} else {
			log.Debug("Published Kafka message", args...)
		}

		return err
	}
}
