package notifications

import (
	"context"
	"errors"
	"strings"

	"homigo/pkg/kafka"
	"homigo/pkg/logger"
)

const (
	EventTypeEmail     = "notification.email"
	emailSchemaVersion = "1"
	eventSource        = "homigo-bookings"
)

var ErrNoRecipient = errors.New("notification has no recipient")

// Dispatcher hands a message to the outbound mail system. Callers treat
// failures as best effort.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogDispatcher only records the message. It is the default for local runs.
type LogDispatcher struct {
	log *logger.Logger
}

func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Send(_ context.Context, to, subject, body string) error {
	if to == "" {
		return ErrNoRecipient
	}
	d.log.Info("Notification dispatched", "to", maskEmail(to), "subject", subject, "body_length", len(body))
	return nil
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}

// Publisher is the part of the Kafka producer the dispatcher needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// EmailEvent is the payload consumed by the mail delivery service.
type EmailEvent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// KafkaDispatcher publishes email requests for the external mail service.
type KafkaDispatcher struct {
	publisher Publisher
}

func NewKafkaDispatcher(publisher Publisher) *KafkaDispatcher {
	return &KafkaDispatcher{publisher: publisher}
}

func (d *KafkaDispatcher) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return ErrNoRecipient
	}
	msg := kafka.NewMessage().
		WithKey(to).
		WithValue(EmailEvent{To: to, Subject: subject, Body: body}).
		WithEventType(EventTypeEmail).
		WithSchemaVersion(emailSchemaVersion).
		WithSource(eventSource).
		Build()

	return d.publisher.Publish(ctx, msg)
}
