package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeBookingEvent is the asynq task type consumed by the external
// notification worker. The engine only publishes; it never sends
// notifications itself.
const TypeBookingEvent = "booking:event"

// Event types emitted by the engine.
const (
	EventBookingCreated = "booking_created"
	EventStatusChanged  = "status_changed"
	EventPaymentChanged = "payment_status_changed"
	EventGroupCreated   = "group_created"
	EventGroupUpdated   = "group_updated"
	EventGroupDeleted   = "group_deleted"
)

// BookingEvent is the payload enqueued for the notification worker.
type BookingEvent struct {
	Type       string            `json:"type"`
	BookingID  string            `json:"booking_id,omitempty"`
	GroupID    string            `json:"group_id,omitempty"`
	Detail     map[string]string `json:"detail,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Publisher emits booking lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, evt BookingEvent) error
}

// AsynqPublisher enqueues booking events on the Redis-backed task queue.
type AsynqPublisher struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewAsynqPublisher builds a Publisher over the given Redis connection.
func NewAsynqPublisher(opt asynq.RedisClientOpt, logger *zap.Logger) *AsynqPublisher {
	return &AsynqPublisher{
		client: asynq.NewClient(opt),
		logger: logger,
	}
}

// Publish enqueues the event. Failures are returned for logging but must not
// fail the booking operation that produced the event.
func (p *AsynqPublisher) Publish(ctx context.Context, evt BookingEvent) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	task := asynq.NewTask(TypeBookingEvent, payload)
	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue booking event: %w", err)
	}
	p.logger.Debug("booking event published",
		zap.String("type", evt.Type),
		zap.String("bookingId", evt.BookingID),
		zap.String("groupId", evt.GroupID),
	)
	return nil
}

// Close releases the underlying queue client.
func (p *AsynqPublisher) Close() error {
	return p.client.Close()
}
