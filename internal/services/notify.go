package services

import (
	"context"
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/queue"
	"github.com/zigopay/cargo-gateway/pkg/logger"
)

// NotificationPublisher emits events after a financial operation
// commits. Implementations must be best-effort: a publish failure is
// logged and swallowed, never surfaced to the caller.
type NotificationPublisher interface {
	Publish(ctx context.Context, event model.NotificationEvent)
}

// QueuePublisher publishes notification events onto the redis stream
// consumed by the notifier process.
type QueuePublisher struct {
	queue *queue.Queue
}

func NewQueuePublisher(q *queue.Queue) *QueuePublisher {
	return &QueuePublisher{queue: q}
}

func (p *QueuePublisher) Publish(ctx context.Context, event model.NotificationEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	_, err := p.queue.PublishJSON(ctx, event, map[string]string{
		"kind": string(event.Kind),
	})
	if err != nil {
		logger.Error("Failed to publish notification event", "error", err, "kind", string(event.Kind), "customer_id", event.CustomerID)
	}
}

// NopPublisher discards events. Used in tests and when the stream is
// not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event model.NotificationEvent) {}
