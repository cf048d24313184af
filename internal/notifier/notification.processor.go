package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/queue"
	"github.com/zigopay/cargo-gateway/pkg/logger"
	"github.com/zigopay/cargo-gateway/pkg/prom"
)

// Dispatcher is the outbound channel the processor pushes rendered
// notifications through.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *model.NotificationEvent) error
}

type NotificationProcessor struct {
	dispatcher  Dispatcher
	idempotency *IdempotencyService
}

func NewNotificationProcessor(dispatcher Dispatcher, idempotency *IdempotencyService) *NotificationProcessor {
	return &NotificationProcessor{
		dispatcher:  dispatcher,
		idempotency: idempotency,
	}
}

func (p *NotificationProcessor) GetType() string {
	return "notification"
}

// Process delivers one queued event with at-most-once customer impact:
// a redelivered stream entry that was already dispatched is ACKed
// without touching the webhook again.
func (p *NotificationProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	// Step 1: Parse event
	var event model.NotificationEvent
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("Failed to unmarshal notification event", "error", err)
		prom.IncNotificationDispatched("unknown", "invalid")
		return err // Return error to trigger DLQ move
	}

	eventID := queueMessage.ID

	// Step 2: Acquire dispatch lock and check idempotency
	dispCtx, err := p.idempotency.AcquireDispatchLock(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrAlreadyDispatched) {
			// Event already delivered - ACK to remove from queue
			logger.Info("Event already dispatched, skipping", "event_id", eventID)
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			// Max retries exceeded - give up on this event and ACK
			logger.Error("Max retries exceeded", "event_id", eventID, "kind", event.Kind)
			prom.IncNotificationDispatched(string(event.Kind), "dropped")
			return nil // ACK to move to DLQ
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// Another consumer is dispatching - NACK to retry later
			logger.Info("Lock held by another consumer, will retry", "event_id", eventID)
			return errors.New("lock held by another consumer")
		}
		// Unexpected error - NACK to retry
		logger.Error("Failed to acquire lock", "event_id", eventID, "error", err)
		return err
	}

	// Ensure lock is released on exit (if not already marked success/failure)
	defer func() {
		if dispCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, dispCtx)
		}
	}()

	logger.Info("Dispatching notification",
		"event_id", eventID,
		"kind", event.Kind,
		"customer_id", event.CustomerID,
		"retry_count", dispCtx.RetryCount,
		"is_retry", dispCtx.IsRetry)

	// Step 3: Push to the webhook endpoint
	start := time.Now()
	if err := p.dispatcher.Dispatch(ctx, &event); err != nil {
		// Step 4a: Dispatch failed - mark failure and retry
		logger.Error("Failed to dispatch notification", "event_id", eventID, "kind", event.Kind, "error", err)
		prom.IncNotificationDispatched(string(event.Kind), "failed")
		if markErr := p.idempotency.MarkFailure(ctx, dispCtx, err); markErr != nil {
			logger.Error("Failed to mark failure", "event_id", eventID, "error", markErr)
		}
		return err // NACK to retry from queue
	}

	// Step 4b: Dispatch succeeded - record metrics and mark success
	prom.AddNotificationDispatchDuration(time.Since(start).Seconds(), string(event.Kind))
	prom.IncNotificationDispatched(string(event.Kind), "delivered")

	logger.Info("Notification dispatched",
		"event_id", eventID,
		"kind", event.Kind,
		"customer_id", event.CustomerID,
		"retry_count", dispCtx.RetryCount)

	if markErr := p.idempotency.MarkSuccess(ctx, dispCtx); markErr != nil {
		logger.Error("Failed to mark success", "event_id", eventID, "error", markErr)
		// Continue - the notification went out
	}

	return nil // ACK message
}
