package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/queue"
)

type mockDispatcher struct {
	calls  int
	err    error
	events []*model.NotificationEvent
}

func (m *mockDispatcher) Dispatch(ctx context.Context, event *model.NotificationEvent) error {
	m.calls++
	m.events = append(m.events, event)
	return m.err
}

func makeQueueMessage(t *testing.T, id string, event model.NotificationEvent) *queue.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &queue.Message{ID: id, Data: data}
}

func TestNotificationProcessor_Process(t *testing.T) {
	dispatcher := &mockDispatcher{}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	processor := NewNotificationProcessor(dispatcher, idem)
	ctx := context.Background()

	msg := makeQueueMessage(t, "1700000000000-0", model.NotificationEvent{
		Kind:           model.NotifyPaymentCompleted,
		CustomerID:     1,
		TrackingNumber: "ZP-2026-AABBCCDD",
		ControlNumber:  "ZP-260115-A1B2C3",
		Amount:         30_000,
	})

	err := processor.Process(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, model.NotifyPaymentCompleted, dispatcher.events[0].Kind)

	dispatched, err := idem.IsDispatched(ctx, "1700000000000-0")
	require.NoError(t, err)
	assert.True(t, dispatched)
}

func TestNotificationProcessor_Process_Redelivery(t *testing.T) {
	dispatcher := &mockDispatcher{}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	processor := NewNotificationProcessor(dispatcher, idem)
	ctx := context.Background()

	msg := makeQueueMessage(t, "1700000000000-1", model.NotificationEvent{
		Kind:       model.NotifyReleaseOrderIssued,
		CustomerID: 1,
	})

	require.NoError(t, processor.Process(ctx, msg))

	// A redelivered stream entry must not hit the webhook again.
	require.NoError(t, processor.Process(ctx, msg))
	assert.Equal(t, 1, dispatcher.calls)
}

func TestNotificationProcessor_Process_DispatchFailure(t *testing.T) {
	dispatcher := &mockDispatcher{err: errors.New("endpoint down")}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	processor := NewNotificationProcessor(dispatcher, idem)
	ctx := context.Background()

	msg := makeQueueMessage(t, "1700000000000-2", model.NotificationEvent{
		Kind:       model.NotifyInvoiceCreated,
		CustomerID: 1,
	})

	err := processor.Process(ctx, msg)
	assert.Error(t, err)

	count, err := idem.GetRetryCount(ctx, "1700000000000-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	dispatched, err := idem.IsDispatched(ctx, "1700000000000-2")
	require.NoError(t, err)
	assert.False(t, dispatched)
}

func TestNotificationProcessor_Process_DroppedAfterMaxRetries(t *testing.T) {
	dispatcher := &mockDispatcher{err: errors.New("endpoint down")}
	config := DefaultIdempotencyConfig()
	config.MaxRetries = 2
	idem := NewIdempotencyService(newMockRedisAdapter(), config)
	processor := NewNotificationProcessor(dispatcher, idem)
	ctx := context.Background()

	msg := makeQueueMessage(t, "1700000000000-3", model.NotificationEvent{
		Kind:       model.NotifyInvoiceCreated,
		CustomerID: 1,
	})

	assert.Error(t, processor.Process(ctx, msg))
	assert.Error(t, processor.Process(ctx, msg))

	// Retries exhausted: the event is ACKed away, not retried forever.
	err := processor.Process(ctx, msg)
	assert.NoError(t, err)
	assert.Equal(t, 2, dispatcher.calls)
}

func TestNotificationProcessor_Process_InvalidPayload(t *testing.T) {
	dispatcher := &mockDispatcher{}
	idem := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	processor := NewNotificationProcessor(dispatcher, idem)

	err := processor.Process(context.Background(), &queue.Message{ID: "bad-1", Data: []byte("not json")})
	assert.Error(t, err)
	assert.Zero(t, dispatcher.calls)
}

func TestRenderMessage(t *testing.T) {
	event := &model.NotificationEvent{
		Kind:           model.NotifyInvoiceCreated,
		TrackingNumber: "ZP-2026-AABBCCDD",
		ControlNumber:  "ZP-260115-A1B2C3",
		Amount:         30_000,
	}
	msg := RenderMessage(event)
	assert.Contains(t, msg, "ZP-2026-AABBCCDD")
	assert.Contains(t, msg, "ZP-260115-A1B2C3")
	assert.Contains(t, msg, "300.00")

	event.Kind = model.NotifyReleaseOrderRedeemed
	event.ReleaseCode = "RO-260115-D4E5F6"
	assert.Contains(t, RenderMessage(event), "RO-260115-D4E5F6")
}
