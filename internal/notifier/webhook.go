package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/zigopay/cargo-gateway/internal/model"
)

var ErrWebhookRejected = errors.New("webhook endpoint rejected the notification")

// WebhookConfig configures the outbound notification endpoint.
type WebhookConfig struct {
	URL      string
	Timeout  time.Duration
	MaxConns int
}

// WebhookDispatcher pushes rendered notifications to the customer-facing
// webhook endpoint.
type WebhookDispatcher struct {
	config WebhookConfig
	client *fasthttp.Client
}

func NewWebhookDispatcher(config WebhookConfig) (*WebhookDispatcher, error) {
	if config.URL == "" {
		return nil, errors.New("webhook URL is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 100
	}

	return &WebhookDispatcher{
		config: config,
		client: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}, nil
}

type webhookPayload struct {
	Kind           model.NotificationKind `json:"kind"`
	CustomerID     int64                  `json:"customer_id"`
	TrackingNumber string                 `json:"tracking_number,omitempty"`
	Message        string                 `json:"message"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *model.NotificationEvent) error {
	payload := webhookPayload{
		Kind:           event.Kind,
		CustomerID:     event.CustomerID,
		TrackingNumber: event.TrackingNumber,
		Message:        RenderMessage(event),
		OccurredAt:     event.OccurredAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.config.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline := time.Now().Add(d.config.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := d.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK && status != fasthttp.StatusAccepted {
		return fmt.Errorf("%w: status %d", ErrWebhookRejected, status)
	}
	return nil
}

// RenderMessage formats the customer-facing text for an event.
func RenderMessage(event *model.NotificationEvent) string {
	switch event.Kind {
	case model.NotifyInvoiceCreated:
		return fmt.Sprintf("Your cargo %s has arrived. Invoice %s for %s is now due.",
			event.TrackingNumber, event.ControlNumber, event.Amount)
	case model.NotifyPaymentCompleted:
		return fmt.Sprintf("Payment of %s received for cargo %s (invoice %s).",
			event.Amount, event.TrackingNumber, event.ControlNumber)
	case model.NotifyReleaseOrderIssued:
		return fmt.Sprintf("Release order %s issued for cargo %s. Present this code at collection.",
			event.ReleaseCode, event.TrackingNumber)
	case model.NotifyReleaseOrderRedeemed:
		return fmt.Sprintf("Cargo %s was collected with release order %s.",
			event.TrackingNumber, event.ReleaseCode)
	default:
		return fmt.Sprintf("Update for cargo %s.", event.TrackingNumber)
	}
}
