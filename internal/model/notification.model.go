package model

import "time"

type NotificationKind string

const (
	NotifyInvoiceCreated       NotificationKind = "invoice_created"
	NotifyPaymentCompleted     NotificationKind = "payment_completed"
	NotifyReleaseOrderIssued   NotificationKind = "release_order_issued"
	NotifyReleaseOrderRedeemed NotificationKind = "release_order_redeemed"
)

// NotificationEvent is the fire-and-forget payload published to the
// notification stream after a financial operation commits. Delivery is
// best-effort and never affects the operation that produced it.
type NotificationEvent struct {
	Kind           NotificationKind `json:"kind"`
	CustomerID     int64            `json:"customer_id"`
	CargoID        int64            `json:"cargo_id,omitempty"`
	TrackingNumber string           `json:"tracking_number,omitempty"`
	ControlNumber  string           `json:"control_number,omitempty"`
	ReleaseCode    string           `json:"release_code,omitempty"`
	Amount         Cents            `json:"amount,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}
