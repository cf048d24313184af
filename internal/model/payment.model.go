package model

import (
	"errors"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

const (
	PaymentMethodMobileMoney = "mobile_money"
	PaymentMethodBank        = "bank"
	PaymentMethodCash        = "cash"
	PaymentMethodWallet      = "wallet"
)

type Payment struct {
	ID          int64         `json:"id"`
	InvoiceID   int64         `json:"invoice_id"`
	AmountPaid  Cents         `json:"amount_paid"`
	Reference   string        `json:"reference"`
	Method      string        `json:"method"`
	Status      PaymentStatus `json:"status"`
	ProcessedBy int64         `json:"processed_by"`
	ProcessedAt time.Time     `json:"processed_at"`
	CreatedAt   time.Time     `json:"created_at"`
}

type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

const (
	TransactionTypeCargoPayment = "cargo_payment"
	TransactionTypeRefund       = "refund"
)

// Transaction mirrors the outcome of a Payment and is immutable once
// written.
type Transaction struct {
	ID        int64             `json:"id"`
	PaymentID int64             `json:"payment_id"`
	Type      string            `json:"type"`
	Amount    Cents             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    TransactionStatus `json:"status"`
	Reference string            `json:"reference"`
	Details   []byte            `json:"details,omitempty"` // opaque JSON payload
	CreatedBy int64             `json:"created_by"`
	CreatedAt time.Time         `json:"created_at"`
}

type ReleaseOrderStatus string

const (
	ReleaseOrderStatusActive  ReleaseOrderStatus = "active"
	ReleaseOrderStatusUsed    ReleaseOrderStatus = "used"
	ReleaseOrderStatusExpired ReleaseOrderStatus = "expired" // declared, never written
)

// ReleaseOrder is a single-use collection authorization minted after a
// completed payment.
type ReleaseOrder struct {
	ID          int64              `json:"id"`
	CargoID     int64              `json:"cargo_id"`
	PaymentID   int64              `json:"payment_id"`
	ReleaseCode string             `json:"release_code"`
	Status      ReleaseOrderStatus `json:"status"`
	GeneratedBy int64              `json:"generated_by"`
	GeneratedAt time.Time          `json:"generated_at"`
	UsedAt      *time.Time         `json:"used_at,omitempty"`
}

// PaymentProcessRequest is the input for manual payment submission.
// The control number authenticates the caller against the invoice.
type PaymentProcessRequest struct {
	InvoiceID     int64
	ControlNumber string
	Amount        Cents
	Method        string
	Reference     string
	Details       []byte
	ActorID       int64
}

func (p PaymentProcessRequest) Validate() error {
	if p.InvoiceID == 0 {
		return errors.New("invoice_id is required")
	}
	if p.ControlNumber == "" {
		return errors.New("control_number is required")
	}
	if p.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	switch p.Method {
	case PaymentMethodMobileMoney, PaymentMethodBank, PaymentMethodCash, PaymentMethodWallet:
	default:
		return errors.New("unknown payment method")
	}
	return nil
}
