package model

import (
	"errors"
	"time"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type Invoice struct {
	ID            int64         `json:"id"`
	CargoID       int64         `json:"cargo_id"`
	ControlNumber string        `json:"control_number"`
	Amount        Cents         `json:"amount"`
	Currency      string        `json:"currency"`
	DueDate       time.Time     `json:"due_date"`
	Status        InvoiceStatus `json:"status"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	CreatedBy     int64         `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsOverdue is a read-time derivation; the stored status never
// transitions to "overdue".
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusPending && i.DueDate.Before(now)
}

// InvoiceGenerateRequest is the input for manual invoice creation,
// bypassing the arrival-time default amount.
type InvoiceGenerateRequest struct {
	CargoID int64
	Amount  Cents
	ActorID int64
}

func (p InvoiceGenerateRequest) Validate() error {
	if p.CargoID == 0 {
		return errors.New("cargo_id is required")
	}
	if p.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

type InvoiceFilter struct {
	CargoID *int64
	Status  *InvoiceStatus
	Limit   int
	Offset  int
	Desc    bool
}
