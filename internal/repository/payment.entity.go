package repository

import (
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
)

type PaymentEntity struct {
	ID          int64     `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	InvoiceID   int64     `db:"invoice_id"   gorm:"column:invoice_id;not null;index"`
	AmountPaid  int64     `db:"amount_paid"  gorm:"column:amount_paid;not null"`
	Reference   string    `db:"reference"    gorm:"column:reference;not null"`
	Method      string    `db:"method"       gorm:"column:method;not null"`
	Status      string    `db:"status"       gorm:"column:status;not null;default:pending"`
	ProcessedBy int64     `db:"processed_by" gorm:"column:processed_by"`
	ProcessedAt time.Time `db:"processed_at" gorm:"column:processed_at"`
	CreatedAt   time.Time `db:"created_at"   gorm:"column:created_at;autoCreateTime"`
}

func (PaymentEntity) TableName() string {
	return "payments"
}

type TransactionEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	PaymentID int64     `db:"payment_id" gorm:"column:payment_id;not null;index"`
	Type      string    `db:"type"       gorm:"column:type;not null"`
	Amount    int64     `db:"amount"     gorm:"column:amount;not null"`
	Currency  string    `db:"currency"   gorm:"column:currency;not null;default:USD"`
	Status    string    `db:"status"     gorm:"column:status;not null"`
	Reference string    `db:"reference"  gorm:"column:reference"`
	Details   []byte    `db:"details"    gorm:"column:details"`
	CreatedBy int64     `db:"created_by" gorm:"column:created_by"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type ReleaseOrderEntity struct {
	ID          int64      `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	CargoID     int64      `db:"cargo_id"     gorm:"column:cargo_id;not null;index"`
	PaymentID   int64      `db:"payment_id"   gorm:"column:payment_id;not null;index"`
	ReleaseCode string     `db:"release_code" gorm:"column:release_code;not null;unique"`
	Status      string     `db:"status"       gorm:"column:status;not null;default:active"`
	GeneratedBy int64      `db:"generated_by" gorm:"column:generated_by"`
	GeneratedAt time.Time  `db:"generated_at" gorm:"column:generated_at;autoCreateTime"`
	UsedAt      *time.Time `db:"used_at"      gorm:"column:used_at"`
}

func (ReleaseOrderEntity) TableName() string {
	return "release_orders"
}

func toPaymentEntity(m *model.Payment) *PaymentEntity {
	if m == nil {
		return nil
	}
	return &PaymentEntity{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		AmountPaid:  int64(m.AmountPaid),
		Reference:   m.Reference,
		Method:      m.Method,
		Status:      string(m.Status),
		ProcessedBy: m.ProcessedBy,
		ProcessedAt: m.ProcessedAt,
		CreatedAt:   m.CreatedAt,
	}
}

func toPaymentModel(e *PaymentEntity) *model.Payment {
	if e == nil {
		return nil
	}
	return &model.Payment{
		ID:          e.ID,
		InvoiceID:   e.InvoiceID,
		AmountPaid:  model.Cents(e.AmountPaid),
		Reference:   e.Reference,
		Method:      e.Method,
		Status:      model.PaymentStatus(e.Status),
		ProcessedBy: e.ProcessedBy,
		ProcessedAt: e.ProcessedAt,
		CreatedAt:   e.CreatedAt,
	}
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:        m.ID,
		PaymentID: m.PaymentID,
		Type:      m.Type,
		Amount:    int64(m.Amount),
		Currency:  m.Currency,
		Status:    string(m.Status),
		Reference: m.Reference,
		Details:   m.Details,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:        e.ID,
		PaymentID: e.PaymentID,
		Type:      e.Type,
		Amount:    model.Cents(e.Amount),
		Currency:  e.Currency,
		Status:    model.TransactionStatus(e.Status),
		Reference: e.Reference,
		Details:   e.Details,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
	}
}

func toReleaseOrderEntity(m *model.ReleaseOrder) *ReleaseOrderEntity {
	if m == nil {
		return nil
	}
	return &ReleaseOrderEntity{
		ID:          m.ID,
		CargoID:     m.CargoID,
		PaymentID:   m.PaymentID,
		ReleaseCode: m.ReleaseCode,
		Status:      string(m.Status),
		GeneratedBy: m.GeneratedBy,
		GeneratedAt: m.GeneratedAt,
		UsedAt:      m.UsedAt,
	}
}

func toReleaseOrderModel(e *ReleaseOrderEntity) *model.ReleaseOrder {
	if e == nil {
		return nil
	}
	return &model.ReleaseOrder{
		ID:          e.ID,
		CargoID:     e.CargoID,
		PaymentID:   e.PaymentID,
		ReleaseCode: e.ReleaseCode,
		Status:      model.ReleaseOrderStatus(e.Status),
		GeneratedBy: e.GeneratedBy,
		GeneratedAt: e.GeneratedAt,
		UsedAt:      e.UsedAt,
	}
}
