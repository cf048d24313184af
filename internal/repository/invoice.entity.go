package repository

import (
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
)

type InvoiceEntity struct {
	ID            int64     `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	CargoID       int64     `db:"cargo_id"       gorm:"column:cargo_id;not null;index"`
	ControlNumber string    `db:"control_number" gorm:"column:control_number;not null;unique"`
	Amount        int64     `db:"amount"         gorm:"column:amount;not null"`
	Currency      string    `db:"currency"       gorm:"column:currency;not null;default:USD"`
	DueDate       time.Time `db:"due_date"       gorm:"column:due_date;not null"`
	Status        string    `db:"status"         gorm:"column:status;not null;default:pending;index"`
	PaymentMethod string    `db:"payment_method" gorm:"column:payment_method"`
	CreatedBy     int64     `db:"created_by"     gorm:"column:created_by"`
	CreatedAt     time.Time `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `db:"updated_at"     gorm:"column:updated_at;autoUpdateTime"`
}

func (InvoiceEntity) TableName() string {
	return "invoices"
}

func toInvoiceEntity(m *model.Invoice) *InvoiceEntity {
	if m == nil {
		return nil
	}
	return &InvoiceEntity{
		ID:            m.ID,
		CargoID:       m.CargoID,
		ControlNumber: m.ControlNumber,
		Amount:        int64(m.Amount),
		Currency:      m.Currency,
		DueDate:       m.DueDate,
		Status:        string(m.Status),
		PaymentMethod: m.PaymentMethod,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toInvoiceModel(e *InvoiceEntity) *model.Invoice {
	if e == nil {
		return nil
	}
	return &model.Invoice{
		ID:            e.ID,
		CargoID:       e.CargoID,
		ControlNumber: e.ControlNumber,
		Amount:        model.Cents(e.Amount),
		Currency:      e.Currency,
		DueDate:       e.DueDate,
		Status:        model.InvoiceStatus(e.Status),
		PaymentMethod: e.PaymentMethod,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toInvoiceModels(entities []*InvoiceEntity) []*model.Invoice {
	if entities == nil {
		return nil
	}
	models := make([]*model.Invoice, len(entities))
	for i, e := range entities {
		models[i] = toInvoiceModel(e)
	}
	return models
}
