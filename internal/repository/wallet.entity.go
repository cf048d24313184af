package repository

import (
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
)

type WalletEntity struct {
	ID                 int64     `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	CustomerID         int64     `db:"customer_id"          gorm:"column:customer_id;not null;unique"`
	Balance            int64     `db:"balance"              gorm:"column:balance;not null;default:0"`
	Currency           string    `db:"currency"             gorm:"column:currency;not null;default:USD"`
	// No default tag on is_active: gorm would drop a false value from
	// the INSERT and let the column default flip the wallet back on.
	IsActive           bool      `db:"is_active"            gorm:"column:is_active;not null"`
	AutoPaymentEnabled bool      `db:"auto_payment_enabled" gorm:"column:auto_payment_enabled;not null;default:false"`
	CreatedAt          time.Time `db:"created_at"           gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `db:"updated_at"           gorm:"column:updated_at;autoUpdateTime"`
}

func (WalletEntity) TableName() string {
	return "wallets"
}

type WalletTransactionEntity struct {
	ID              int64     `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	WalletID        int64     `db:"wallet_id"        gorm:"column:wallet_id;not null;index"`
	Type            string    `db:"type"             gorm:"column:type;not null"`
	Amount          int64     `db:"amount"           gorm:"column:amount;not null"`
	BalanceBefore   int64     `db:"balance_before"   gorm:"column:balance_before;not null"`
	BalanceAfter    int64     `db:"balance_after"    gorm:"column:balance_after;not null"`
	Reference       string    `db:"reference"        gorm:"column:reference;not null"`
	Description     string    `db:"description"      gorm:"column:description"`
	InvoiceID       *int64    `db:"invoice_id"       gorm:"column:invoice_id"`
	PaymentID       *int64    `db:"payment_id"       gorm:"column:payment_id"`
	Status          string    `db:"status"           gorm:"column:status;not null;default:completed"`
	GatewayResponse []byte    `db:"gateway_response" gorm:"column:gateway_response"`
	CreatedAt       time.Time `db:"created_at"       gorm:"column:created_at;autoCreateTime"`
}

func (WalletTransactionEntity) TableName() string {
	return "wallet_transactions"
}

func toWalletEntity(m *model.Wallet) *WalletEntity {
	if m == nil {
		return nil
	}
	return &WalletEntity{
		ID:                 m.ID,
		CustomerID:         m.CustomerID,
		Balance:            int64(m.Balance),
		Currency:           m.Currency,
		IsActive:           m.IsActive,
		AutoPaymentEnabled: m.AutoPaymentEnabled,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toWalletModel(e *WalletEntity) *model.Wallet {
	if e == nil {
		return nil
	}
	return &model.Wallet{
		ID:                 e.ID,
		CustomerID:         e.CustomerID,
		Balance:            model.Cents(e.Balance),
		Currency:           e.Currency,
		IsActive:           e.IsActive,
		AutoPaymentEnabled: e.AutoPaymentEnabled,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toWalletTransactionEntity(m *model.WalletTransaction) *WalletTransactionEntity {
	if m == nil {
		return nil
	}
	return &WalletTransactionEntity{
		ID:              m.ID,
		WalletID:        m.WalletID,
		Type:            string(m.Type),
		Amount:          int64(m.Amount),
		BalanceBefore:   int64(m.BalanceBefore),
		BalanceAfter:    int64(m.BalanceAfter),
		Reference:       m.Reference,
		Description:     m.Description,
		InvoiceID:       m.InvoiceID,
		PaymentID:       m.PaymentID,
		Status:          m.Status,
		GatewayResponse: m.GatewayResponse,
		CreatedAt:       m.CreatedAt,
	}
}

func toWalletTransactionModel(e *WalletTransactionEntity) *model.WalletTransaction {
	if e == nil {
		return nil
	}
	return &model.WalletTransaction{
		ID:              e.ID,
		WalletID:        e.WalletID,
		Type:            model.WalletTransactionType(e.Type),
		Amount:          model.Cents(e.Amount),
		BalanceBefore:   model.Cents(e.BalanceBefore),
		BalanceAfter:    model.Cents(e.BalanceAfter),
		Reference:       e.Reference,
		Description:     e.Description,
		InvoiceID:       e.InvoiceID,
		PaymentID:       e.PaymentID,
		Status:          e.Status,
		GatewayResponse: e.GatewayResponse,
		CreatedAt:       e.CreatedAt,
	}
}

func toWalletTransactionModels(entities []*WalletTransactionEntity) []*model.WalletTransaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.WalletTransaction, len(entities))
	for i, e := range entities {
		models[i] = toWalletTransactionModel(e)
	}
	return models
}
