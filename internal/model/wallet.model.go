package model

import "time"

type Wallet struct {
	ID                 int64     `json:"id"`
	CustomerID         int64     `json:"customer_id"`
	Balance            Cents     `json:"balance"`
	Currency           string    `json:"currency"`
	IsActive           bool      `json:"is_active"`
	AutoPaymentEnabled bool      `json:"auto_payment_enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type WalletTransactionType string

const (
	WalletTxDeposit     WalletTransactionType = "deposit"
	WalletTxWithdrawal  WalletTransactionType = "withdrawal"
	WalletTxPayment     WalletTransactionType = "payment"
	WalletTxRefund      WalletTransactionType = "refund"
	WalletTxAutoPayment WalletTransactionType = "auto_payment"
)

// SignedAmount folds a ledger entry into its balance contribution:
// deposits and refunds are positive, everything else negative.
func (t WalletTransactionType) SignedAmount(amount Cents) Cents {
	switch t {
	case WalletTxDeposit, WalletTxRefund:
		return amount
	default:
		return -amount
	}
}

// WalletTransaction is an append-only ledger entry. The only mutation
// ever applied after the fact is the late binding of a payment
// reference (the auto-payment relabel).
type WalletTransaction struct {
	ID              int64                 `json:"id"`
	WalletID        int64                 `json:"wallet_id"`
	Type            WalletTransactionType `json:"type"`
	Amount          Cents                 `json:"amount"`
	BalanceBefore   Cents                 `json:"balance_before"`
	BalanceAfter    Cents                 `json:"balance_after"`
	Reference       string                `json:"reference"`
	Description     string                `json:"description,omitempty"`
	InvoiceID       *int64                `json:"invoice_id,omitempty"`
	PaymentID       *int64                `json:"payment_id,omitempty"`
	Status          string                `json:"status"`
	GatewayResponse []byte                `json:"gateway_response,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

type WalletTransactionFilter struct {
	WalletID int64
	Type     *WalletTransactionType
	Limit    int
	Offset   int
	Desc     bool
}
