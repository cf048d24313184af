package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/repository"
	"github.com/zigopay/cargo-gateway/pkg/logger"
	"github.com/zigopay/cargo-gateway/pkg/prom"
)

// Skip reasons reported when auto-payment does not run. They are
// informational: a skipped auto-payment is not an error and never
// blocks the arrival that triggered it.
const (
	SkipNoWallet            = "no_wallet"
	SkipWalletInactive      = "wallet_inactive"
	SkipAutoPaymentDisabled = "auto_payment_disabled"
	SkipInvoiceNotPending   = "invoice_not_pending"
	SkipInsufficientBalance = "insufficient_balance"
)

// AutoPayResult reports what the orchestrator did for one arrival. On
// an insufficient-balance skip it carries the full picture: what the
// invoice required, what the wallet held and the gap between them.
type AutoPayResult struct {
	Settled      bool                `json:"settled"`
	SkipReason   string              `json:"skip_reason,omitempty"`
	Required     model.Cents         `json:"required,omitempty"`
	Available    model.Cents         `json:"available,omitempty"`
	Shortfall    model.Cents         `json:"shortfall,omitempty"`
	Payment      *model.Payment      `json:"payment,omitempty"`
	ReleaseOrder *model.ReleaseOrder `json:"release_order,omitempty"`
}

type AutoPayService struct {
	walletRepo  WalletRepository
	invoiceRepo InvoiceRepository
	paymentRepo PaymentRepository
	releaseRepo ReleaseOrderRepository
	publisher   NotificationPublisher
}

func NewAutoPayService(walletRepo WalletRepository, invoiceRepo InvoiceRepository, paymentRepo PaymentRepository, releaseRepo ReleaseOrderRepository, publisher NotificationPublisher) *AutoPayService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &AutoPayService{
		walletRepo:  walletRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		releaseRepo: releaseRepo,
		publisher:   publisher,
	}
}

// TrySettle attempts to settle an arrival invoice from the customer's
// wallet. Every precondition failure is a named skip, not an error.
// When all guards pass, the debit, payment, invoice flip, mirror
// transaction, ledger relabel and release order commit atomically.
func (s *AutoPayService) TrySettle(ctx context.Context, cargo *model.Cargo, invoice *model.Invoice) (*AutoPayResult, error) {
	wallet, err := s.walletRepo.GetByCustomer(ctx, cargo.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return &AutoPayResult{SkipReason: SkipNoWallet}, nil
		}
		return nil, err
	}

	if !wallet.IsActive {
		return &AutoPayResult{SkipReason: SkipWalletInactive}, nil
	}
	if !wallet.AutoPaymentEnabled {
		return &AutoPayResult{SkipReason: SkipAutoPaymentDisabled}, nil
	}
	if invoice.Status != model.InvoiceStatusPending {
		return &AutoPayResult{SkipReason: SkipInvoiceNotPending}, nil
	}
	if wallet.Balance < invoice.Amount {
		shortfall := invoice.Amount - wallet.Balance
		logger.Info("Auto-payment skipped, balance too low", "cargo_id", cargo.ID, "invoice_id", invoice.ID, "required", invoice.Amount.String(), "available", wallet.Balance.String(), "shortfall", shortfall.String())
		return &AutoPayResult{
			SkipReason: SkipInsufficientBalance,
			Required:   invoice.Amount,
			Available:  wallet.Balance,
			Shortfall:  shortfall,
		}, nil
	}

	reference := NewAutoPaymentReference()
	now := time.Now()
	result := &AutoPayResult{}

	err = s.walletRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		// The debit runs first and under the wallet row lock; a racing
		// spend surfaces here as insufficient balance.
		entry, err := s.walletRepo.Debit(ctx, wallet.ID, invoice.Amount, &model.WalletTransaction{
			Type:        model.WalletTxPayment,
			Reference:   reference,
			Description: "automatic payment on cargo arrival",
			InvoiceID:   &invoice.ID,
		})
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				result.SkipReason = SkipInsufficientBalance
				return errAutoPaySkip
			}
			return fmt.Errorf("debit wallet: %w", err)
		}

		if err := s.invoiceRepo.MarkPaid(ctx, invoice.ID, model.PaymentMethodWallet); err != nil {
			if errors.Is(err, repository.ErrInvoiceSettled) {
				result.SkipReason = SkipInvoiceNotPending
				return errAutoPaySkip
			}
			return fmt.Errorf("mark invoice paid: %w", err)
		}

		payment, err := s.paymentRepo.Create(ctx, &model.Payment{
			InvoiceID:   invoice.ID,
			AmountPaid:  invoice.Amount,
			Reference:   reference,
			Method:      model.PaymentMethodWallet,
			Status:      model.PaymentStatusCompleted,
			ProcessedAt: now,
		})
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		// Relabel the ledger entry as an auto-payment and bind the
		// payment to it.
		if err := s.walletRepo.AttachPayment(ctx, entry.ID, payment.ID); err != nil {
			return fmt.Errorf("attach payment: %w", err)
		}

		_, err = s.paymentRepo.CreateTransaction(ctx, &model.Transaction{
			PaymentID: payment.ID,
			Type:      model.TransactionTypeCargoPayment,
			Amount:    invoice.Amount,
			Currency:  invoice.Currency,
			Status:    model.TransactionStatusSuccess,
			Reference: reference,
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		release, err := s.releaseRepo.Create(ctx, &model.ReleaseOrder{
			CargoID:     cargo.ID,
			PaymentID:   payment.ID,
			ReleaseCode: NewReleaseCode(now),
			Status:      model.ReleaseOrderStatusActive,
		})
		if err != nil {
			return fmt.Errorf("create release order: %w", err)
		}

		result.Settled = true
		result.Payment = payment
		result.ReleaseOrder = release
		return nil
	})
	if err != nil {
		if errors.Is(err, errAutoPaySkip) {
			result.Settled = false
			result.Payment = nil
			result.ReleaseOrder = nil
			return result, nil
		}
		return nil, err
	}

	logger.Info("Auto-payment settled", "cargo_id", cargo.ID, "invoice_id", invoice.ID, "payment_id", result.Payment.ID, "reference", reference)
	prom.IncPaymentSettled(string(model.PaymentMethodWallet))

	s.publisher.Publish(ctx, model.NotificationEvent{
		Kind:           model.NotifyPaymentCompleted,
		CustomerID:     cargo.CustomerID,
		CargoID:        cargo.ID,
		TrackingNumber: cargo.TrackingNumber,
		ControlNumber:  invoice.ControlNumber,
		Amount:         invoice.Amount,
	})
	s.publisher.Publish(ctx, model.NotificationEvent{
		Kind:           model.NotifyReleaseOrderIssued,
		CustomerID:     cargo.CustomerID,
		CargoID:        cargo.ID,
		TrackingNumber: cargo.TrackingNumber,
		ReleaseCode:    result.ReleaseOrder.ReleaseCode,
	})

	return result, nil
}

// errAutoPaySkip aborts the settlement transaction for a guard that
// tripped mid-flight. It rolls back the partial writes and is never
// surfaced to callers.
var errAutoPaySkip = errors.New("auto-payment skipped")
