package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	gateway "github.com/zigopay/cargo-gateway/internal/gateways"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/repository"
	"github.com/zigopay/cargo-gateway/pkg/logger"
	"github.com/zigopay/cargo-gateway/pkg/prom"
)

type WalletRepository interface {
	Create(ctx context.Context, w *model.Wallet) (*model.Wallet, error)
	GetByID(ctx context.Context, id int64) (*model.Wallet, error)
	GetByCustomer(ctx context.Context, customerID int64) (*model.Wallet, error)
	Credit(ctx context.Context, walletID int64, amount model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error)
	Debit(ctx context.Context, walletID int64, amount model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error)
	AttachPayment(ctx context.Context, entryID, paymentID int64) error
	ListTransactions(ctx context.Context, f model.WalletTransactionFilter) ([]*model.WalletTransaction, int64, error)
	SignedSum(ctx context.Context, walletID int64) (model.Cents, error)
	SetAutoPayment(ctx context.Context, walletID int64, enabled bool) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentGateway is the slice of the provider client the wallet needs.
type PaymentGateway interface {
	ProcessDeposit(ctx context.Context, req *gateway.DepositRequest) (*gateway.DepositResponse, error)
	ProcessWithdrawal(ctx context.Context, req *gateway.WithdrawalRequest) (*gateway.DepositResponse, error)
}

type WalletService struct {
	walletRepo  WalletRepository
	invoiceRepo InvoiceRepository
	paymentRepo PaymentRepository
	releaseRepo ReleaseOrderRepository
	cargoRepo   PaymentCargoRepository
	gateway     PaymentGateway
	publisher   NotificationPublisher

	gatewayTimeout time.Duration
}

func NewWalletService(walletRepo WalletRepository, invoiceRepo InvoiceRepository, paymentRepo PaymentRepository, releaseRepo ReleaseOrderRepository, cargoRepo PaymentCargoRepository, gw PaymentGateway, publisher NotificationPublisher, gatewayTimeout time.Duration) *WalletService {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 5 * time.Second
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &WalletService{
		walletRepo:     walletRepo,
		invoiceRepo:    invoiceRepo,
		paymentRepo:    paymentRepo,
		releaseRepo:    releaseRepo,
		cargoRepo:      cargoRepo,
		gateway:        gw,
		publisher:      publisher,
		gatewayTimeout: gatewayTimeout,
	}
}

func (s *WalletService) CreateWallet(ctx context.Context, customerID int64, autoPayment bool) (*model.Wallet, error) {
	return s.walletRepo.Create(ctx, &model.Wallet{
		CustomerID:         customerID,
		Currency:           "USD",
		IsActive:           true,
		AutoPaymentEnabled: autoPayment,
	})
}

func (s *WalletService) Get(ctx context.Context, walletID int64) (*model.Wallet, error) {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *WalletService) GetByCustomer(ctx context.Context, customerID int64) (*model.Wallet, error) {
	w, err := s.walletRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// Deposit tops up the wallet from the customer's external account. The
// gateway round-trip happens before any ledger write: if the provider
// fails or declines, the ledger is untouched.
func (s *WalletService) Deposit(ctx context.Context, walletID int64, amount model.Cents, method, account string) (*model.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	resp, err := s.gateway.ProcessDeposit(gwCtx, &gateway.DepositRequest{
		CustomerID: wallet.CustomerID,
		Amount:     amount,
		Currency:   wallet.Currency,
		Method:     method,
		Account:    account,
	})
	if err != nil {
		logger.Warn("Deposit rejected by gateway", "wallet_id", walletID, "amount", amount.String(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	txn, err := s.walletRepo.Credit(ctx, wallet.ID, amount, &model.WalletTransaction{
		Type:            model.WalletTxDeposit,
		Reference:       resp.Reference,
		Description:     "wallet deposit via " + method,
		GatewayResponse: resp.Raw,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInactiveWallet) {
			return nil, ErrInactiveWallet
		}
		return nil, err
	}

	logger.Info("Wallet deposit completed", "wallet_id", wallet.ID, "amount", amount.String(), "reference", resp.Reference)

	return txn, nil
}

// Withdraw pushes funds back to the customer. The debit and the
// provider call run in one transaction, so a gateway failure rolls the
// ledger back.
func (s *WalletService) Withdraw(ctx context.Context, walletID int64, amount model.Cents, account string) (*model.WalletTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reference := NewWithdrawalReference()
	var txn *model.WalletTransaction

	err = s.walletRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.walletRepo.Debit(ctx, wallet.ID, amount, &model.WalletTransaction{
			Type:        model.WalletTxWithdrawal,
			Reference:   reference,
			Description: "wallet withdrawal",
		})
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return &ShortfallError{Required: amount, Available: wallet.Balance}
			}
			if errors.Is(err, repository.ErrInactiveWallet) {
				return ErrInactiveWallet
			}
			return err
		}
		txn = entry

		gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
		defer cancel()

		_, err = s.gateway.ProcessWithdrawal(gwCtx, &gateway.WithdrawalRequest{
			CustomerID: wallet.CustomerID,
			Amount:     amount,
			Currency:   wallet.Currency,
			Account:    account,
		})
		if err != nil {
			logger.Warn("Withdrawal rejected by gateway, rolling back", "wallet_id", walletID, "amount", amount.String(), "error", err)
			return fmt.Errorf("%w: %v", ErrGatewayFailure, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Wallet withdrawal completed", "wallet_id", wallet.ID, "amount", amount.String(), "reference", reference)

	return txn, nil
}

// PayInvoice settles an invoice from the wallet balance. The debit, the
// payment, the invoice flip, the mirror transaction and the release
// order commit atomically.
func (s *WalletService) PayInvoice(ctx context.Context, walletID, invoiceID, actorID int64) (*PaymentResult, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if invoice.Status == model.InvoiceStatusPaid {
		return nil, ErrAlreadySettled
	}

	cargo, err := s.cargoRepo.GetByID(ctx, invoice.CargoID)
	if err != nil {
		if errors.Is(err, repository.ErrCargoNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if cargo.CustomerID != wallet.CustomerID {
		return nil, ErrNotFound
	}

	reference := "INV-" + invoice.ControlNumber
	now := time.Now()
	var result PaymentResult

	err = s.walletRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.invoiceRepo.MarkPaid(ctx, invoice.ID, model.PaymentMethodWallet); err != nil {
			if errors.Is(err, repository.ErrInvoiceSettled) {
				return ErrAlreadySettled
			}
			return fmt.Errorf("mark invoice paid: %w", err)
		}

		payment, err := s.paymentRepo.Create(ctx, &model.Payment{
			InvoiceID:   invoice.ID,
			AmountPaid:  invoice.Amount,
			Reference:   reference,
			Method:      model.PaymentMethodWallet,
			Status:      model.PaymentStatusCompleted,
			ProcessedBy: actorID,
			ProcessedAt: now,
		})
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		_, err = s.paymentRepo.CreateTransaction(ctx, &model.Transaction{
			PaymentID: payment.ID,
			Type:      model.TransactionTypeCargoPayment,
			Amount:    invoice.Amount,
			Currency:  invoice.Currency,
			Status:    model.TransactionStatusSuccess,
			Reference: reference,
			CreatedBy: actorID,
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		_, err = s.walletRepo.Debit(ctx, wallet.ID, invoice.Amount, &model.WalletTransaction{
			Type:        model.WalletTxPayment,
			Reference:   reference,
			Description: "invoice payment from wallet",
			InvoiceID:   &invoice.ID,
			PaymentID:   &payment.ID,
		})
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return &ShortfallError{Required: invoice.Amount, Available: wallet.Balance}
			}
			if errors.Is(err, repository.ErrInactiveWallet) {
				return ErrInactiveWallet
			}
			return fmt.Errorf("debit wallet: %w", err)
		}

		release, err := s.releaseRepo.Create(ctx, &model.ReleaseOrder{
			CargoID:     invoice.CargoID,
			PaymentID:   payment.ID,
			ReleaseCode: NewReleaseCode(now),
			Status:      model.ReleaseOrderStatusActive,
			GeneratedBy: actorID,
		})
		if err != nil {
			return fmt.Errorf("create release order: %w", err)
		}

		result.Payment = payment
		result.ReleaseOrder = release
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Invoice paid from wallet", "invoice_id", invoice.ID, "wallet_id", wallet.ID, "amount", invoice.Amount.String())
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

	return &result, nil
}

func (s *WalletService) Transactions(ctx context.Context, walletID int64, f model.WalletTransactionFilter) ([]*model.WalletTransaction, int64, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	f.WalletID = wallet.ID
	return s.walletRepo.ListTransactions(ctx, f)
}

func (s *WalletService) SetAutoPayment(ctx context.Context, walletID int64, enabled bool) error {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.walletRepo.SetAutoPayment(ctx, wallet.ID, enabled)
}

// Reconcile verifies the wallet invariant: the stored balance equals
// the signed sum of every ledger entry.
func (s *WalletService) Reconcile(ctx context.Context, walletID int64) (balance, ledgerSum model.Cents, err error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}

	sum, err := s.walletRepo.SignedSum(ctx, wallet.ID)
	if err != nil {
		return 0, 0, err
	}

	if sum != wallet.Balance {
		logger.Error("Wallet ledger mismatch", "wallet_id", wallet.ID, "balance", wallet.Balance.String(), "ledger_sum", sum.String())
	}

	return wallet.Balance, sum, nil
}
