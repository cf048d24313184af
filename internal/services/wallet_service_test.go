package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gateway "github.com/zigopay/cargo-gateway/internal/gateways"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/repository"
)

func newWalletServiceForTest(walletRepo *MockWalletRepository, invoiceRepo *MockInvoiceRepository, paymentRepo *MockPaymentRepository, releaseRepo *MockReleaseOrderRepository, cargoRepo *MockCargoRepository, gw *MockPaymentGateway, pub NotificationPublisher) *WalletService {
	return NewWalletService(walletRepo, invoiceRepo, paymentRepo, releaseRepo, cargoRepo, gw, pub, 0)
}

func TestWalletService_Deposit_InvalidAmount(t *testing.T) {
	svc := newWalletServiceForTest(new(MockWalletRepository), new(MockInvoiceRepository), new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), new(MockPaymentGateway), nil)

	_, err := svc.Deposit(context.Background(), 1, 0, model.PaymentMethodMobileMoney, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Deposit(context.Background(), 1, -100, model.PaymentMethodMobileMoney, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWalletService_Deposit_GatewayFailureLeavesLedgerUntouched(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	gw := new(MockPaymentGateway)
	svc := newWalletServiceForTest(walletRepo, new(MockInvoiceRepository), new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), gw, nil)
	ctx := context.Background()

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Currency: "USD", IsActive: true}, nil)
	gw.On("ProcessDeposit", mock.Anything, mock.Anything).
		Return(nil, gateway.ErrGatewayUnavailable)

	_, err := svc.Deposit(ctx, 5, 10_000, model.PaymentMethodMobileMoney, "+255700000001")
	assert.ErrorIs(t, err, ErrGatewayFailure)

	// The gateway round-trip runs first; no credit may be attempted.
	walletRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletService_Deposit_CreditsWithGatewayReference(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	gw := new(MockPaymentGateway)
	svc := newWalletServiceForTest(walletRepo, new(MockInvoiceRepository), new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), gw, nil)
	ctx := context.Background()

	raw := []byte(`{"reference":"DEP-A1B2C3D4E5F6","status":"COMPLETED"}`)

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Currency: "USD", IsActive: true}, nil)
	gw.On("ProcessDeposit", mock.Anything, mock.Anything).
		Return(&gateway.DepositResponse{Reference: "DEP-A1B2C3D4E5F6", Status: gateway.GatewayStatusCompleted, Raw: raw}, nil)
	walletRepo.On("Credit", ctx, int64(5), model.Cents(10_000), mock.MatchedBy(func(e *model.WalletTransaction) bool {
		return e.Type == model.WalletTxDeposit &&
			e.Reference == "DEP-A1B2C3D4E5F6" &&
			string(e.GatewayResponse) == string(raw)
	})).Return(&model.WalletTransaction{ID: 1, WalletID: 5, Type: model.WalletTxDeposit, Amount: 10_000, BalanceAfter: 10_000, Reference: "DEP-A1B2C3D4E5F6"}, nil)

	txn, err := svc.Deposit(ctx, 5, 10_000, model.PaymentMethodMobileMoney, "+255700000001")
	require.NoError(t, err)
	assert.Equal(t, "DEP-A1B2C3D4E5F6", txn.Reference)

	walletRepo.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestWalletService_Withdraw_Shortfall(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	gw := new(MockPaymentGateway)
	svc := newWalletServiceForTest(walletRepo, new(MockInvoiceRepository), new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), gw, nil)
	ctx := context.Background()

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Balance: 2_500, Currency: "USD", IsActive: true}, nil)
	walletRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
		Return(nil)
	walletRepo.On("Debit", ctx, int64(5), model.Cents(10_000), mock.Anything).
		Return(nil, repository.ErrInsufficientBalance)

	_, err := svc.Withdraw(ctx, 5, 10_000, "+255700000001")

	var shortfall *ShortfallError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, model.Cents(10_000), shortfall.Required)
	assert.Equal(t, model.Cents(2_500), shortfall.Available)
	assert.Equal(t, model.Cents(7_500), shortfall.Shortfall())

	gw.AssertNotCalled(t, "ProcessWithdrawal", mock.Anything, mock.Anything)
}

func TestWalletService_Withdraw_GatewayFailureRollsBack(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	gw := new(MockPaymentGateway)
	svc := newWalletServiceForTest(walletRepo, new(MockInvoiceRepository), new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), gw, nil)
	ctx := context.Background()

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Balance: 50_000, Currency: "USD", IsActive: true}, nil)
	walletRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
		Return(nil)
	walletRepo.On("Debit", ctx, int64(5), model.Cents(10_000), mock.Anything).
		Return(&model.WalletTransaction{ID: 9, WalletID: 5}, nil)
	gw.On("ProcessWithdrawal", mock.Anything, mock.Anything).
		Return(nil, gateway.ErrGatewayUnavailable)

	_, err := svc.Withdraw(ctx, 5, 10_000, "+255700000001")
	assert.ErrorIs(t, err, ErrGatewayFailure)
}

func TestWalletService_PayInvoice(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	releaseRepo := new(MockReleaseOrderRepository)
	cargoRepo := new(MockCargoRepository)
	pub := &capturePublisher{}
	svc := newWalletServiceForTest(walletRepo, invoiceRepo, paymentRepo, releaseRepo, cargoRepo, new(MockPaymentGateway), pub)
	ctx := context.Background()

	invoice := &model.Invoice{ID: 7, CargoID: 3, ControlNumber: "ZP-260115-A1B2C3", Amount: 30_000, Currency: "USD", Status: model.InvoiceStatusPending}
	cargo := &model.Cargo{ID: 3, CustomerID: 1, TrackingNumber: "ZP-2026-AABBCCDD"}

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Balance: 100_000, Currency: "USD", IsActive: true}, nil)
	invoiceRepo.On("GetByID", ctx, int64(7)).Return(invoice, nil)
	cargoRepo.On("GetByID", ctx, int64(3)).Return(cargo, nil)
	walletRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
		Return(nil)
	invoiceRepo.On("MarkPaid", ctx, int64(7), model.PaymentMethodWallet).Return(nil)
	paymentRepo.On("Create", ctx, mock.MatchedBy(func(p *model.Payment) bool {
		return p.InvoiceID == 7 &&
			p.AmountPaid == 30_000 &&
			p.Method == model.PaymentMethodWallet &&
			p.Status == model.PaymentStatusCompleted &&
			p.Reference == "INV-ZP-260115-A1B2C3"
	})).Return(&model.Payment{ID: 11, InvoiceID: 7, AmountPaid: 30_000, Reference: "INV-ZP-260115-A1B2C3", Method: model.PaymentMethodWallet, Status: model.PaymentStatusCompleted}, nil)
	paymentRepo.On("CreateTransaction", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.PaymentID == 11 && txn.Type == model.TransactionTypeCargoPayment && txn.Status == model.TransactionStatusSuccess
	})).Return(&model.Transaction{ID: 21, PaymentID: 11}, nil)
	walletRepo.On("Debit", ctx, int64(5), model.Cents(30_000), mock.MatchedBy(func(e *model.WalletTransaction) bool {
		return e.Type == model.WalletTxPayment &&
			e.Reference == "INV-ZP-260115-A1B2C3" &&
			e.InvoiceID != nil && *e.InvoiceID == 7 &&
			e.PaymentID != nil && *e.PaymentID == 11
	})).Return(&model.WalletTransaction{ID: 31, WalletID: 5}, nil)
	releaseRepo.On("Create", ctx, mock.MatchedBy(func(ro *model.ReleaseOrder) bool {
		return ro.CargoID == 3 && ro.PaymentID == 11 && ro.Status == model.ReleaseOrderStatusActive
	})).Return(&model.ReleaseOrder{ID: 41, CargoID: 3, PaymentID: 11, ReleaseCode: "RO-260115-D4E5F6", Status: model.ReleaseOrderStatusActive}, nil)

	result, err := svc.PayInvoice(ctx, 5, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11), result.Payment.ID)
	assert.Equal(t, "RO-260115-D4E5F6", result.ReleaseOrder.ReleaseCode)

	assert.Equal(t, []model.NotificationKind{model.NotifyPaymentCompleted, model.NotifyReleaseOrderIssued}, pub.kinds())

	walletRepo.AssertExpectations(t)
	invoiceRepo.AssertExpectations(t)
	paymentRepo.AssertExpectations(t)
	releaseRepo.AssertExpectations(t)
}

func TestWalletService_PayInvoice_AlreadySettled(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	invoiceRepo := new(MockInvoiceRepository)
	svc := newWalletServiceForTest(walletRepo, invoiceRepo, new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), new(MockPaymentGateway), nil)
	ctx := context.Background()

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Balance: 100_000, IsActive: true}, nil)
	invoiceRepo.On("GetByID", ctx, int64(7)).
		Return(&model.Invoice{ID: 7, CargoID: 3, Status: model.InvoiceStatusPaid}, nil)

	_, err := svc.PayInvoice(ctx, 5, 7, 1)
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

func TestWalletService_PayInvoice_ForeignWallet(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	invoiceRepo := new(MockInvoiceRepository)
	cargoRepo := new(MockCargoRepository)
	svc := newWalletServiceForTest(walletRepo, invoiceRepo, new(MockPaymentRepository), new(MockReleaseOrderRepository), cargoRepo, new(MockPaymentGateway), nil)
	ctx := context.Background()

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Balance: 100_000, IsActive: true}, nil)
	invoiceRepo.On("GetByID", ctx, int64(7)).
		Return(&model.Invoice{ID: 7, CargoID: 3, Status: model.InvoiceStatusPending}, nil)
	cargoRepo.On("GetByID", ctx, int64(3)).
		Return(&model.Cargo{ID: 3, CustomerID: 2}, nil)

	// The wallet belongs to customer 1 but the cargo to customer 2.
	_, err := svc.PayInvoice(ctx, 5, 7, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWalletService_Reconcile(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	svc := newWalletServiceForTest(walletRepo, new(MockInvoiceRepository), new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), new(MockPaymentGateway), nil)
	ctx := context.Background()

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Balance: 40_000, IsActive: true}, nil)
	walletRepo.On("SignedSum", ctx, int64(5)).Return(model.Cents(40_000), nil)

	balance, sum, err := svc.Reconcile(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, balance, sum)
}

func TestWalletService_GetByCustomer_NotFound(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	svc := newWalletServiceForTest(walletRepo, new(MockInvoiceRepository), new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), new(MockPaymentGateway), nil)
	ctx := context.Background()

	walletRepo.On("GetByCustomer", ctx, int64(99)).Return(nil, repository.ErrWalletNotFound)

	_, err := svc.GetByCustomer(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWalletService_Withdraw_GatewayErrorIsNotRetriedAsDeposit(t *testing.T) {
	// Regression guard: a failed withdrawal must never surface as a
	// ledger credit.
	walletRepo := new(MockWalletRepository)
	gw := new(MockPaymentGateway)
	svc := newWalletServiceForTest(walletRepo, new(MockInvoiceRepository), new(MockPaymentRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), gw, nil)
	ctx := context.Background()

	walletRepo.On("GetByID", ctx, int64(5)).
		Return(&model.Wallet{ID: 5, CustomerID: 1, Balance: 50_000, IsActive: true}, nil)
	walletRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
		Return(errors.New("tx aborted"))

	_, err := svc.Withdraw(ctx, 5, 10_000, "")
	assert.Error(t, err)
	walletRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
