package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	gateway "github.com/zigopay/cargo-gateway/internal/gateways"
	"github.com/zigopay/cargo-gateway/internal/model"
)

type MockCargoRepository struct {
	mock.Mock
}

func (m *MockCargoRepository) Create(ctx context.Context, c *model.Cargo) (*model.Cargo, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cargo), args.Error(1)
}

func (m *MockCargoRepository) GetByID(ctx context.Context, id int64) (*model.Cargo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cargo), args.Error(1)
}

func (m *MockCargoRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Cargo, error) {
	args := m.Called(ctx, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cargo), args.Error(1)
}

func (m *MockCargoRepository) LockForUpdate(ctx context.Context, id int64) (*model.Cargo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cargo), args.Error(1)
}

func (m *MockCargoRepository) SetStatus(ctx context.Context, id int64, status model.CargoStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockCargoRepository) AppendHistory(ctx context.Context, h *model.CargoHistory) (*model.CargoHistory, error) {
	args := m.Called(ctx, h)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CargoHistory), args.Error(1)
}

func (m *MockCargoRepository) ListHistory(ctx context.Context, cargoID int64, desc bool) ([]*model.CargoHistory, error) {
	args := m.Called(ctx, cargoID, desc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CargoHistory), args.Error(1)
}

func (m *MockCargoRepository) List(ctx context.Context, f model.CargoFilter) ([]*model.Cargo, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Cargo), args.Get(1).(int64), args.Error(2)
}

func (m *MockCargoRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error) {
	args := m.Called(ctx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id int64) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByIDAndControlNumber(ctx context.Context, id int64, controlNumber string) (*model.Invoice, error) {
	args := m.Called(ctx, id, controlNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetOpenByCargo(ctx context.Context, cargoID int64) (*model.Invoice, error) {
	args := m.Called(ctx, cargoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) MarkPaid(ctx context.Context, id int64, paymentMethod string) error {
	args := m.Called(ctx, id, paymentMethod)
	return args.Error(0)
}

func (m *MockInvoiceRepository) List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CreateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockPaymentRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockReleaseOrderRepository struct {
	mock.Mock
}

func (m *MockReleaseOrderRepository) Create(ctx context.Context, ro *model.ReleaseOrder) (*model.ReleaseOrder, error) {
	args := m.Called(ctx, ro)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReleaseOrder), args.Error(1)
}

func (m *MockReleaseOrderRepository) GetByCode(ctx context.Context, releaseCode string) (*model.ReleaseOrder, error) {
	args := m.Called(ctx, releaseCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReleaseOrder), args.Error(1)
}

func (m *MockReleaseOrderRepository) MarkUsed(ctx context.Context, id int64, usedAt time.Time) error {
	args := m.Called(ctx, id, usedAt)
	return args.Error(0)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, w *model.Wallet) (*model.Wallet, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id int64) (*model.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByCustomer(ctx context.Context, customerID int64) (*model.Wallet, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Credit(ctx context.Context, walletID int64, amount model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error) {
	args := m.Called(ctx, walletID, amount, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepository) Debit(ctx context.Context, walletID int64, amount model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error) {
	args := m.Called(ctx, walletID, amount, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepository) AttachPayment(ctx context.Context, entryID, paymentID int64) error {
	args := m.Called(ctx, entryID, paymentID)
	return args.Error(0)
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, f model.WalletTransactionFilter) ([]*model.WalletTransaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.WalletTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletRepository) SignedSum(ctx context.Context, walletID int64) (model.Cents, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(model.Cents), args.Error(1)
}

func (m *MockWalletRepository) SetAutoPayment(ctx context.Context, walletID int64, enabled bool) error {
	args := m.Called(ctx, walletID, enabled)
	return args.Error(0)
}

func (m *MockWalletRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) ProcessDeposit(ctx context.Context, req *gateway.DepositRequest) (*gateway.DepositResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.DepositResponse), args.Error(1)
}

func (m *MockPaymentGateway) ProcessWithdrawal(ctx context.Context, req *gateway.WithdrawalRequest) (*gateway.DepositResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.DepositResponse), args.Error(1)
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []model.NotificationEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event model.NotificationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) kinds() []model.NotificationKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.NotificationKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}
