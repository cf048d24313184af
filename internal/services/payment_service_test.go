package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/repository"
)

func TestPaymentService_Process(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	invoiceRepo := new(MockInvoiceRepository)
	releaseRepo := new(MockReleaseOrderRepository)
	cargoRepo := new(MockCargoRepository)
	pub := &capturePublisher{}
	svc := NewPaymentService(paymentRepo, invoiceRepo, releaseRepo, cargoRepo, pub)
	ctx := context.Background()

	invoice := &model.Invoice{ID: 7, CargoID: 3, ControlNumber: "ZP-260115-A1B2C3", Amount: 30_000, Currency: "USD", Status: model.InvoiceStatusPending}
	cargo := &model.Cargo{ID: 3, CustomerID: 1, TrackingNumber: "ZP-2026-AABBCCDD"}

	invoiceRepo.On("GetByIDAndControlNumber", ctx, int64(7), "ZP-260115-A1B2C3").Return(invoice, nil)
	cargoRepo.On("GetByID", ctx, int64(3)).Return(cargo, nil)
	paymentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
		Return(nil)
	invoiceRepo.On("MarkPaid", ctx, int64(7), model.PaymentMethodMobileMoney).Return(nil)
	paymentRepo.On("Create", ctx, mock.MatchedBy(func(p *model.Payment) bool {
		return p.InvoiceID == 7 &&
			p.AmountPaid == 30_000 &&
			p.Status == model.PaymentStatusCompleted &&
			p.Reference == "MPESA-123"
	})).Return(&model.Payment{ID: 11, InvoiceID: 7, Reference: "MPESA-123"}, nil)
	paymentRepo.On("CreateTransaction", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.PaymentID == 11 &&
			txn.Type == model.TransactionTypeCargoPayment &&
			txn.Status == model.TransactionStatusSuccess
	})).Return(&model.Transaction{ID: 21}, nil)
	releaseRepo.On("Create", ctx, mock.MatchedBy(func(ro *model.ReleaseOrder) bool {
		return ro.CargoID == 3 && ro.PaymentID == 11 && ro.Status == model.ReleaseOrderStatusActive
	})).Return(&model.ReleaseOrder{ID: 41, CargoID: 3, PaymentID: 11, ReleaseCode: "RO-260115-D4E5F6", Status: model.ReleaseOrderStatusActive}, nil)

	result, err := svc.Process(ctx, model.PaymentProcessRequest{
		InvoiceID:     7,
		ControlNumber: "ZP-260115-A1B2C3",
		Amount:        30_000,
		Method:        model.PaymentMethodMobileMoney,
		Reference:     "MPESA-123",
		ActorID:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), result.Payment.ID)
	assert.Equal(t, model.ReleaseOrderStatusActive, result.ReleaseOrder.Status)

	assert.Equal(t, []model.NotificationKind{model.NotifyPaymentCompleted, model.NotifyReleaseOrderIssued}, pub.kinds())
}

func TestPaymentService_Process_ControlNumberMismatch(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewPaymentService(new(MockPaymentRepository), invoiceRepo, new(MockReleaseOrderRepository), new(MockCargoRepository), nil)
	ctx := context.Background()

	invoiceRepo.On("GetByIDAndControlNumber", ctx, int64(7), "ZP-260115-WRONG0").
		Return(nil, repository.ErrInvoiceNotFound)

	_, err := svc.Process(ctx, model.PaymentProcessRequest{
		InvoiceID:     7,
		ControlNumber: "ZP-260115-WRONG0",
		Amount:        30_000,
		Method:        model.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentService_Process_AlreadySettled(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	invoiceRepo := new(MockInvoiceRepository)
	releaseRepo := new(MockReleaseOrderRepository)
	cargoRepo := new(MockCargoRepository)
	svc := NewPaymentService(paymentRepo, invoiceRepo, releaseRepo, cargoRepo, nil)
	ctx := context.Background()

	invoice := &model.Invoice{ID: 7, CargoID: 3, ControlNumber: "ZP-260115-A1B2C3", Amount: 30_000, Status: model.InvoiceStatusPaid}

	invoiceRepo.On("GetByIDAndControlNumber", ctx, int64(7), "ZP-260115-A1B2C3").Return(invoice, nil)
	cargoRepo.On("GetByID", ctx, int64(3)).Return(&model.Cargo{ID: 3, CustomerID: 1}, nil)
	paymentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
		Return(nil)
	invoiceRepo.On("MarkPaid", ctx, int64(7), model.PaymentMethodCash).
		Return(repository.ErrInvoiceSettled)

	_, err := svc.Process(ctx, model.PaymentProcessRequest{
		InvoiceID:     7,
		ControlNumber: "ZP-260115-A1B2C3",
		Amount:        30_000,
		Method:        model.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrAlreadySettled)

	// The losing settlement creates nothing.
	paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	releaseRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_Process_Validation(t *testing.T) {
	svc := NewPaymentService(new(MockPaymentRepository), new(MockInvoiceRepository), new(MockReleaseOrderRepository), new(MockCargoRepository), nil)

	_, err := svc.Process(context.Background(), model.PaymentProcessRequest{
		ControlNumber: "ZP-260115-A1B2C3",
		Amount:        100,
		Method:        model.PaymentMethodCash,
	})
	assert.Error(t, err) // missing invoice id

	_, err = svc.Process(context.Background(), model.PaymentProcessRequest{
		InvoiceID:     7,
		ControlNumber: "ZP-260115-A1B2C3",
		Amount:        100,
		Method:        "crypto",
	})
	assert.Error(t, err) // unknown method
}

func TestPaymentService_CompleteReleaseOrder(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	releaseRepo := new(MockReleaseOrderRepository)
	cargoRepo := new(MockCargoRepository)
	pub := &capturePublisher{}
	svc := NewPaymentService(paymentRepo, new(MockInvoiceRepository), releaseRepo, cargoRepo, pub)
	ctx := context.Background()

	release := &model.ReleaseOrder{ID: 41, CargoID: 3, PaymentID: 11, ReleaseCode: "RO-260115-D4E5F6", Status: model.ReleaseOrderStatusActive}
	cargo := &model.Cargo{ID: 3, CustomerID: 1, TrackingNumber: "ZP-2026-AABBCCDD", Status: model.CargoStatusArrived}

	releaseRepo.On("GetByCode", ctx, "RO-260115-D4E5F6").Return(release, nil)
	paymentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
		Return(nil)
	cargoRepo.On("LockForUpdate", ctx, int64(3)).Return(cargo, nil)
	releaseRepo.On("MarkUsed", ctx, int64(41), mock.AnythingOfType("time.Time")).Return(nil)
	cargoRepo.On("SetStatus", ctx, int64(3), model.CargoStatusDelivered).Return(nil)
	cargoRepo.On("AppendHistory", ctx, mock.MatchedBy(func(h *model.CargoHistory) bool {
		return h.CargoID == 3 &&
			h.PreviousStatus != nil &&
			*h.PreviousStatus == model.CargoStatusArrived &&
			h.NewStatus == model.CargoStatusDelivered &&
			h.Remarks == "cargo collected by customer"
	})).Return(&model.CargoHistory{ID: 9}, nil)

	used, err := svc.CompleteReleaseOrder(ctx, "RO-260115-D4E5F6", 2)
	require.NoError(t, err)
	assert.Equal(t, model.ReleaseOrderStatusUsed, used.Status)
	require.NotNil(t, used.UsedAt)
	assert.WithinDuration(t, time.Now(), *used.UsedAt, time.Minute)

	assert.Equal(t, []model.NotificationKind{model.NotifyReleaseOrderRedeemed}, pub.kinds())
	cargoRepo.AssertExpectations(t)
}

func TestPaymentService_CompleteReleaseOrder_AlreadyUsed(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	releaseRepo := new(MockReleaseOrderRepository)
	cargoRepo := new(MockCargoRepository)
	svc := NewPaymentService(paymentRepo, new(MockInvoiceRepository), releaseRepo, cargoRepo, nil)
	ctx := context.Background()

	release := &model.ReleaseOrder{ID: 41, CargoID: 3, ReleaseCode: "RO-260115-D4E5F6", Status: model.ReleaseOrderStatusUsed}

	releaseRepo.On("GetByCode", ctx, "RO-260115-D4E5F6").Return(release, nil)
	paymentRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).
		Return(nil)
	cargoRepo.On("LockForUpdate", ctx, int64(3)).
		Return(&model.Cargo{ID: 3, Status: model.CargoStatusArrived}, nil)
	releaseRepo.On("MarkUsed", ctx, int64(41), mock.AnythingOfType("time.Time")).
		Return(repository.ErrReleaseOrderUsed)

	_, err := svc.CompleteReleaseOrder(ctx, "RO-260115-D4E5F6", 2)
	assert.ErrorIs(t, err, ErrReleaseOrderUsed)

	cargoRepo.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_CompleteReleaseOrder_NotFound(t *testing.T) {
	releaseRepo := new(MockReleaseOrderRepository)
	svc := NewPaymentService(new(MockPaymentRepository), new(MockInvoiceRepository), releaseRepo, new(MockCargoRepository), nil)
	ctx := context.Background()

	releaseRepo.On("GetByCode", ctx, "RO-260115-MISSING").Return(nil, repository.ErrReleaseOrderNotFound)

	_, err := svc.CompleteReleaseOrder(ctx, "RO-260115-MISSING", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}
