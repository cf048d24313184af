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

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) (*model.Payment, error)
	GetByID(ctx context.Context, id int64) (*model.Payment, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ReleaseOrderRepository interface {
	Create(ctx context.Context, ro *model.ReleaseOrder) (*model.ReleaseOrder, error)
	GetByCode(ctx context.Context, releaseCode string) (*model.ReleaseOrder, error)
	MarkUsed(ctx context.Context, id int64, usedAt time.Time) error
}

type PaymentCargoRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Cargo, error)
	LockForUpdate(ctx context.Context, id int64) (*model.Cargo, error)
	SetStatus(ctx context.Context, id int64, status model.CargoStatus) error
	AppendHistory(ctx context.Context, h *model.CargoHistory) (*model.CargoHistory, error)
}

// PaymentResult is what a successful settlement hands back: the payment
// record and the release order minted with it.
type PaymentResult struct {
	Payment      *model.Payment      `json:"payment"`
	ReleaseOrder *model.ReleaseOrder `json:"release_order"`
}

type PaymentService struct {
	paymentRepo PaymentRepository
	invoiceRepo InvoiceRepository
	releaseRepo ReleaseOrderRepository
	cargoRepo   PaymentCargoRepository
	publisher   NotificationPublisher
}

func NewPaymentService(paymentRepo PaymentRepository, invoiceRepo InvoiceRepository, releaseRepo ReleaseOrderRepository, cargoRepo PaymentCargoRepository, publisher NotificationPublisher) *PaymentService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &PaymentService{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		releaseRepo: releaseRepo,
		cargoRepo:   cargoRepo,
		publisher:   publisher,
	}
}

// Process settles an invoice from a manual payment submission. The four
// writes (invoice flip, payment, transaction, release order) commit or
// roll back together.
func (s *PaymentService) Process(ctx context.Context, p model.PaymentProcessRequest) (*PaymentResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByIDAndControlNumber(ctx, p.InvoiceID, p.ControlNumber)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cargo, err := s.cargoRepo.GetByID(ctx, invoice.CargoID)
	if err != nil {
		if errors.Is(err, repository.ErrCargoNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reference := p.Reference
	if reference == "" {
		reference = NewPaymentReference()
	}

	now := time.Now()
	var result PaymentResult

	err = s.paymentRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		// Flip the invoice first; the guarded update makes the whole
		// settlement exactly-once.
		if err := s.invoiceRepo.MarkPaid(ctx, invoice.ID, p.Method); err != nil {
			if errors.Is(err, repository.ErrInvoiceSettled) {
				return ErrAlreadySettled
			}
			return fmt.Errorf("mark invoice paid: %w", err)
		}

		payment, err := s.paymentRepo.Create(ctx, &model.Payment{
			InvoiceID:   invoice.ID,
			AmountPaid:  p.Amount,
			Reference:   reference,
			Method:      p.Method,
			Status:      model.PaymentStatusCompleted,
			ProcessedBy: p.ActorID,
			ProcessedAt: now,
		})
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		_, err = s.paymentRepo.CreateTransaction(ctx, &model.Transaction{
			PaymentID: payment.ID,
			Type:      model.TransactionTypeCargoPayment,
			Amount:    p.Amount,
			Currency:  invoice.Currency,
			Status:    model.TransactionStatusSuccess,
			Reference: reference,
			Details:   p.Details,
			CreatedBy: p.ActorID,
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		release, err := s.releaseRepo.Create(ctx, &model.ReleaseOrder{
			CargoID:     invoice.CargoID,
			PaymentID:   payment.ID,
			ReleaseCode: NewReleaseCode(now),
			Status:      model.ReleaseOrderStatusActive,
			GeneratedBy: p.ActorID,
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

	logger.Info("Payment processed", "invoice_id", invoice.ID, "payment_id", result.Payment.ID, "release_code", result.ReleaseOrder.ReleaseCode, "method", p.Method)
	prom.IncPaymentSettled(p.Method)

	s.publisher.Publish(ctx, model.NotificationEvent{
		Kind:           model.NotifyPaymentCompleted,
		CustomerID:     cargo.CustomerID,
		CargoID:        cargo.ID,
		TrackingNumber: cargo.TrackingNumber,
		ControlNumber:  invoice.ControlNumber,
		Amount:         p.Amount,
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

// CompleteReleaseOrder redeems a release code: the order flips to used
// and the cargo is handed over. A code only ever works once.
func (s *PaymentService) CompleteReleaseOrder(ctx context.Context, releaseCode string, actorID int64) (*model.ReleaseOrder, error) {
	release, err := s.releaseRepo.GetByCode(ctx, releaseCode)
	if err != nil {
		if errors.Is(err, repository.ErrReleaseOrderNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	var cargo *model.Cargo

	err = s.paymentRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.cargoRepo.LockForUpdate(ctx, release.CargoID)
		if err != nil {
			return fmt.Errorf("lock cargo: %w", err)
		}
		cargo = locked

		if err := s.releaseRepo.MarkUsed(ctx, release.ID, now); err != nil {
			if errors.Is(err, repository.ErrReleaseOrderUsed) {
				return ErrReleaseOrderUsed
			}
			return fmt.Errorf("mark release order used: %w", err)
		}

		if err := s.cargoRepo.SetStatus(ctx, cargo.ID, model.CargoStatusDelivered); err != nil {
			return fmt.Errorf("set cargo delivered: %w", err)
		}

		previous := cargo.Status
		_, err = s.cargoRepo.AppendHistory(ctx, &model.CargoHistory{
			CargoID:        cargo.ID,
			PreviousStatus: &previous,
			NewStatus:      model.CargoStatusDelivered,
			UpdatedBy:      actorID,
			Remarks:        "cargo collected by customer",
			UpdatedAt:      now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Release order completed", "release_code", releaseCode, "cargo_id", cargo.ID)

	s.publisher.Publish(ctx, model.NotificationEvent{
		Kind:           model.NotifyReleaseOrderRedeemed,
		CustomerID:     cargo.CustomerID,
		CargoID:        cargo.ID,
		TrackingNumber: cargo.TrackingNumber,
		ReleaseCode:    releaseCode,
	})

	used := release
	used.Status = model.ReleaseOrderStatusUsed
	used.UsedAt = &now
	return used, nil
}

func (s *PaymentService) GetReleaseOrder(ctx context.Context, releaseCode string) (*model.ReleaseOrder, error) {
	release, err := s.releaseRepo.GetByCode(ctx, releaseCode)
	if err != nil {
		if errors.Is(err, repository.ErrReleaseOrderNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return release, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}
