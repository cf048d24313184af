package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/internal/repository"
	"github.com/zigopay/cargo-gateway/pkg/logger"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error)
	GetByID(ctx context.Context, id int64) (*model.Invoice, error)
	GetByIDAndControlNumber(ctx context.Context, id int64, controlNumber string) (*model.Invoice, error)
	GetOpenByCargo(ctx context.Context, cargoID int64) (*model.Invoice, error)
	MarkPaid(ctx context.Context, id int64, paymentMethod string) error
	List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, int64, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type InvoiceCargoRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Cargo, error)
}

type InvoiceService struct {
	invoiceRepo InvoiceRepository
	cargoRepo   InvoiceCargoRepository
	publisher   NotificationPublisher

	ratePercent int64
	dueDays     int
}

func NewInvoiceService(invoiceRepo InvoiceRepository, cargoRepo InvoiceCargoRepository, publisher NotificationPublisher, ratePercent int64, dueDays int) *InvoiceService {
	if ratePercent <= 0 {
		ratePercent = 30
	}
	if dueDays <= 0 {
		dueDays = 7
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		cargoRepo:   cargoRepo,
		publisher:   publisher,
		ratePercent: ratePercent,
		dueDays:     dueDays,
	}
}

// CreateForCargo issues the arrival invoice for a cargo: the configured
// percentage of the declared value, due after the configured grace
// period. It is idempotent keyed on the cargo: an existing non-cancelled
// invoice is returned instead of creating a second one.
func (s *InvoiceService) CreateForCargo(ctx context.Context, cargo *model.Cargo) (*model.Invoice, error) {
	existing, err := s.invoiceRepo.GetOpenByCargo(ctx, cargo.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrInvoiceNotFound) {
		return nil, fmt.Errorf("lookup open invoice: %w", err)
	}

	now := time.Now()
	inv := &model.Invoice{
		CargoID:       cargo.ID,
		ControlNumber: NewControlNumber(now),
		Amount:        cargo.Value * model.Cents(s.ratePercent) / 100,
		Currency:      "USD",
		DueDate:       now.Add(time.Duration(s.dueDays) * 24 * time.Hour),
		Status:        model.InvoiceStatusPending,
	}

	created, err := s.invoiceRepo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	logger.Info("Invoice created on arrival", "cargo_id", cargo.ID, "control_number", created.ControlNumber, "amount", created.Amount.String())

	s.publisher.Publish(ctx, model.NotificationEvent{
		Kind:           model.NotifyInvoiceCreated,
		CustomerID:     cargo.CustomerID,
		CargoID:        cargo.ID,
		TrackingNumber: cargo.TrackingNumber,
		ControlNumber:  created.ControlNumber,
		Amount:         created.Amount,
	})

	return created, nil
}

// Generate creates an invoice with an explicit amount, for charges the
// arrival default does not cover.
func (s *InvoiceService) Generate(ctx context.Context, p model.InvoiceGenerateRequest) (*model.Invoice, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cargo, err := s.cargoRepo.GetByID(ctx, p.CargoID)
	if err != nil {
		if errors.Is(err, repository.ErrCargoNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	inv := &model.Invoice{
		CargoID:       cargo.ID,
		ControlNumber: NewControlNumber(now),
		Amount:        p.Amount,
		Currency:      "USD",
		DueDate:       now.Add(time.Duration(s.dueDays) * 24 * time.Hour),
		Status:        model.InvoiceStatusPending,
		CreatedBy:     p.ActorID,
	}

	created, err := s.invoiceRepo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.publisher.Publish(ctx, model.NotificationEvent{
		Kind:           model.NotifyInvoiceCreated,
		CustomerID:     cargo.CustomerID,
		CargoID:        cargo.ID,
		TrackingNumber: cargo.TrackingNumber,
		ControlNumber:  created.ControlNumber,
		Amount:         created.Amount,
	})

	return created, nil
}

func (s *InvoiceService) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return withDerivedStatus(inv), nil
}

func (s *InvoiceService) List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, int64, error) {
	invoices, total, err := s.invoiceRepo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for i, inv := range invoices {
		invoices[i] = withDerivedStatus(inv)
	}
	return invoices, total, nil
}

// withDerivedStatus surfaces "overdue" on reads without ever storing
// it; the row stays pending and remains payable.
func withDerivedStatus(inv *model.Invoice) *model.Invoice {
	if inv.IsOverdue(time.Now()) {
		view := *inv
		view.Status = model.InvoiceStatusOverdue
		return &view
	}
	return inv
}
