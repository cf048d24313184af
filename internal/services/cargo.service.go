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

type CargoRepository interface {
	Create(ctx context.Context, c *model.Cargo) (*model.Cargo, error)
	GetByID(ctx context.Context, id int64) (*model.Cargo, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Cargo, error)
	LockForUpdate(ctx context.Context, id int64) (*model.Cargo, error)
	SetStatus(ctx context.Context, id int64, status model.CargoStatus) error
	AppendHistory(ctx context.Context, h *model.CargoHistory) (*model.CargoHistory, error)
	ListHistory(ctx context.Context, cargoID int64, desc bool) ([]*model.CargoHistory, error)
	List(ctx context.Context, f model.CargoFilter) ([]*model.Cargo, int64, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CustomerGetter resolves the owning customer before a cargo is
// accepted.
type CustomerGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
}

// ArrivalInvoicer issues the arrival invoice; the cargo service does
// not care how the amount is computed.
type ArrivalInvoicer interface {
	CreateForCargo(ctx context.Context, cargo *model.Cargo) (*model.Invoice, error)
}

// ArrivalSettler runs the auto-payment attempt for a fresh arrival.
type ArrivalSettler interface {
	TrySettle(ctx context.Context, cargo *model.Cargo, invoice *model.Invoice) (*AutoPayResult, error)
}

// StatusUpdateResult reports a status change plus whatever the arrival
// pipeline produced.
type StatusUpdateResult struct {
	Cargo   *model.Cargo   `json:"cargo"`
	Invoice *model.Invoice `json:"invoice,omitempty"`
	AutoPay *AutoPayResult `json:"auto_payment,omitempty"`
}

// TrackingView is the public projection of a cargo: timeline plus a
// coarse current location.
type TrackingView struct {
	TrackingNumber  string                `json:"tracking_number"`
	Status          model.CargoStatus     `json:"status"`
	Origin          string                `json:"origin"`
	Destination     string                `json:"destination"`
	CurrentLocation string                `json:"current_location"`
	Timeline        []model.TrackingPoint `json:"timeline"`
}

type CargoService struct {
	cargoRepo    CargoRepository
	customerRepo CustomerGetter
	invoicer     ArrivalInvoicer
	settler      ArrivalSettler
}

func NewCargoService(cargoRepo CargoRepository, customerRepo CustomerGetter, invoicer ArrivalInvoicer, settler ArrivalSettler) *CargoService {
	return &CargoService{
		cargoRepo:    cargoRepo,
		customerRepo: customerRepo,
		invoicer:     invoicer,
		settler:      settler,
	}
}

// Create registers a cargo. The record and its registration history row
// commit together.
func (s *CargoService) Create(ctx context.Context, p model.CargoCreateRequest) (*model.Cargo, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.GetByID(ctx, p.CustomerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrUnknownCustomer
		}
		return nil, err
	}

	now := time.Now()
	cbm := p.CBM
	if cbm == 0 && p.Length > 0 && p.Width > 0 && p.Height > 0 {
		cbm = p.Length * p.Width * p.Height / 1000
	}

	c := &model.Cargo{
		CustomerID:     p.CustomerID,
		TrackingNumber: NewTrackingNumber(now),
		Name:           p.Name,
		Description:    p.Description,
		Origin:         p.Origin,
		Destination:    p.Destination,
		WeightKg:       p.WeightKg,
		Value:          p.Value,
		CBM:            cbm,
		Length:         p.Length,
		Width:          p.Width,
		Height:         p.Height,
		Status:         model.CargoStatusPending,
		CreatedBy:      p.ActorID,
	}

	var created *model.Cargo
	err := s.cargoRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.cargoRepo.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("create cargo: %w", err)
		}

		_, err = s.cargoRepo.AppendHistory(ctx, &model.CargoHistory{
			CargoID:   created.ID,
			NewStatus: model.CargoStatusPending,
			UpdatedBy: p.ActorID,
			Remarks:   "cargo registered",
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cargo registered", "cargo_id", created.ID, "tracking_number", created.TrackingNumber, "customer_id", created.CustomerID)

	return created, nil
}

// UpdateStatus moves a cargo through its lifecycle. Only unrecognized
// statuses are rejected. An arrival additionally issues the invoice and
// runs the auto-payment attempt; failures past the status write are
// logged but do not undo the arrival itself.
func (s *CargoService) UpdateStatus(ctx context.Context, cargoID int64, newStatus model.CargoStatus, actorID int64, remarks string) (*StatusUpdateResult, error) {
	if !model.KnownCargoStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	now := time.Now()
	var cargo *model.Cargo

	// Tx1: the status change and its history row, serialized per cargo
	// by the row lock.
	err := s.cargoRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.cargoRepo.LockForUpdate(ctx, cargoID)
		if err != nil {
			if errors.Is(err, repository.ErrCargoNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := s.cargoRepo.SetStatus(ctx, cargoID, newStatus); err != nil {
			return fmt.Errorf("set status: %w", err)
		}

		previous := locked.Status
		_, err = s.cargoRepo.AppendHistory(ctx, &model.CargoHistory{
			CargoID:        cargoID,
			PreviousStatus: &previous,
			NewStatus:      newStatus,
			UpdatedBy:      actorID,
			Remarks:        remarks,
			UpdatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		updated := *locked
		updated.Status = newStatus
		cargo = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &StatusUpdateResult{Cargo: cargo}

	if newStatus != model.CargoStatusArrived {
		return result, nil
	}

	// Tx2: idempotent arrival invoice. The status change above is
	// already durable; a failure here leaves an arrived cargo that can
	// be re-invoiced manually.
	invoice, err := s.invoicer.CreateForCargo(ctx, cargo)
	if err != nil {
		logger.Error("Arrival invoicing failed", "cargo_id", cargoID, "error", err)
		return result, nil
	}
	result.Invoice = invoice

	// Tx3: the auto-payment attempt, atomic on its own.
	if s.settler != nil {
		autopay, err := s.settler.TrySettle(ctx, cargo, invoice)
		if err != nil {
			logger.Error("Auto-payment attempt failed", "cargo_id", cargoID, "invoice_id", invoice.ID, "error", err)
			return result, nil
		}
		result.AutoPay = autopay
	}

	return result, nil
}

func (s *CargoService) Get(ctx context.Context, id int64) (*model.Cargo, error) {
	c, err := s.cargoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCargoNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CargoService) List(ctx context.Context, f model.CargoFilter) ([]*model.Cargo, int64, error) {
	return s.cargoRepo.List(ctx, f)
}

func (s *CargoService) History(ctx context.Context, cargoID int64, desc bool) ([]*model.CargoHistory, error) {
	if _, err := s.Get(ctx, cargoID); err != nil {
		return nil, err
	}
	return s.cargoRepo.ListHistory(ctx, cargoID, desc)
}

// Track builds the public tracking view for a tracking number.
func (s *CargoService) Track(ctx context.Context, trackingNumber string) (*TrackingView, error) {
	c, err := s.cargoRepo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, repository.ErrCargoNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	history, err := s.cargoRepo.ListHistory(ctx, c.ID, false)
	if err != nil {
		return nil, err
	}

	timeline := make([]model.TrackingPoint, len(history))
	for i, h := range history {
		timeline[i] = model.TrackingPoint{
			Status:    h.NewStatus,
			Timestamp: h.UpdatedAt,
			Remarks:   h.Remarks,
		}
	}

	location := c.Origin
	switch c.Status {
	case model.CargoStatusInTransit:
		location = "in transit"
	case model.CargoStatusArrived, model.CargoStatusDelivered:
		location = c.Destination
	}

	return &TrackingView{
		TrackingNumber:  c.TrackingNumber,
		Status:          c.Status,
		Origin:          c.Origin,
		Destination:     c.Destination,
		CurrentLocation: location,
		Timeline:        timeline,
	}, nil
}
