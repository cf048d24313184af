package repository

import (
	"context"
	"errors"

	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvoiceSettled is returned by the guarded paid-flip when the
	// invoice already reached "paid". It is what makes settlement
	// exactly-once under concurrency.
	ErrInvoiceSettled = errors.New("invoice already paid")
)

type InvoiceRepository struct {
	*pg.DB
}

func NewInvoiceRepository(db *pg.DB) *InvoiceRepository {
	return &InvoiceRepository{
		db,
	}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error) {
	entity := toInvoiceEntity(inv)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toInvoiceModel(entity), nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*model.Invoice, error) {
	var entity InvoiceEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return toInvoiceModel(&entity), nil
}

// GetByIDAndControlNumber authenticates a manual payment submission:
// both values must match the same invoice row.
func (r *InvoiceRepository) GetByIDAndControlNumber(ctx context.Context, id int64, controlNumber string) (*model.Invoice, error) {
	var entity InvoiceEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ? AND control_number = ?", id, controlNumber).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return toInvoiceModel(&entity), nil
}

// GetOpenByCargo returns the newest non-cancelled invoice for a cargo,
// or ErrInvoiceNotFound. Arrival invoicing uses it to stay idempotent
// keyed on cargo id.
func (r *InvoiceRepository) GetOpenByCargo(ctx context.Context, cargoID int64) (*model.Invoice, error) {
	var entity InvoiceEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("cargo_id = ? AND status <> ?", cargoID, string(model.InvoiceStatusCancelled)).
		Order("id DESC").
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return toInvoiceModel(&entity), nil
}

// MarkPaid flips the invoice to paid with a guarded update. The WHERE
// clause excludes already-paid rows, so exactly one caller can win even
// when two settlements race.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, id int64, paymentMethod string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&InvoiceEntity{}).
		Where("id = ? AND status <> ?", id, string(model.InvoiceStatusPaid)).
		Updates(map[string]interface{}{
			"status":         string(model.InvoiceStatusPaid),
			"payment_method": paymentMethod,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Either the row does not exist or it is already paid.
		var entity InvoiceEntity
		err := r.Write(ctx).WithContext(ctx).
			Where("id = ?", id).
			First(&entity).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return err
		}
		return ErrInvoiceSettled
	}

	return nil
}

func (r *InvoiceRepository) List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&InvoiceEntity{})

	if f.CargoID != nil {
		q = q.Where("cargo_id = ?", *f.CargoID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*InvoiceEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toInvoiceModels(entities), total, nil
}
