package repository

import (
	"context"
	"errors"

	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCargoNotFound is returned when a cargo record does not exist.
	ErrCargoNotFound = errors.New("cargo not found")
)

type CargoRepository struct {
	*pg.DB
}

func NewCargoRepository(db *pg.DB) *CargoRepository {
	return &CargoRepository{
		db,
	}
}

func (r *CargoRepository) Create(ctx context.Context, c *model.Cargo) (*model.Cargo, error) {
	entity := toCargoEntity(c)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCargoModel(entity), nil
}

func (r *CargoRepository) GetByID(ctx context.Context, id int64) (*model.Cargo, error) {
	var entity CargoEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCargoNotFound
		}
		return nil, err
	}
	return toCargoModel(&entity), nil
}

func (r *CargoRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Cargo, error) {
	var entity CargoEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCargoNotFound
		}
		return nil, err
	}
	return toCargoModel(&entity), nil
}

// LockForUpdate reads the cargo row under a row-level write lock.
// Callers must be inside WithinTransaction; the lock is what serializes
// concurrent status updates on the same cargo.
func (r *CargoRepository) LockForUpdate(ctx context.Context, id int64) (*model.Cargo, error) {
	var entity CargoEntity
	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCargoNotFound
		}
		return nil, err
	}
	return toCargoModel(&entity), nil
}

func (r *CargoRepository) SetStatus(ctx context.Context, id int64, status model.CargoStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&CargoEntity{}).
		Where("id = ?", id).
		Update("status", string(status))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCargoNotFound
	}
	return nil
}

func (r *CargoRepository) AppendHistory(ctx context.Context, h *model.CargoHistory) (*model.CargoHistory, error) {
	entity := toCargoHistoryEntity(h)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCargoHistoryModel(entity), nil
}

func (r *CargoRepository) ListHistory(ctx context.Context, cargoID int64, desc bool) ([]*model.CargoHistory, error) {
	order := "updated_at ASC, id ASC"
	if desc {
		order = "updated_at DESC, id DESC"
	}

	var entities []*CargoHistoryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("cargo_id = ?", cargoID).
		Order(order).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toCargoHistoryModels(entities), nil
}

func (r *CargoRepository) List(ctx context.Context, f model.CargoFilter) ([]*model.Cargo, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&CargoEntity{})

	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Search != nil && *f.Search != "" {
		like := "%" + *f.Search + "%"
		q = q.Where("tracking_number LIKE ? OR name LIKE ?", like, like)
	}

	// Count before pagination
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

	var entities []*CargoEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toCargoModels(entities), total, nil
}
