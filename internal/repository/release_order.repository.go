package repository

import (
	"context"
	"errors"
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrReleaseOrderNotFound = errors.New("release order not found")
	// ErrReleaseOrderUsed is returned by the guarded redeem when the
	// order is no longer active; active→used is one-way.
	ErrReleaseOrderUsed = errors.New("release order already used or expired")
)

type ReleaseOrderRepository struct {
	*pg.DB
}

func NewReleaseOrderRepository(db *pg.DB) *ReleaseOrderRepository {
	return &ReleaseOrderRepository{
		db,
	}
}

func (r *ReleaseOrderRepository) Create(ctx context.Context, ro *model.ReleaseOrder) (*model.ReleaseOrder, error) {
	entity := toReleaseOrderEntity(ro)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toReleaseOrderModel(entity), nil
}

func (r *ReleaseOrderRepository) GetByID(ctx context.Context, id int64) (*model.ReleaseOrder, error) {
	var entity ReleaseOrderEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReleaseOrderNotFound
		}
		return nil, err
	}
	return toReleaseOrderModel(&entity), nil
}

func (r *ReleaseOrderRepository) GetByCode(ctx context.Context, releaseCode string) (*model.ReleaseOrder, error) {
	var entity ReleaseOrderEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("release_code = ?", releaseCode).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReleaseOrderNotFound
		}
		return nil, err
	}
	return toReleaseOrderModel(&entity), nil
}

// MarkUsed redeems the order with a guarded update so only one caller
// can ever win. RowsAffected == 0 means the order was already redeemed
// (or never existed).
func (r *ReleaseOrderRepository) MarkUsed(ctx context.Context, id int64, usedAt time.Time) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ReleaseOrderEntity{}).
		Where("id = ? AND status = ?", id, string(model.ReleaseOrderStatusActive)).
		Updates(map[string]interface{}{
			"status":  string(model.ReleaseOrderStatusUsed),
			"used_at": usedAt,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var entity ReleaseOrderEntity
		err := r.Write(ctx).WithContext(ctx).
			Where("id = ?", id).
			First(&entity).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReleaseOrderNotFound
			}
			return err
		}
		return ErrReleaseOrderUsed
	}

	return nil
}

func (r *ReleaseOrderRepository) ListByCargo(ctx context.Context, cargoID int64) ([]*model.ReleaseOrder, error) {
	var entities []*ReleaseOrderEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("cargo_id = ?", cargoID).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	models := make([]*model.ReleaseOrder, len(entities))
	for i, e := range entities {
		models[i] = toReleaseOrderModel(e)
	}
	return models, nil
}
