package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zigopay/cargo-gateway/internal/model"
)

func TestReleaseOrderRepository_MarkUsed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReleaseOrderRepository(db.DB)
	ctx := context.Background()

	ro, err := repo.Create(ctx, &model.ReleaseOrder{
		CargoID:     1,
		PaymentID:   1,
		ReleaseCode: "RO-260115-A1B2C3",
		Status:      model.ReleaseOrderStatusActive,
	})
	require.NoError(t, err)

	usedAt := time.Now()
	err = repo.MarkUsed(ctx, ro.ID, usedAt)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, ro.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReleaseOrderStatusUsed, got.Status)
	require.NotNil(t, got.UsedAt)

	// Redeeming twice must fail; the code is single-use.
	err = repo.MarkUsed(ctx, ro.ID, time.Now())
	assert.ErrorIs(t, err, ErrReleaseOrderUsed)
}

func TestReleaseOrderRepository_MarkUsed_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReleaseOrderRepository(db.DB)

	err := repo.MarkUsed(context.Background(), 999, time.Now())
	assert.ErrorIs(t, err, ErrReleaseOrderNotFound)
}

func TestReleaseOrderRepository_GetByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReleaseOrderRepository(db.DB)
	ctx := context.Background()

	ro, err := repo.Create(ctx, &model.ReleaseOrder{
		CargoID:     2,
		PaymentID:   2,
		ReleaseCode: "RO-260116-D4E5F6",
		Status:      model.ReleaseOrderStatusActive,
	})
	require.NoError(t, err)

	got, err := repo.GetByCode(ctx, "RO-260116-D4E5F6")
	require.NoError(t, err)
	assert.Equal(t, ro.ID, got.ID)

	_, err = repo.GetByCode(ctx, "RO-260116-MISSING")
	assert.ErrorIs(t, err, ErrReleaseOrderNotFound)
}
