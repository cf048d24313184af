package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zigopay/cargo-gateway/internal/model"
)

func newTestInvoice(t *testing.T, db *testDB, cargoID int64, controlNumber string, amount model.Cents) *model.Invoice {
	t.Helper()
	repo := NewInvoiceRepository(db.DB)
	inv, err := repo.Create(context.Background(), &model.Invoice{
		CargoID:       cargoID,
		ControlNumber: controlNumber,
		Amount:        amount,
		Currency:      "USD",
		DueDate:       time.Now().Add(7 * 24 * time.Hour),
		Status:        model.InvoiceStatusPending,
	})
	require.NoError(t, err)
	return inv
}

func TestInvoiceRepository_MarkPaid(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db.DB)
	ctx := context.Background()

	inv := newTestInvoice(t, db, 1, "ZP-260115-A1B2C3", 30_000)

	err := repo.MarkPaid(ctx, inv.ID, "wallet")
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, got.Status)
	assert.Equal(t, "wallet", got.PaymentMethod)

	// The guarded flip must refuse a second settlement.
	err = repo.MarkPaid(ctx, inv.ID, "cash")
	assert.ErrorIs(t, err, ErrInvoiceSettled)

	got, err = repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "wallet", got.PaymentMethod)
}

func TestInvoiceRepository_MarkPaid_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db.DB)

	err := repo.MarkPaid(context.Background(), 999, "cash")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestInvoiceRepository_GetByIDAndControlNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db.DB)
	ctx := context.Background()

	inv := newTestInvoice(t, db, 2, "ZP-260116-D4E5F6", 10_000)

	got, err := repo.GetByIDAndControlNumber(ctx, inv.ID, "ZP-260116-D4E5F6")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	_, err = repo.GetByIDAndControlNumber(ctx, inv.ID, "ZP-260116-WRONG0")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestInvoiceRepository_GetOpenByCargo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db.DB)
	ctx := context.Background()

	_, err := repo.GetOpenByCargo(ctx, 3)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	cancelled := newTestInvoice(t, db, 3, "ZP-260117-000001", 5_000)
	err = db.rawDB.Model(&InvoiceEntity{}).
		Where("id = ?", cancelled.ID).
		Update("status", string(model.InvoiceStatusCancelled)).Error
	require.NoError(t, err)

	// Cancelled invoices never count as open.
	_, err = repo.GetOpenByCargo(ctx, 3)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	open := newTestInvoice(t, db, 3, "ZP-260117-000002", 5_000)

	got, err := repo.GetOpenByCargo(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.ID)
}

func TestInvoiceRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db.DB)
	ctx := context.Background()

	newTestInvoice(t, db, 4, "ZP-260118-000001", 1_000)
	paid := newTestInvoice(t, db, 4, "ZP-260118-000002", 2_000)
	newTestInvoice(t, db, 5, "ZP-260118-000003", 3_000)

	require.NoError(t, repo.MarkPaid(ctx, paid.ID, "cash"))

	cargoID := int64(4)
	invoices, total, err := repo.List(ctx, model.InvoiceFilter{CargoID: &cargoID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, invoices, 2)

	status := model.InvoiceStatusPaid
	invoices, total, err = repo.List(ctx, model.InvoiceFilter{Status: &status})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, invoices, 1)
	assert.Equal(t, paid.ID, invoices[0].ID)
}
