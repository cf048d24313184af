package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInactiveWallet      = errors.New("wallet is not active")
	ErrConcurrentUpdate    = errors.New("concurrent update detected")
	ErrMaxRetriesExceeded  = errors.New("max retries exceeded")
	ErrDuplicateWallet     = errors.New("wallet already exists for customer")
	ErrEntryNotFound       = errors.New("wallet transaction not found")
)

type WalletRepository struct {
	*pg.DB
}

func NewWalletRepository(db *pg.DB) *WalletRepository {
	return &WalletRepository{
		db,
	}
}

func (r *WalletRepository) Create(ctx context.Context, w *model.Wallet) (*model.Wallet, error) {
	entity := toWalletEntity(w)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateWallet
		}
		return nil, err
	}

	return toWalletModel(entity), nil
}

func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*model.Wallet, error) {
	var entity WalletEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return toWalletModel(&entity), nil
}

func (r *WalletRepository) GetByCustomer(ctx context.Context, customerID int64) (*model.Wallet, error) {
	var entity WalletEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return toWalletModel(&entity), nil
}

// Credit adds funds to the wallet and writes the matching ledger entry
// with automatic retry. The entry template carries type, reference,
// description and any invoice/payment links; balances are computed
// under the row lock.
func (r *WalletRepository) Credit(ctx context.Context, walletID int64, amount model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error) {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		txn, err := r.creditAttempt(ctx, walletID, amount, entry)

		if err == nil {
			return txn, nil
		}

		// Don't retry on permanent errors
		if errors.Is(err, ErrWalletNotFound) ||
			errors.Is(err, ErrInactiveWallet) {
			return nil, err
		}

		// Retry on transient errors
		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt) // Exponential backoff: 2ms, 4ms, 8ms
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return nil, fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

// creditAttempt runs one lock-update-record cycle inside a single
// transaction, so the row lock holds until commit and a failed ledger
// write rolls the balance change back with it.
func (r *WalletRepository) creditAttempt(ctx context.Context, walletID int64, amount model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error) {
	var txn *model.WalletTransaction

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		var entity WalletEntity

		// SELECT FOR UPDATE - acquire pessimistic lock on the wallet row
		err := r.Write(ctx).WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", walletID).
			First(&entity).
			Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		if !entity.IsActive {
			return ErrInactiveWallet
		}

		before := model.Cents(entity.Balance)
		after := before + amount

		result := r.Write(ctx).WithContext(ctx).
			Model(&WalletEntity{}).
			Where("id = ?", walletID).
			Update("balance", gorm.Expr("balance + ?", int64(amount)))

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		txn, err = r.writeEntry(ctx, walletID, amount, before, after, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// Debit removes funds from the wallet and writes the matching ledger
// entry with automatic retry. The balance check runs under the row
// lock, so the balance can never go negative.
func (r *WalletRepository) Debit(ctx context.Context, walletID int64, amount model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error) {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		txn, err := r.debitAttempt(ctx, walletID, amount, entry)

		if err == nil {
			return txn, nil
		}

		// Don't retry on permanent errors
		if errors.Is(err, ErrWalletNotFound) ||
			errors.Is(err, ErrInsufficientBalance) ||
			errors.Is(err, ErrInactiveWallet) {
			return nil, err
		}

		// Retry on transient errors
		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return nil, fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

// debitAttempt mirrors creditAttempt: lock, guard, update and record
// commit or roll back as one unit.
func (r *WalletRepository) debitAttempt(ctx context.Context, walletID int64, amount model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error) {
	var txn *model.WalletTransaction

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		var entity WalletEntity

		err := r.Write(ctx).WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", walletID).
			First(&entity).
			Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		if !entity.IsActive {
			return ErrInactiveWallet
		}

		if model.Cents(entity.Balance) < amount {
			return ErrInsufficientBalance
		}

		before := model.Cents(entity.Balance)
		after := before - amount

		result := r.Write(ctx).WithContext(ctx).
			Model(&WalletEntity{}).
			Where("id = ? AND balance >= ?", walletID, int64(amount)).
			Update("balance", gorm.Expr("balance - ?", int64(amount)))

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		txn, err = r.writeEntry(ctx, walletID, amount, before, after, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// writeEntry records the ledger row for a balance mutation that just
// happened under the lock.
func (r *WalletRepository) writeEntry(ctx context.Context, walletID int64, amount, before, after model.Cents, entry *model.WalletTransaction) (*model.WalletTransaction, error) {
	e := toWalletTransactionEntity(entry)
	e.ID = 0
	e.WalletID = walletID
	e.Amount = int64(amount)
	e.BalanceBefore = int64(before)
	e.BalanceAfter = int64(after)
	if e.Status == "" {
		e.Status = "completed"
	}

	if err := r.Write(ctx).WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}

	return toWalletTransactionModel(e), nil
}

// AttachPayment binds a settled payment to an existing ledger entry and
// relabels it as an auto-payment. This is the single after-the-fact
// mutation the ledger permits.
func (r *WalletRepository) AttachPayment(ctx context.Context, entryID, paymentID int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&WalletTransactionEntity{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"type":       string(model.WalletTxAutoPayment),
			"payment_id": paymentID,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *WalletRepository) GetBalance(ctx context.Context, walletID int64) (model.Cents, error) {
	var entity WalletEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("balance").
		Where("id = ?", walletID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrWalletNotFound
		}
		return 0, err
	}

	return model.Cents(entity.Balance), nil
}

// SignedSum folds the full ledger for a wallet into the balance it
// implies. Reconciliation checks compare it against the stored balance.
func (r *WalletRepository) SignedSum(ctx context.Context, walletID int64) (model.Cents, error) {
	var sum *int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&WalletTransactionEntity{}).
		Select("SUM(CASE WHEN type IN (?, ?) THEN amount ELSE -amount END)",
			string(model.WalletTxDeposit), string(model.WalletTxRefund)).
		Where("wallet_id = ?", walletID).
		Scan(&sum).
		Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return model.Cents(*sum), nil
}

func (r *WalletRepository) GetTransaction(ctx context.Context, id int64) (*model.WalletTransaction, error) {
	var entity WalletTransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return toWalletTransactionModel(&entity), nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, f model.WalletTransactionFilter) ([]*model.WalletTransaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&WalletTransactionEntity{}).
		Where("wallet_id = ?", f.WalletID)

	if f.Type != nil {
		q = q.Where("type = ?", string(*f.Type))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "id"
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

	var entities []*WalletTransactionEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toWalletTransactionModels(entities), total, nil
}

func (r *WalletRepository) SetAutoPayment(ctx context.Context, walletID int64, enabled bool) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&WalletEntity{}).
		Where("id = ?", walletID).
		Update("auto_payment_enabled", enabled)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}

	return nil
}
