package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"example.com/medfleet/services/lorry/internal/db"
	"example.com/medfleet/services/lorry/internal/model"
)

// LatestAction is one row of the reconstruction query: the most recent ledger
// action for a uid on a lorry before a cutoff.
type LatestAction struct {
	UID    string           `gorm:"column:uid"`
	Action model.ActionType `gorm:"column:action"`
}

// TransactionRepository defines the interface for the ledger store
type TransactionRepository interface {
	Append(ctx context.Context, tx *model.Transaction) error
	GetByID(ctx context.Context, id uint) (*model.Transaction, error)
	LatestActionsByUID(ctx context.Context, lorryID string, before time.Time) ([]LatestAction, error)
	HasHistory(ctx context.Context, lorryID string) (bool, error)
	LastCustodian(ctx context.Context, lorryID string) (*model.Transaction, error)
	ListByLorry(ctx context.Context, lorryID string, limit int) ([]*model.Transaction, error)
	ListByUID(ctx context.Context, uid string, limit int) ([]*model.Transaction, error)
	DistinctLorryIDs(ctx context.Context) ([]string, error)
}

// transactionRepository implements TransactionRepository
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new ledger repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Append persists one immutable ledger row. The sequence id is assigned by
// the store; no update or delete is exposed.
func (r *transactionRepository) Append(ctx context.Context, tx *model.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID gets a transaction by its sequence id
func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// LatestActionsByUID returns, for every uid ever recorded on the lorry before
// the cutoff, the action of its most recent transaction. Ties on
// transaction_time break on the sequence id. One query, no per-uid round
// trips.
func (r *transactionRepository) LatestActionsByUID(ctx context.Context, lorryID string, before time.Time) ([]LatestAction, error) {
	var rows []LatestAction

	query := `WITH latest AS (
                  SELECT uid, action,
                         ROW_NUMBER() OVER (PARTITION BY uid ORDER BY transaction_time DESC, id DESC) AS row_num
                  FROM transactions
                  WHERE lorry_id = ? AND transaction_time < ?
              )
              SELECT uid, action FROM latest WHERE row_num = 1`

	if err := r.db.WithContext(ctx).Raw(query, lorryID, before).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// HasHistory reports whether any transaction exists for the lorry. Callers
// use this to tell "no history" apart from "verified empty".
func (r *transactionRepository) HasHistory(ctx context.Context, lorryID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("lorry_id = ?", lorryID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LastCustodian returns the most recent transaction on the lorry that carries
// a driver id, regardless of age. Returns ErrNotFound when no driver ever
// touched the lorry.
func (r *transactionRepository) LastCustodian(ctx context.Context, lorryID string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).
		Where("lorry_id = ? AND driver_id IS NOT NULL", lorryID).
		Order("transaction_time DESC, id DESC").
		First(&tx).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// ListByLorry lists the most recent transactions for a lorry
func (r *transactionRepository) ListByLorry(ctx context.Context, lorryID string, limit int) ([]*model.Transaction, error) {
	var txs []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("lorry_id = ?", lorryID).
		Order("transaction_time DESC, id DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// ListByUID lists the movement trail of one serialized item
func (r *transactionRepository) ListByUID(ctx context.Context, uid string, limit int) ([]*model.Transaction, error) {
	var txs []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("transaction_time DESC, id DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// DistinctLorryIDs lists every lorry that ever appeared in the ledger
func (r *transactionRepository) DistinctLorryIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Distinct("lorry_id").
		Pluck("lorry_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
