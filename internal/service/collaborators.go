package service

import (
	"context"
	"errors"
	"time"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

// Notifier receives fire-and-forget events after a core write commits.
// Implementations must never fail the caller; delivery problems are logged
// and dropped.
type Notifier interface {
	TransactionRecorded(ctx context.Context, tx *model.Transaction)
	VerificationCompleted(ctx context.Context, verification *model.StockVerification)
	HoldCreated(ctx context.Context, hold *model.DriverHold)
	HoldResolved(ctx context.Context, hold *model.DriverHold)
}

// SKUResolver resolves the product type of a serialized item from the order
// registry. Resolution is best-effort; a miss never blocks a ledger append.
type SKUResolver interface {
	ResolveSKU(ctx context.Context, uid string) (string, error)
}

// ErrLockNotObtained is returned by a DateLocker when another holder owns
// the lock.
var ErrLockNotObtained = errors.New("lock not obtained")

// DateLocker serializes batch operations that must run single-writer per
// calendar day, such as auto-assignment.
type DateLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

// ledgerSKUResolver resolves an item's product type from its own ledger
// trail: the most recent row that carried a sku wins.
type ledgerSKUResolver struct {
	store *repository.Store
}

// NewLedgerSKUResolver creates a resolver backed by the transaction ledger
func NewLedgerSKUResolver(store *repository.Store) SKUResolver {
	return &ledgerSKUResolver{store: store}
}

func (r *ledgerSKUResolver) ResolveSKU(ctx context.Context, uid string) (string, error) {
	txs, err := r.store.Transactions.ListByUID(ctx, uid, 20)
	if err != nil {
		return "", err
	}
	for _, tx := range txs {
		if tx.SkuID != nil && *tx.SkuID != "" {
			return *tx.SkuID, nil
		}
	}
	return "", nil
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) TransactionRecorded(context.Context, *model.Transaction)         {}
func (NopNotifier) VerificationCompleted(context.Context, *model.StockVerification) {}
func (NopNotifier) HoldCreated(context.Context, *model.DriverHold)                  {}
func (NopNotifier) HoldResolved(context.Context, *model.DriverHold)                 {}

// NopLocker runs the function without any cross-process serialization. Used
// by one-shot CLI invocations and tests.
type NopLocker struct{}

func (NopLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	return fn()
}
