package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/cache"
	"example.com/medfleet/services/lorry/internal/metrics"
	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

// AppendRequest is a request to record one inventory-affecting event
type AppendRequest struct {
	LorryID         string     `json:"lorry_id" validate:"required"`
	Action          string     `json:"action" validate:"required"`
	UID             string     `json:"uid" validate:"required"`
	SkuID           *string    `json:"sku_id"`
	OrderID         *string    `json:"order_id"`
	DriverID        *string    `json:"driver_id"`
	ActorID         string     `json:"actor_id" validate:"required"`
	Notes           string     `json:"notes"`
	TransactionTime *time.Time `json:"transaction_time"`
}

// SoftCorrectRequest is a request to correct an earlier ledger row by
// appending, never by mutating history
type SoftCorrectRequest struct {
	TransactionID uint   `json:"transaction_id" validate:"required"`
	ActorID       string `json:"actor_id" validate:"required"`
	Notes         string `json:"notes" validate:"required"`
}

// LedgerService defines the interface for the append-only inventory ledger
type LedgerService interface {
	Append(ctx context.Context, req *AppendRequest) (*model.Transaction, error)
	SoftCorrect(ctx context.Context, req *SoftCorrectRequest) (*model.Transaction, error)
	LorryHistory(ctx context.Context, lorryID string, limit int) ([]*model.Transaction, error)
	ItemTrail(ctx context.Context, uid string, limit int) ([]*model.Transaction, error)
}

// ledgerService implements LedgerService
type ledgerService struct {
	store    *repository.Store
	resolver SKUResolver
	notifier Notifier
	cache    cache.Client
	log      *logrus.Logger
}

// NewLedgerService creates a new ledger service. cacheClient may be nil.
func NewLedgerService(store *repository.Store, resolver SKUResolver, notifier Notifier, cacheClient cache.Client, log *logrus.Logger) LedgerService {
	return &ledgerService{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		cache:    cacheClient,
		log:      log,
	}
}

// invalidateStock drops the cached reconstruction for the day a row landed
// on. Misses are logged and ignored; the cache has a TTL backstop.
func (s *ledgerService) invalidateStock(ctx context.Context, tx *model.Transaction) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFleetStock(ctx, tx.LorryID, tx.TransactionTime); err != nil {
		s.log.WithError(err).WithField("lorry_id", tx.LorryID).Debug("Stock cache invalidation failed")
	}
}

// Append validates and persists one immutable ledger row
func (s *ledgerService) Append(ctx context.Context, req *AppendRequest) (*model.Transaction, error) {
	if req.LorryID == "" {
		return nil, NewValidationError("lorry_id is required")
	}
	if req.UID == "" {
		return nil, NewValidationError("uid is required")
	}
	if req.Action == "" {
		return nil, NewValidationError("action is required")
	}
	action, ok := model.ActionTypeFromString(req.Action)
	if !ok {
		return nil, NewValidationError("unknown action %q", req.Action)
	}
	if req.ActorID == "" {
		return nil, NewValidationError("actor_id is required")
	}

	txTime := time.Now()
	if req.TransactionTime != nil {
		txTime = *req.TransactionTime
	}

	// Resolve the product type when the caller did not supply one. A miss
	// must never block the append.
	skuID := req.SkuID
	if skuID == nil && s.resolver != nil {
		if resolved, err := s.resolver.ResolveSKU(ctx, req.UID); err != nil {
			s.log.WithError(err).WithField("uid", req.UID).Debug("SKU resolution failed, appending without sku")
		} else if resolved != "" {
			skuID = &resolved
		}
	}

	tx := &model.Transaction{
		LorryID:         req.LorryID,
		Action:          action,
		UID:             req.UID,
		SkuID:           skuID,
		OrderID:         req.OrderID,
		DriverID:        req.DriverID,
		ActorID:         req.ActorID,
		Notes:           req.Notes,
		TransactionTime: txTime,
	}

	if err := s.store.Transactions.Append(ctx, tx); err != nil {
		return nil, NewSystemError("append transaction", err)
	}

	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterTransactionsAppended, 1)
	s.invalidateStock(ctx, tx)
	s.notifier.TransactionRecorded(ctx, tx)

	return tx, nil
}

// SoftCorrect appends an ADMIN_ADJUSTMENT row referencing the original
// transaction. The original is never touched.
func (s *ledgerService) SoftCorrect(ctx context.Context, req *SoftCorrectRequest) (*model.Transaction, error) {
	if req.ActorID == "" {
		return nil, NewValidationError("actor_id is required")
	}
	if req.Notes == "" {
		return nil, NewValidationError("a correction requires notes explaining the adjustment")
	}

	original, err := s.store.Transactions.GetByID(ctx, req.TransactionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "transaction", ID: fmt.Sprintf("%d", req.TransactionID)}
		}
		return nil, NewSystemError("load transaction", err)
	}

	correctsID := original.ID
	correction := &model.Transaction{
		LorryID:         original.LorryID,
		Action:          model.ActionAdminAdjustment,
		UID:             original.UID,
		SkuID:           original.SkuID,
		OrderID:         original.OrderID,
		ActorID:         req.ActorID,
		Notes:           req.Notes,
		CorrectsID:      &correctsID,
		TransactionTime: time.Now(),
	}

	if err := s.store.Transactions.Append(ctx, correction); err != nil {
		return nil, NewSystemError("append correction", err)
	}

	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterTransactionsAppended, 1)
	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterCorrections, 1)
	s.invalidateStock(ctx, correction)
	s.notifier.TransactionRecorded(ctx, correction)

	return correction, nil
}

// LorryHistory lists the most recent ledger rows for a lorry
func (s *ledgerService) LorryHistory(ctx context.Context, lorryID string, limit int) ([]*model.Transaction, error) {
	if lorryID == "" {
		return nil, NewValidationError("lorry_id is required")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txs, err := s.store.Transactions.ListByLorry(ctx, lorryID, limit)
	if err != nil {
		return nil, NewSystemError("list lorry history", err)
	}
	return txs, nil
}

// ItemTrail lists the movement trail of one serialized item across lorries
func (s *ledgerService) ItemTrail(ctx context.Context, uid string, limit int) ([]*model.Transaction, error) {
	if uid == "" {
		return nil, NewValidationError("uid is required")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txs, err := s.store.Transactions.ListByUID(ctx, uid, limit)
	if err != nil {
		return nil, NewSystemError("list item trail", err)
	}
	return txs, nil
}
