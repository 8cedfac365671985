package service

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/cache"
	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

// LorryStock is one lorry's reconstructed stock in a fleet report
type LorryStock struct {
	LorryID    string   `json:"lorry_id"`
	LorryCode  string   `json:"lorry_code"`
	UIDs       []string `json:"uids"`
	Count      int      `json:"count"`
	HasHistory bool     `json:"has_history"`
}

// StockService reconstructs lorry stock from the ledger. It is the single
// source of truth for "what is on lorry L as of day D"; verification,
// reporting and admin tooling all read through it.
type StockService interface {
	CurrentStock(ctx context.Context, lorryID string, asOf time.Time) ([]string, error)
	CurrentStockWithPolicy(ctx context.Context, lorryID string, asOf time.Time, policy model.ActionPolicy) ([]string, error)
	HasHistory(ctx context.Context, lorryID string) (bool, error)
	FleetReport(ctx context.Context, asOf time.Time) ([]LorryStock, error)
	DuplicateUIDs(ctx context.Context, asOf time.Time) (map[string][]string, error)
}

// stockService implements StockService
type stockService struct {
	store  *repository.Store
	cache  cache.Client
	policy model.ActionPolicy
	log    *logrus.Logger
}

// NewStockService creates a new stock reconstructor. The policy resolves
// ambiguous actions; anything it leaves unresolved is excluded from stock.
func NewStockService(store *repository.Store, cacheClient cache.Client, policy model.ActionPolicy, log *logrus.Logger) StockService {
	return &stockService{
		store:  store,
		cache:  cacheClient,
		policy: policy,
		log:    log,
	}
}

// stockFromLatest filters latest-event rows down to the uids that are in
// stock under the policy. Ambiguous actions without a policy entry fail
// closed. The result is sorted for deterministic comparisons.
func stockFromLatest(rows []repository.LatestAction, policy model.ActionPolicy) []string {
	uids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Action.InStock(policy) {
			uids = append(uids, row.UID)
		}
	}
	sort.Strings(uids)
	return uids
}

// CurrentStock reconstructs the stock of a lorry as of the end of the given
// business day using the service's default policy.
func (s *stockService) CurrentStock(ctx context.Context, lorryID string, asOf time.Time) ([]string, error) {
	return s.CurrentStockWithPolicy(ctx, lorryID, asOf, s.policy)
}

// CurrentStockWithPolicy reconstructs stock with a caller-supplied policy for
// ambiguous actions.
func (s *stockService) CurrentStockWithPolicy(ctx context.Context, lorryID string, asOf time.Time, policy model.ActionPolicy) ([]string, error) {
	if lorryID == "" {
		return nil, NewValidationError("lorry_id is required")
	}

	cutoff := model.BusinessDayEnd(asOf)
	rows, err := s.store.Transactions.LatestActionsByUID(ctx, lorryID, cutoff)
	if err != nil {
		return nil, NewSystemError("reconstruct stock", err)
	}
	return stockFromLatest(rows, policy), nil
}

// HasHistory reports whether the lorry has any ledger rows at all, letting
// callers tell a brand-new vehicle apart from a verified-empty one.
func (s *stockService) HasHistory(ctx context.Context, lorryID string) (bool, error) {
	if lorryID == "" {
		return false, NewValidationError("lorry_id is required")
	}
	has, err := s.store.Transactions.HasHistory(ctx, lorryID)
	if err != nil {
		return false, NewSystemError("check lorry history", err)
	}
	return has, nil
}

// FleetReport reconstructs the stock of every active lorry as of a day.
// Results are cached briefly per lorry and day for dashboard reads; the
// verification path never reads this cache.
func (s *stockService) FleetReport(ctx context.Context, asOf time.Time) ([]LorryStock, error) {
	lorries, err := s.store.Lorries.ListActive(ctx)
	if err != nil {
		return nil, NewSystemError("list lorries", err)
	}

	report := make([]LorryStock, 0, len(lorries))
	for _, lorry := range lorries {
		entry := LorryStock{LorryID: lorry.UUID, LorryCode: lorry.Code}

		if s.cache != nil {
			if uids, err := s.cache.GetFleetStock(ctx, lorry.UUID, asOf); err == nil {
				entry.UIDs = uids
				entry.Count = len(uids)
				entry.HasHistory = true
				report = append(report, entry)
				continue
			}
		}

		has, err := s.HasHistory(ctx, lorry.UUID)
		if err != nil {
			return nil, err
		}
		entry.HasHistory = has

		uids, err := s.CurrentStock(ctx, lorry.UUID, asOf)
		if err != nil {
			return nil, err
		}
		entry.UIDs = uids
		entry.Count = len(uids)

		if s.cache != nil && has {
			if err := s.cache.SetFleetStock(ctx, lorry.UUID, asOf, uids); err != nil {
				s.log.WithError(err).Debug("failed to cache fleet stock entry")
			}
		}

		report = append(report, entry)
	}
	return report, nil
}

// DuplicateUIDs reports uids that appear in stock on more than one lorry as
// of a day. The ledger partitions stock per lorry, so inconsistent histories
// can place one physical item on two vehicles; this surfaces them for admin
// review rather than rejecting writes.
func (s *stockService) DuplicateUIDs(ctx context.Context, asOf time.Time) (map[string][]string, error) {
	lorryIDs, err := s.store.Transactions.DistinctLorryIDs(ctx)
	if err != nil {
		return nil, NewSystemError("list ledger lorries", err)
	}

	holders := make(map[string][]string)
	for _, lorryID := range lorryIDs {
		uids, err := s.CurrentStock(ctx, lorryID, asOf)
		if err != nil {
			return nil, err
		}
		for _, uid := range uids {
			holders[uid] = append(holders[uid], lorryID)
		}
	}

	duplicates := make(map[string][]string)
	for uid, lorries := range holders {
		if len(lorries) > 1 {
			sort.Strings(lorries)
			duplicates[uid] = lorries
		}
	}
	return duplicates, nil
}
