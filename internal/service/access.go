package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/metrics"
	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

// AccessDecision is the answer to "may this driver work orders right now",
// with a reason the driver app can show verbatim.
type AccessDecision struct {
	DriverID     string `json:"driver_id"`
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	LorryID      string `json:"lorry_id,omitempty"`
	ActiveHolds  int64  `json:"active_holds"`
}

// AccessService gates driver access to order work. A driver is let through
// only with no active holds, an open assignment for the day, and a completed
// stock verification on that assignment.
type AccessService interface {
	CanAccessOrders(ctx context.Context, driverID string, date time.Time) (*AccessDecision, error)
}

type accessService struct {
	store *repository.Store
	log   *logrus.Logger
}

// NewAccessService creates a new access service
func NewAccessService(store *repository.Store, log *logrus.Logger) AccessService {
	return &accessService{store: store, log: log}
}

// CanAccessOrders evaluates the gate checks in order of severity so the
// driver sees the most actionable reason first: holds, then assignment,
// then verification.
func (s *accessService) CanAccessOrders(ctx context.Context, driverID string, date time.Time) (*AccessDecision, error) {
	if driverID == "" {
		return nil, NewValidationError("driver_id is required")
	}
	day := model.BusinessDate(date)

	decision := &AccessDecision{DriverID: driverID}

	holds, err := s.store.Holds.CountActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, NewSystemError("count active holds", err)
	}
	decision.ActiveHolds = holds
	if holds > 0 {
		decision.Reason = "Account on hold pending stock variance review. Contact your supervisor."
		s.deny(decision)
		return decision, nil
	}

	assignment, err := s.store.Assignments.GetOpenByDriverAndDate(ctx, driverID, day)
	if err != nil {
		if err == repository.ErrNotFound {
			decision.Reason = "No lorry assignment found for today"
			s.deny(decision)
			return decision, nil
		}
		return nil, NewSystemError("load assignment", err)
	}
	decision.AssignmentID = assignment.UUID
	decision.LorryID = assignment.LorryID

	if !assignment.StockVerified {
		decision.Reason = "Stock verification required before accessing orders"
		s.deny(decision)
		return decision, nil
	}

	decision.Allowed = true
	return decision, nil
}

func (s *accessService) deny(decision *AccessDecision) {
	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterAccessDenied, 1)
	s.log.WithFields(logrus.Fields{
		"driver_id": decision.DriverID,
		"reason":    decision.Reason,
	}).Info("Driver order access denied")
}
