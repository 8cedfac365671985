package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/metrics"
	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

// CreateHoldRequest places a manual hold on a driver
type CreateHoldRequest struct {
	DriverID    string `json:"driver_id" validate:"required"`
	Description string `json:"description" validate:"required"`
	CreatedBy   string `json:"created_by" validate:"required"`
}

// ResolveHoldRequest lifts a hold after investigation
type ResolveHoldRequest struct {
	HoldID          string `json:"hold_id" validate:"required"`
	ResolvedBy      string `json:"resolved_by" validate:"required"`
	ResolutionNotes string `json:"resolution_notes" validate:"required"`
}

// HoldService manages driver accountability holds. Variance holds are
// placed by the verification flow; this service covers manual holds and
// resolution.
type HoldService interface {
	CreateManual(ctx context.Context, req *CreateHoldRequest) (*model.DriverHold, error)
	Resolve(ctx context.Context, req *ResolveHoldRequest) (*model.DriverHold, error)
	GetByID(ctx context.Context, holdID string) (*model.DriverHold, error)
	ListForDriver(ctx context.Context, driverID string, activeOnly bool) ([]*model.DriverHold, error)
}

type holdService struct {
	store    *repository.Store
	notifier Notifier
	log      *logrus.Logger
}

// NewHoldService creates a new hold service
func NewHoldService(store *repository.Store, notifier Notifier, log *logrus.Logger) HoldService {
	return &holdService{
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// CreateManual places a hold on a driver by admin action
func (s *holdService) CreateManual(ctx context.Context, req *CreateHoldRequest) (*model.DriverHold, error) {
	if req.DriverID == "" {
		return nil, NewValidationError("driver_id is required")
	}
	if req.Description == "" {
		return nil, NewValidationError("description is required")
	}
	if req.CreatedBy == "" {
		return nil, NewValidationError("created_by is required")
	}

	if _, err := s.store.Drivers.GetByID(ctx, req.DriverID); err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "driver", ID: req.DriverID}
		}
		return nil, NewSystemError("load driver", err)
	}

	hold := &model.DriverHold{
		Base:        model.Base{UUID: uuid.New().String()},
		DriverID:    req.DriverID,
		Reason:      model.HoldReasonManual,
		Description: req.Description,
		Status:      model.HoldActive,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.store.Holds.Create(ctx, hold); err != nil {
		return nil, NewSystemError("create hold", err)
	}

	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterHoldsCreated, 1)
	s.notifier.HoldCreated(ctx, hold)

	s.log.WithFields(logrus.Fields{
		"hold_id":    hold.UUID,
		"driver_id":  hold.DriverID,
		"created_by": hold.CreatedBy,
	}).Info("Manual hold placed")

	return hold, nil
}

// Resolve lifts a hold. Resolution notes are mandatory so the audit trail
// records why the driver was cleared.
func (s *holdService) Resolve(ctx context.Context, req *ResolveHoldRequest) (*model.DriverHold, error) {
	if req.HoldID == "" {
		return nil, NewValidationError("hold_id is required")
	}
	if req.ResolvedBy == "" {
		return nil, NewValidationError("resolved_by is required")
	}
	if req.ResolutionNotes == "" {
		return nil, NewValidationError("resolution_notes is required")
	}

	hold, err := s.store.Holds.GetByID(ctx, req.HoldID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "hold", ID: req.HoldID}
		}
		return nil, NewSystemError("load hold", err)
	}
	if hold.Status == model.HoldResolved {
		return nil, NewConflictError("hold %s is already resolved", hold.UUID)
	}

	now := time.Now()
	hold.Status = model.HoldResolved
	hold.ResolvedBy = &req.ResolvedBy
	hold.ResolvedAt = &now
	hold.ResolutionNotes = &req.ResolutionNotes
	if err := s.store.Holds.Update(ctx, hold); err != nil {
		return nil, NewSystemError("resolve hold", err)
	}

	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterHoldsResolved, 1)
	s.notifier.HoldResolved(ctx, hold)

	s.log.WithFields(logrus.Fields{
		"hold_id":     hold.UUID,
		"driver_id":   hold.DriverID,
		"resolved_by": req.ResolvedBy,
	}).Info("Hold resolved")

	return hold, nil
}

// GetByID returns a single hold
func (s *holdService) GetByID(ctx context.Context, holdID string) (*model.DriverHold, error) {
	if holdID == "" {
		return nil, NewValidationError("hold_id is required")
	}
	hold, err := s.store.Holds.GetByID(ctx, holdID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "hold", ID: holdID}
		}
		return nil, NewSystemError("load hold", err)
	}
	return hold, nil
}

// ListForDriver returns a driver's holds, optionally only the active ones
func (s *holdService) ListForDriver(ctx context.Context, driverID string, activeOnly bool) ([]*model.DriverHold, error) {
	if driverID == "" {
		return nil, NewValidationError("driver_id is required")
	}
	var (
		holds []*model.DriverHold
		err   error
	)
	if activeOnly {
		holds, err = s.store.Holds.ListActiveByDriver(ctx, driverID)
	} else {
		holds, err = s.store.Holds.ListByDriver(ctx, driverID)
	}
	if err != nil {
		return nil, NewSystemError("list holds", err)
	}
	return holds, nil
}
