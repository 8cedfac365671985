package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

// CreateLorryRequest registers a lorry in the fleet
type CreateLorryRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// CreateDriverRequest registers a driver
type CreateDriverRequest struct {
	Code            string  `json:"code" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	PriorityLorryID *string `json:"priority_lorry_id"`
}

// FleetService manages the lorry and driver registries and the daily work
// schedule the auto-assigner reads from.
type FleetService interface {
	CreateLorry(ctx context.Context, req *CreateLorryRequest) (*model.Lorry, error)
	GetLorry(ctx context.Context, id string) (*model.Lorry, error)
	ListLorries(ctx context.Context) ([]*model.Lorry, error)
	SetLorryActive(ctx context.Context, id string, active bool) (*model.Lorry, error)

	CreateDriver(ctx context.Context, req *CreateDriverRequest) (*model.Driver, error)
	GetDriver(ctx context.Context, id string) (*model.Driver, error)
	ListDrivers(ctx context.Context) ([]*model.Driver, error)
	SetDriverActive(ctx context.Context, id string, active bool) (*model.Driver, error)

	ScheduleDriver(ctx context.Context, driverID string, date time.Time) error
	UnscheduleDriver(ctx context.Context, driverID string, date time.Time) error
}

type fleetService struct {
	store *repository.Store
	log   *logrus.Logger
}

// NewFleetService creates a new fleet service
func NewFleetService(store *repository.Store, log *logrus.Logger) FleetService {
	return &fleetService{store: store, log: log}
}

// CreateLorry registers a lorry. Codes are stored uppercase.
func (s *fleetService) CreateLorry(ctx context.Context, req *CreateLorryRequest) (*model.Lorry, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, NewValidationError("code is required")
	}
	if req.Name == "" {
		return nil, NewValidationError("name is required")
	}

	lorry := &model.Lorry{
		Base:   model.Base{UUID: uuid.New().String()},
		Code:   code,
		Name:   req.Name,
		Active: true,
	}
	if err := s.store.Lorries.Create(ctx, lorry); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, NewConflictError("lorry code %s already exists", code)
		}
		return nil, NewSystemError("create lorry", err)
	}
	return lorry, nil
}

func (s *fleetService) GetLorry(ctx context.Context, id string) (*model.Lorry, error) {
	lorry, err := s.store.Lorries.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "lorry", ID: id}
		}
		return nil, NewSystemError("load lorry", err)
	}
	return lorry, nil
}

func (s *fleetService) ListLorries(ctx context.Context) ([]*model.Lorry, error) {
	lorries, err := s.store.Lorries.ListActive(ctx)
	if err != nil {
		return nil, NewSystemError("list lorries", err)
	}
	return lorries, nil
}

// SetLorryActive retires or reinstates a lorry. Retiring keeps its ledger
// history; the lorry only stops receiving assignments.
func (s *fleetService) SetLorryActive(ctx context.Context, id string, active bool) (*model.Lorry, error) {
	lorry, err := s.GetLorry(ctx, id)
	if err != nil {
		return nil, err
	}
	lorry.Active = active
	if err := s.store.Lorries.Update(ctx, lorry); err != nil {
		return nil, NewSystemError("update lorry", err)
	}
	return lorry, nil
}

// CreateDriver registers a driver, optionally pinned to a priority lorry
func (s *fleetService) CreateDriver(ctx context.Context, req *CreateDriverRequest) (*model.Driver, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, NewValidationError("code is required")
	}
	if req.Name == "" {
		return nil, NewValidationError("name is required")
	}
	if req.PriorityLorryID != nil {
		if _, err := s.GetLorry(ctx, *req.PriorityLorryID); err != nil {
			return nil, err
		}
	}

	driver := &model.Driver{
		Base:            model.Base{UUID: uuid.New().String()},
		Code:            code,
		Name:            req.Name,
		Active:          true,
		PriorityLorryID: req.PriorityLorryID,
	}
	if err := s.store.Drivers.Create(ctx, driver); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, NewConflictError("driver code %s already exists", code)
		}
		return nil, NewSystemError("create driver", err)
	}
	return driver, nil
}

func (s *fleetService) GetDriver(ctx context.Context, id string) (*model.Driver, error) {
	driver, err := s.store.Drivers.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "driver", ID: id}
		}
		return nil, NewSystemError("load driver", err)
	}
	return driver, nil
}

func (s *fleetService) ListDrivers(ctx context.Context) ([]*model.Driver, error) {
	drivers, err := s.store.Drivers.ListActive(ctx)
	if err != nil {
		return nil, NewSystemError("list drivers", err)
	}
	return drivers, nil
}

func (s *fleetService) SetDriverActive(ctx context.Context, id string, active bool) (*model.Driver, error) {
	driver, err := s.GetDriver(ctx, id)
	if err != nil {
		return nil, err
	}
	driver.Active = active
	if err := s.store.Drivers.Update(ctx, driver); err != nil {
		return nil, NewSystemError("update driver", err)
	}
	return driver, nil
}

// ScheduleDriver marks a driver as working on a business day
func (s *fleetService) ScheduleDriver(ctx context.Context, driverID string, date time.Time) error {
	driver, err := s.GetDriver(ctx, driverID)
	if err != nil {
		return err
	}
	if !driver.Active {
		return NewValidationError("driver %s is not active", driver.Code)
	}

	// Scheduling twice is a no-op.
	already, err := s.store.Schedules.IsScheduled(ctx, driver.UUID, model.BusinessDate(date))
	if err != nil {
		return NewSystemError("check schedule", err)
	}
	if already {
		return nil
	}

	schedule := &model.DriverSchedule{
		Base:     model.Base{UUID: uuid.New().String()},
		DriverID: driver.UUID,
		WorkDate: model.BusinessDate(date),
	}
	if err := s.store.Schedules.Create(ctx, schedule); err != nil {
		if err == repository.ErrDuplicateKey {
			// Lost a race with a concurrent scheduling of the same day.
			return nil
		}
		return NewSystemError("create schedule", err)
	}
	return nil
}

// UnscheduleDriver removes a driver from a day's schedule
func (s *fleetService) UnscheduleDriver(ctx context.Context, driverID string, date time.Time) error {
	if err := s.store.Schedules.Delete(ctx, driverID, model.BusinessDate(date)); err != nil {
		return NewSystemError("delete schedule", err)
	}
	return nil
}
