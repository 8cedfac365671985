package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/metrics"
	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

const autoAssignLockTTL = 2 * time.Minute

// AssignRequest creates a single assignment by hand, outside the daily
// auto-assignment batch.
type AssignRequest struct {
	DriverID   string    `json:"driver_id" validate:"required"`
	LorryID    string    `json:"lorry_id" validate:"required"`
	Date       time.Time `json:"date"`
	AssignedBy string    `json:"assigned_by" validate:"required"`
}

// AssignmentResult reports the outcome of auto-assignment for one
// scheduled driver.
type AssignmentResult struct {
	DriverID     string `json:"driver_id"`
	DriverName   string `json:"driver_name"`
	LorryID      string `json:"lorry_id,omitempty"`
	LorryCode    string `json:"lorry_code,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Assigned     bool   `json:"assigned"`
	Reason       string `json:"reason,omitempty"`
}

// AssignmentService manages the daily driver to lorry pairing
type AssignmentService interface {
	AutoAssign(ctx context.Context, date time.Time, adminID string) ([]*AssignmentResult, error)
	Assign(ctx context.Context, req *AssignRequest) (*model.LorryAssignment, error)
	Activate(ctx context.Context, assignmentID, shiftID string) (*model.LorryAssignment, error)
	Complete(ctx context.Context, assignmentID string) (*model.LorryAssignment, error)
	Cancel(ctx context.Context, assignmentID, cancelledBy string) (*model.LorryAssignment, error)
	GetForDriver(ctx context.Context, driverID string, date time.Time) (*model.LorryAssignment, error)
	ListByDate(ctx context.Context, date time.Time) ([]*model.LorryAssignment, error)
	AutoCloseStale(ctx context.Context, before time.Time) (int, error)
}

type assignmentService struct {
	store  *repository.Store
	locker DateLocker
	log    *logrus.Logger
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(store *repository.Store, locker DateLocker, log *logrus.Logger) AssignmentService {
	return &assignmentService{
		store:  store,
		locker: locker,
		log:    log,
	}
}

// trailingDigits returns the numeric suffix of a code, e.g. "DRV-07" -> "07"
func trailingDigits(code string) string {
	i := len(code)
	for i > 0 && unicode.IsDigit(rune(code[i-1])) {
		i--
	}
	return code[i:]
}

// AutoAssign pairs every driver scheduled for the given day with a free
// lorry. It runs single-writer per day under a distributed lock and is safe
// to re-run: drivers who already hold an open assignment are reported and
// skipped, and the partial unique index on (driver, date) backstops any
// race the lock misses. One driver failing never aborts the batch.
func (s *assignmentService) AutoAssign(ctx context.Context, date time.Time, adminID string) ([]*AssignmentResult, error) {
	if adminID == "" {
		return nil, NewValidationError("admin id is required")
	}
	day := model.BusinessDate(date)
	dateStr := model.FormatBusinessDate(day)

	var results []*AssignmentResult
	lockErr := s.locker.WithLock(ctx, "lorry:autoassign:"+dateStr, autoAssignLockTTL, func() error {
		var err error
		results, err = s.autoAssignLocked(ctx, day, adminID)
		return err
	})
	if lockErr != nil {
		if errors.Is(lockErr, ErrLockNotObtained) {
			return nil, NewConflictError("auto-assignment for %s is already running", dateStr)
		}
		return nil, lockErr
	}
	return results, nil
}

func (s *assignmentService) autoAssignLocked(ctx context.Context, day time.Time, adminID string) ([]*AssignmentResult, error) {
	driverIDs, err := s.store.Schedules.ListScheduledDriverIDs(ctx, day)
	if err != nil {
		return nil, NewSystemError("list scheduled drivers", err)
	}

	lorries, err := s.store.Lorries.ListActive(ctx)
	if err != nil {
		return nil, NewSystemError("list active lorries", err)
	}
	lorriesByID := make(map[string]*model.Lorry, len(lorries))
	for _, lorry := range lorries {
		lorriesByID[lorry.UUID] = lorry
	}

	open, err := s.store.Assignments.ListOpenByDate(ctx, day)
	if err != nil {
		return nil, NewSystemError("list open assignments", err)
	}
	takenLorries := make(map[string]bool, len(open))
	assignedDrivers := make(map[string]*model.LorryAssignment, len(open))
	for _, a := range open {
		takenLorries[a.LorryID] = true
		assignedDrivers[a.DriverID] = a
	}

	drivers := make([]*model.Driver, 0, len(driverIDs))
	for _, id := range driverIDs {
		driver, err := s.store.Drivers.GetByID(ctx, id)
		if err != nil {
			if err == repository.ErrNotFound {
				continue
			}
			return nil, NewSystemError("load driver", err)
		}
		if driver.Active {
			drivers = append(drivers, driver)
		}
	}
	// Priority drivers claim their lorry before the general pool is carved up.
	sort.Slice(drivers, func(i, j int) bool {
		pi, pj := drivers[i].PriorityLorryID != nil, drivers[j].PriorityLorryID != nil
		if pi != pj {
			return pi
		}
		return drivers[i].Code < drivers[j].Code
	})

	results := make([]*AssignmentResult, 0, len(drivers))
	created := int64(0)
	for _, driver := range drivers {
		result := &AssignmentResult{DriverID: driver.UUID, DriverName: driver.Name}
		results = append(results, result)

		if existing, ok := assignedDrivers[driver.UUID]; ok {
			result.Assigned = true
			result.AssignmentID = existing.UUID
			result.LorryID = existing.LorryID
			if lorry, ok := lorriesByID[existing.LorryID]; ok {
				result.LorryCode = lorry.Code
			}
			result.Reason = "already assigned"
			continue
		}

		lorry := s.pickLorry(driver, lorries, takenLorries)
		if lorry == nil {
			result.Reason = "no lorry available"
			continue
		}

		assignment := &model.LorryAssignment{
			Base:           model.Base{UUID: uuid.New().String()},
			DriverID:       driver.UUID,
			LorryID:        lorry.UUID,
			AssignmentDate: day,
			Status:         model.AssignmentAssigned,
			AssignedBy:     adminID,
		}
		if err := s.store.Assignments.Create(ctx, assignment); err != nil {
			if err == repository.ErrDuplicateKey {
				result.Reason = "driver or lorry assigned concurrently"
				continue
			}
			return nil, NewSystemError("create assignment", err)
		}

		takenLorries[lorry.UUID] = true
		result.Assigned = true
		result.AssignmentID = assignment.UUID
		result.LorryID = lorry.UUID
		result.LorryCode = lorry.Code
		created++
	}

	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterAssignmentsCreated, created)
	s.log.WithFields(logrus.Fields{
		"date":      model.FormatBusinessDate(day),
		"scheduled": len(drivers),
		"created":   created,
	}).Info("Auto-assignment completed")

	return results, nil
}

// pickLorry chooses a free lorry for a driver: the driver's priority lorry
// first, then the lorry whose code suffix matches the driver code suffix,
// then the first free lorry by code. Lorries come pre-sorted by code.
func (s *assignmentService) pickLorry(driver *model.Driver, lorries []*model.Lorry, taken map[string]bool) *model.Lorry {
	if driver.PriorityLorryID != nil {
		for _, lorry := range lorries {
			if lorry.UUID == *driver.PriorityLorryID && !taken[lorry.UUID] {
				return lorry
			}
		}
	}

	if suffix := trailingDigits(driver.Code); suffix != "" {
		trimmed := strings.TrimLeft(suffix, "0")
		for _, lorry := range lorries {
			if taken[lorry.UUID] {
				continue
			}
			lorrySuffix := trailingDigits(lorry.Code)
			if lorrySuffix != "" && strings.TrimLeft(lorrySuffix, "0") == trimmed {
				return lorry
			}
		}
	}

	for _, lorry := range lorries {
		if !taken[lorry.UUID] {
			return lorry
		}
	}
	return nil
}

// Assign creates a single assignment by hand
func (s *assignmentService) Assign(ctx context.Context, req *AssignRequest) (*model.LorryAssignment, error) {
	if req.DriverID == "" || req.LorryID == "" {
		return nil, NewValidationError("driver_id and lorry_id are required")
	}
	if req.AssignedBy == "" {
		return nil, NewValidationError("assigned_by is required")
	}
	day := model.BusinessDate(req.Date)
	if req.Date.IsZero() {
		day = model.BusinessDate(time.Now())
	}

	driver, err := s.store.Drivers.GetByID(ctx, req.DriverID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "driver", ID: req.DriverID}
		}
		return nil, NewSystemError("load driver", err)
	}
	if !driver.Active {
		return nil, NewValidationError("driver %s is not active", driver.Code)
	}

	lorry, err := s.store.Lorries.GetByID(ctx, req.LorryID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "lorry", ID: req.LorryID}
		}
		return nil, NewSystemError("load lorry", err)
	}
	if !lorry.Active {
		return nil, NewValidationError("lorry %s is not active", lorry.Code)
	}

	assignment := &model.LorryAssignment{
		Base:           model.Base{UUID: uuid.New().String()},
		DriverID:       driver.UUID,
		LorryID:        lorry.UUID,
		AssignmentDate: day,
		Status:         model.AssignmentAssigned,
		AssignedBy:     req.AssignedBy,
	}
	if err := s.store.Assignments.Create(ctx, assignment); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, NewConflictError("driver or lorry already has an open assignment on %s", model.FormatBusinessDate(day))
		}
		return nil, NewSystemError("create assignment", err)
	}

	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterAssignmentsCreated, 1)
	return assignment, nil
}

func (s *assignmentService) getAssignment(ctx context.Context, id string) (*model.LorryAssignment, error) {
	assignment, err := s.store.Assignments.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "assignment", ID: id}
		}
		return nil, NewSystemError("load assignment", err)
	}
	return assignment, nil
}

// Activate marks an assignment as on shift
func (s *assignmentService) Activate(ctx context.Context, assignmentID, shiftID string) (*model.LorryAssignment, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != model.AssignmentAssigned {
		return nil, NewConflictError("assignment %s is %s and cannot be activated", assignment.UUID, assignment.Status)
	}

	assignment.Status = model.AssignmentActive
	if shiftID != "" {
		assignment.ShiftID = &shiftID
	}
	if err := s.store.Assignments.Update(ctx, assignment); err != nil {
		return nil, NewSystemError("activate assignment", err)
	}
	return assignment, nil
}

// Complete closes an assignment at end of shift
func (s *assignmentService) Complete(ctx context.Context, assignmentID string) (*model.LorryAssignment, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !assignment.Status.Open() {
		return nil, NewConflictError("assignment %s is already %s", assignment.UUID, assignment.Status)
	}

	assignment.Status = model.AssignmentCompleted
	if err := s.store.Assignments.Update(ctx, assignment); err != nil {
		return nil, NewSystemError("complete assignment", err)
	}

	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterAssignmentsClosed, 1)
	return assignment, nil
}

// Cancel voids an open assignment, releasing the driver and lorry for the
// day. Cancelled rows fall out of the partial unique indexes so both can be
// re-assigned immediately.
func (s *assignmentService) Cancel(ctx context.Context, assignmentID, cancelledBy string) (*model.LorryAssignment, error) {
	if cancelledBy == "" {
		return nil, NewValidationError("cancelled_by is required")
	}
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !assignment.Status.Open() {
		return nil, NewConflictError("assignment %s is already %s", assignment.UUID, assignment.Status)
	}

	assignment.Status = model.AssignmentCancelled
	if err := s.store.Assignments.Update(ctx, assignment); err != nil {
		return nil, NewSystemError("cancel assignment", err)
	}

	s.log.WithFields(logrus.Fields{
		"assignment_id": assignment.UUID,
		"driver_id":     assignment.DriverID,
		"cancelled_by":  cancelledBy,
	}).Info("Assignment cancelled")

	metrics.GetMetricsCollector().IncrementCounter(metrics.CounterAssignmentsClosed, 1)
	return assignment, nil
}

// GetForDriver returns the driver's open assignment for a day
func (s *assignmentService) GetForDriver(ctx context.Context, driverID string, date time.Time) (*model.LorryAssignment, error) {
	if driverID == "" {
		return nil, NewValidationError("driver_id is required")
	}
	assignment, err := s.store.Assignments.GetOpenByDriverAndDate(ctx, driverID, model.BusinessDate(date))
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "assignment for driver", ID: driverID}
		}
		return nil, NewSystemError("load assignment", err)
	}
	return assignment, nil
}

// ListByDate returns the open assignments for a day
func (s *assignmentService) ListByDate(ctx context.Context, date time.Time) ([]*model.LorryAssignment, error) {
	assignments, err := s.store.Assignments.ListOpenByDate(ctx, model.BusinessDate(date))
	if err != nil {
		return nil, NewSystemError("list assignments", err)
	}
	return assignments, nil
}

// AutoCloseStale completes open assignments from business days before the
// given date. Drivers who never clocked out do not block the next day's
// assignment run.
func (s *assignmentService) AutoCloseStale(ctx context.Context, before time.Time) (int, error) {
	stale, err := s.store.Assignments.ListActiveBefore(ctx, model.BusinessDate(before))
	if err != nil {
		return 0, NewSystemError("list stale assignments", err)
	}

	closed := 0
	for _, assignment := range stale {
		// Never close out the day still in progress.
		if model.SameBusinessDay(assignment.AssignmentDate, before) {
			continue
		}
		assignment.Status = model.AssignmentCompleted
		if err := s.store.Assignments.Update(ctx, assignment); err != nil {
			s.log.WithError(err).WithField("assignment_id", assignment.UUID).
				Error("Failed to auto-close stale assignment")
			continue
		}
		closed++
	}

	if closed > 0 {
		metrics.GetMetricsCollector().IncrementCounter(metrics.CounterAssignmentsClosed, int64(closed))
		s.log.WithField("closed", closed).Info("Auto-closed stale assignments")
	}
	return closed, nil
}
