package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"example.com/medfleet/services/lorry/internal/db"
	"example.com/medfleet/services/lorry/internal/model"
)

// AssignmentRepository defines the interface for lorry assignments
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.LorryAssignment) error
	GetByID(ctx context.Context, id string) (*model.LorryAssignment, error)
	GetOpenByDriverAndDate(ctx context.Context, driverID string, date time.Time) (*model.LorryAssignment, error)
	ListOpenByDate(ctx context.Context, date time.Time) ([]*model.LorryAssignment, error)
	ListActiveBefore(ctx context.Context, date time.Time) ([]*model.LorryAssignment, error)
	Update(ctx context.Context, assignment *model.LorryAssignment) error
	MarkVerified(ctx context.Context, id string, at time.Time) error
}

// assignmentRepository implements AssignmentRepository
type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// Create creates a new assignment. The partial unique indexes on
// (lorry_id, assignment_date) and (driver_id, assignment_date) make the
// second writer of a race lose with ErrDuplicateKey.
func (r *assignmentRepository) Create(ctx context.Context, assignment *model.LorryAssignment) error {
	err := r.db.WithContext(ctx).Create(assignment).Error
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// GetByID gets an assignment by ID
func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*model.LorryAssignment, error) {
	var assignment model.LorryAssignment
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&assignment).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetOpenByDriverAndDate gets the driver's open assignment for a calendar day
func (r *assignmentRepository) GetOpenByDriverAndDate(ctx context.Context, driverID string, date time.Time) (*model.LorryAssignment, error) {
	var assignment model.LorryAssignment
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND assignment_date = ?", driverID, model.FormatBusinessDate(date)).
		Where("status IN (?)", []model.AssignmentStatus{model.AssignmentAssigned, model.AssignmentActive}).
		First(&assignment).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// ListOpenByDate lists all open assignments for a calendar day
func (r *assignmentRepository) ListOpenByDate(ctx context.Context, date time.Time) ([]*model.LorryAssignment, error) {
	var assignments []*model.LorryAssignment
	err := r.db.WithContext(ctx).
		Where("assignment_date = ?", model.FormatBusinessDate(date)).
		Where("status IN (?)", []model.AssignmentStatus{model.AssignmentAssigned, model.AssignmentActive}).
		Order("created_at").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListActiveBefore lists ACTIVE assignments dated before the given day; the
// worker auto-completes these at the business-day boundary.
func (r *assignmentRepository) ListActiveBefore(ctx context.Context, date time.Time) ([]*model.LorryAssignment, error) {
	var assignments []*model.LorryAssignment
	err := r.db.WithContext(ctx).
		Where("assignment_date < ?", model.FormatBusinessDate(date)).
		Where("status = ?", model.AssignmentActive).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// Update updates an assignment
func (r *assignmentRepository) Update(ctx context.Context, assignment *model.LorryAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// MarkVerified flags the assignment's stock as verified at clock-in
func (r *assignmentRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.LorryAssignment{}).
		Where("uuid = ?", id).
		Updates(map[string]interface{}{
			"stock_verified":    true,
			"stock_verified_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
