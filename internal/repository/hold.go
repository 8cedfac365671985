package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/medfleet/services/lorry/internal/db"
	"example.com/medfleet/services/lorry/internal/model"
)

// HoldRepository defines the interface for driver holds
type HoldRepository interface {
	Create(ctx context.Context, hold *model.DriverHold) error
	GetByID(ctx context.Context, id string) (*model.DriverHold, error)
	ListActiveByDriver(ctx context.Context, driverID string) ([]*model.DriverHold, error)
	CountActiveByDriver(ctx context.Context, driverID string) (int64, error)
	ListByDriver(ctx context.Context, driverID string) ([]*model.DriverHold, error)
	Update(ctx context.Context, hold *model.DriverHold) error
}

// holdRepository implements HoldRepository
type holdRepository struct {
	db *gorm.DB
}

// NewHoldRepository creates a new hold repository
func NewHoldRepository(db *gorm.DB) HoldRepository {
	return &holdRepository{db: db}
}

// Create creates a new hold
func (r *holdRepository) Create(ctx context.Context, hold *model.DriverHold) error {
	return r.db.WithContext(ctx).Create(hold).Error
}

// GetByID gets a hold by ID
func (r *holdRepository) GetByID(ctx context.Context, id string) (*model.DriverHold, error) {
	var hold model.DriverHold
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&hold).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &hold, nil
}

// ListActiveByDriver lists the driver's unresolved holds
func (r *holdRepository) ListActiveByDriver(ctx context.Context, driverID string) ([]*model.DriverHold, error) {
	var holds []*model.DriverHold
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND status = ?", driverID, model.HoldActive).
		Order("created_at DESC").
		Find(&holds).Error
	if err != nil {
		return nil, err
	}
	return holds, nil
}

// CountActiveByDriver counts the driver's unresolved holds
func (r *holdRepository) CountActiveByDriver(ctx context.Context, driverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DriverHold{}).
		Where("driver_id = ? AND status = ?", driverID, model.HoldActive).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListByDriver lists all holds for a driver, newest first
func (r *holdRepository) ListByDriver(ctx context.Context, driverID string) ([]*model.DriverHold, error) {
	var holds []*model.DriverHold
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Find(&holds).Error
	if err != nil {
		return nil, err
	}
	return holds, nil
}

// Update updates a hold
func (r *holdRepository) Update(ctx context.Context, hold *model.DriverHold) error {
	return r.db.WithContext(ctx).Save(hold).Error
}
