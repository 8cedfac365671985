package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"example.com/medfleet/services/lorry/internal/db"
	"example.com/medfleet/services/lorry/internal/model"
)

// DriverRepository defines the interface for the driver registry
type DriverRepository interface {
	Create(ctx context.Context, driver *model.Driver) error
	GetByID(ctx context.Context, id string) (*model.Driver, error)
	GetByCode(ctx context.Context, code string) (*model.Driver, error)
	ListActive(ctx context.Context) ([]*model.Driver, error)
	Update(ctx context.Context, driver *model.Driver) error
}

// ScheduleRepository defines the interface for driver work schedules
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.DriverSchedule) error
	IsScheduled(ctx context.Context, driverID string, date time.Time) (bool, error)
	ListScheduledDriverIDs(ctx context.Context, date time.Time) ([]string, error)
	Delete(ctx context.Context, driverID string, date time.Time) error
}

// driverRepository implements DriverRepository
type driverRepository struct {
	db *gorm.DB
}

// NewDriverRepository creates a new driver repository
func NewDriverRepository(db *gorm.DB) DriverRepository {
	return &driverRepository{db: db}
}

// Create creates a new driver
func (r *driverRepository) Create(ctx context.Context, driver *model.Driver) error {
	err := r.db.WithContext(ctx).Create(driver).Error
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// GetByID gets a driver by ID
func (r *driverRepository) GetByID(ctx context.Context, id string) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&driver).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &driver, nil
}

// GetByCode gets a driver by code
func (r *driverRepository) GetByCode(ctx context.Context, code string) (*model.Driver, error) {
	var driver model.Driver
	err := r.db.WithContext(ctx).Where("LOWER(code) = LOWER(?)", code).First(&driver).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &driver, nil
}

// ListActive lists active drivers
func (r *driverRepository) ListActive(ctx context.Context) ([]*model.Driver, error) {
	var drivers []*model.Driver
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code").
		Find(&drivers).Error
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

// Update updates a driver
func (r *driverRepository) Update(ctx context.Context, driver *model.Driver) error {
	return r.db.WithContext(ctx).Save(driver).Error
}

// scheduleRepository implements ScheduleRepository
type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

// Create marks a driver as scheduled for a day
func (r *scheduleRepository) Create(ctx context.Context, schedule *model.DriverSchedule) error {
	err := r.db.WithContext(ctx).Create(schedule).Error
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// IsScheduled reports whether the driver is scheduled to work on the day
func (r *scheduleRepository) IsScheduled(ctx context.Context, driverID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DriverSchedule{}).
		Where("driver_id = ? AND work_date = ?", driverID, model.FormatBusinessDate(date)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListScheduledDriverIDs lists every driver scheduled to work on the day
func (r *scheduleRepository) ListScheduledDriverIDs(ctx context.Context, date time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.DriverSchedule{}).
		Where("work_date = ?", model.FormatBusinessDate(date)).
		Order("driver_id").
		Pluck("driver_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes a driver's schedule entry for a day
func (r *scheduleRepository) Delete(ctx context.Context, driverID string, date time.Time) error {
	return r.db.WithContext(ctx).
		Where("driver_id = ? AND work_date = ?", driverID, model.FormatBusinessDate(date)).
		Delete(&model.DriverSchedule{}).Error
}
