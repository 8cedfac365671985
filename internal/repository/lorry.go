package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"example.com/medfleet/services/lorry/internal/db"
	"example.com/medfleet/services/lorry/internal/model"
)

// LorryRepository defines the interface for the lorry registry
type LorryRepository interface {
	Create(ctx context.Context, lorry *model.Lorry) error
	GetByID(ctx context.Context, id string) (*model.Lorry, error)
	GetByCode(ctx context.Context, code string) (*model.Lorry, error)
	ListActive(ctx context.Context) ([]*model.Lorry, error)
	Update(ctx context.Context, lorry *model.Lorry) error
}

// lorryRepository implements LorryRepository
type lorryRepository struct {
	db *gorm.DB
}

// NewLorryRepository creates a new lorry repository
func NewLorryRepository(db *gorm.DB) LorryRepository {
	return &lorryRepository{db: db}
}

// Create creates a new lorry
func (r *lorryRepository) Create(ctx context.Context, lorry *model.Lorry) error {
	// Normalize code to prevent duplicates with different casing
	lorry.Code = strings.ToUpper(lorry.Code)

	err := r.db.WithContext(ctx).Create(lorry).Error
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// GetByID gets a lorry by ID
func (r *lorryRepository) GetByID(ctx context.Context, id string) (*model.Lorry, error) {
	var lorry model.Lorry
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&lorry).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lorry, nil
}

// GetByCode gets a lorry by code
func (r *lorryRepository) GetByCode(ctx context.Context, code string) (*model.Lorry, error) {
	var lorry model.Lorry
	err := r.db.WithContext(ctx).Where("LOWER(code) = LOWER(?)", code).First(&lorry).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lorry, nil
}

// ListActive lists active lorries ordered by code
func (r *lorryRepository) ListActive(ctx context.Context) ([]*model.Lorry, error) {
	var lorries []*model.Lorry
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code").
		Find(&lorries).Error
	if err != nil {
		return nil, err
	}
	return lorries, nil
}

// Update updates a lorry
func (r *lorryRepository) Update(ctx context.Context, lorry *model.Lorry) error {
	return r.db.WithContext(ctx).Save(lorry).Error
}
