package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/medfleet/services/lorry/internal/db"
	"example.com/medfleet/services/lorry/internal/model"
)

// VerificationRepository defines the interface for stock verifications
type VerificationRepository interface {
	Create(ctx context.Context, verification *model.StockVerification) error
	GetByID(ctx context.Context, id string) (*model.StockVerification, error)
	GetByAssignment(ctx context.Context, assignmentID string) (*model.StockVerification, error)
	ListByLorry(ctx context.Context, lorryID string, limit int) ([]*model.StockVerification, error)
}

// verificationRepository implements VerificationRepository
type verificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository creates a new verification repository
func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// Create persists a verification record. The unique index on assignment_id
// enforces one verification per assignment at the store level.
func (r *verificationRepository) Create(ctx context.Context, verification *model.StockVerification) error {
	err := r.db.WithContext(ctx).Create(verification).Error
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// GetByID gets a verification by ID
func (r *verificationRepository) GetByID(ctx context.Context, id string) (*model.StockVerification, error) {
	var verification model.StockVerification
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&verification).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &verification, nil
}

// GetByAssignment gets the verification tied to an assignment
func (r *verificationRepository) GetByAssignment(ctx context.Context, assignmentID string) (*model.StockVerification, error) {
	var verification model.StockVerification
	err := r.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).First(&verification).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &verification, nil
}

// ListByLorry lists recent verifications for a lorry
func (r *verificationRepository) ListByLorry(ctx context.Context, lorryID string, limit int) ([]*model.StockVerification, error) {
	var verifications []*model.StockVerification
	err := r.db.WithContext(ctx).
		Where("lorry_id = ?", lorryID).
		Order("verified_at DESC").
		Limit(limit).
		Find(&verifications).Error
	if err != nil {
		return nil, err
	}
	return verifications, nil
}
