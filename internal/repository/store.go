package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one database handle so multi-table
// writes can share a transaction.
type Store struct {
	db *gorm.DB

	Transactions  TransactionRepository
	Assignments   AssignmentRepository
	Verifications VerificationRepository
	Holds         HoldRepository
	Drivers       DriverRepository
	Schedules     ScheduleRepository
	Lorries       LorryRepository
}

// NewStore creates a store over a database handle
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Transactions:  NewTransactionRepository(db),
		Assignments:   NewAssignmentRepository(db),
		Verifications: NewVerificationRepository(db),
		Holds:         NewHoldRepository(db),
		Drivers:       NewDriverRepository(db),
		Schedules:     NewScheduleRepository(db),
		Lorries:       NewLorryRepository(db),
	}
}

// InTx runs fn against a store bound to one database transaction; any error
// rolls the whole transaction back. A store built without a database handle
// (tests) runs fn against itself.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(NewStore(gtx))
	})
}
