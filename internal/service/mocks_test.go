package service

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Mock repositories for testing

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Append(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uint) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) LatestActionsByUID(ctx context.Context, lorryID string, before time.Time) ([]repository.LatestAction, error) {
	args := m.Called(ctx, lorryID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.LatestAction), args.Error(1)
}

func (m *MockTransactionRepository) HasHistory(ctx context.Context, lorryID string) (bool, error) {
	args := m.Called(ctx, lorryID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) LastCustodian(ctx context.Context, lorryID string) (*model.Transaction, error) {
	args := m.Called(ctx, lorryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByLorry(ctx context.Context, lorryID string, limit int) ([]*model.Transaction, error) {
	args := m.Called(ctx, lorryID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByUID(ctx context.Context, uid string, limit int) ([]*model.Transaction, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) DistinctLorryIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *model.LorryAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, id string) (*model.LorryAssignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LorryAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetOpenByDriverAndDate(ctx context.Context, driverID string, date time.Time) (*model.LorryAssignment, error) {
	args := m.Called(ctx, driverID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LorryAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListOpenByDate(ctx context.Context, date time.Time) ([]*model.LorryAssignment, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LorryAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListActiveBefore(ctx context.Context, date time.Time) ([]*model.LorryAssignment, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LorryAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) Update(ctx context.Context, assignment *model.LorryAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) Create(ctx context.Context, verification *model.StockVerification) error {
	args := m.Called(ctx, verification)
	return args.Error(0)
}

func (m *MockVerificationRepository) GetByID(ctx context.Context, id string) (*model.StockVerification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockVerification), args.Error(1)
}

func (m *MockVerificationRepository) GetByAssignment(ctx context.Context, assignmentID string) (*model.StockVerification, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockVerification), args.Error(1)
}

func (m *MockVerificationRepository) ListByLorry(ctx context.Context, lorryID string, limit int) ([]*model.StockVerification, error) {
	args := m.Called(ctx, lorryID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.StockVerification), args.Error(1)
}

type MockHoldRepository struct {
	mock.Mock
}

func (m *MockHoldRepository) Create(ctx context.Context, hold *model.DriverHold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockHoldRepository) GetByID(ctx context.Context, id string) (*model.DriverHold, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DriverHold), args.Error(1)
}

func (m *MockHoldRepository) ListActiveByDriver(ctx context.Context, driverID string) ([]*model.DriverHold, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DriverHold), args.Error(1)
}

func (m *MockHoldRepository) CountActiveByDriver(ctx context.Context, driverID string) (int64, error) {
	args := m.Called(ctx, driverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHoldRepository) ListByDriver(ctx context.Context, driverID string) ([]*model.DriverHold, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DriverHold), args.Error(1)
}

func (m *MockHoldRepository) Update(ctx context.Context, hold *model.DriverHold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

type MockDriverRepository struct {
	mock.Mock
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *model.Driver) error {
	args := m.Called(ctx, driver)
	return args.Error(0)
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*model.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *MockDriverRepository) GetByCode(ctx context.Context, code string) (*model.Driver, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *MockDriverRepository) ListActive(ctx context.Context) ([]*model.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Driver), args.Error(1)
}

func (m *MockDriverRepository) Update(ctx context.Context, driver *model.Driver) error {
	args := m.Called(ctx, driver)
	return args.Error(0)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *model.DriverSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) IsScheduled(ctx context.Context, driverID string, date time.Time) (bool, error) {
	args := m.Called(ctx, driverID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduleRepository) ListScheduledDriverIDs(ctx context.Context, date time.Time) ([]string, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, driverID string, date time.Time) error {
	args := m.Called(ctx, driverID, date)
	return args.Error(0)
}

type MockLorryRepository struct {
	mock.Mock
}

func (m *MockLorryRepository) Create(ctx context.Context, lorry *model.Lorry) error {
	args := m.Called(ctx, lorry)
	return args.Error(0)
}

func (m *MockLorryRepository) GetByID(ctx context.Context, id string) (*model.Lorry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lorry), args.Error(1)
}

func (m *MockLorryRepository) GetByCode(ctx context.Context, code string) (*model.Lorry, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lorry), args.Error(1)
}

func (m *MockLorryRepository) ListActive(ctx context.Context) ([]*model.Lorry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Lorry), args.Error(1)
}

func (m *MockLorryRepository) Update(ctx context.Context, lorry *model.Lorry) error {
	args := m.Called(ctx, lorry)
	return args.Error(0)
}
