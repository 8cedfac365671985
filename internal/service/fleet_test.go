package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

func newFleetFixture() (*MockDriverRepository, *MockScheduleRepository, FleetService) {
	drivers := new(MockDriverRepository)
	schedules := new(MockScheduleRepository)

	store := &repository.Store{
		Drivers:   drivers,
		Schedules: schedules,
		Lorries:   new(MockLorryRepository),
	}
	return drivers, schedules, NewFleetService(store, newTestLogger())
}

func TestScheduleDriver(t *testing.T) {
	drivers, schedules, svc := newFleetFixture()

	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	drivers.On("GetByID", mock.Anything, "driver-1").Return(activeDriver("driver-1", "DRV-01"), nil)
	schedules.On("IsScheduled", mock.Anything, "driver-1", model.BusinessDate(day)).Return(false, nil)
	schedules.On("Create", mock.Anything, mock.MatchedBy(func(s *model.DriverSchedule) bool {
		return s.DriverID == "driver-1" && s.WorkDate.Equal(model.BusinessDate(day))
	})).Return(nil)

	err := svc.ScheduleDriver(context.Background(), "driver-1", day)
	require.NoError(t, err)
	schedules.AssertExpectations(t)
}

func TestScheduleDriverTwiceIsNoOp(t *testing.T) {
	drivers, schedules, svc := newFleetFixture()

	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	drivers.On("GetByID", mock.Anything, "driver-1").Return(activeDriver("driver-1", "DRV-01"), nil)
	schedules.On("IsScheduled", mock.Anything, "driver-1", model.BusinessDate(day)).Return(true, nil)

	err := svc.ScheduleDriver(context.Background(), "driver-1", day)
	require.NoError(t, err)
	schedules.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestScheduleInactiveDriverRejected(t *testing.T) {
	drivers, schedules, svc := newFleetFixture()

	inactive := activeDriver("driver-1", "DRV-01")
	inactive.Active = false
	drivers.On("GetByID", mock.Anything, "driver-1").Return(inactive, nil)

	err := svc.ScheduleDriver(context.Background(), "driver-1", time.Now())
	require.True(t, IsValidation(err))
	schedules.AssertNotCalled(t, "IsScheduled", mock.Anything, mock.Anything, mock.Anything)
}
