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

type blockedLocker struct{}

func (blockedLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	return ErrLockNotObtained
}

func newAssignmentFixture() (*MockAssignmentRepository, *MockDriverRepository, *MockScheduleRepository, *MockLorryRepository, AssignmentService) {
	assignments := new(MockAssignmentRepository)
	drivers := new(MockDriverRepository)
	schedules := new(MockScheduleRepository)
	lorries := new(MockLorryRepository)

	store := &repository.Store{
		Assignments: assignments,
		Drivers:     drivers,
		Schedules:   schedules,
		Lorries:     lorries,
	}
	svc := NewAssignmentService(store, NopLocker{}, newTestLogger())
	return assignments, drivers, schedules, lorries, svc
}

func activeDriver(id, code string) *model.Driver {
	return &model.Driver{Base: model.Base{UUID: id}, Code: code, Name: "Driver " + code, Active: true}
}

func activeLorry(id, code string) *model.Lorry {
	return &model.Lorry{Base: model.Base{UUID: id}, Code: code, Active: true}
}

func TestAutoAssignPriorityLorryWins(t *testing.T) {
	assignments, drivers, schedules, lorries, svc := newAssignmentFixture()

	driver := activeDriver("driver-1", "DRV-01")
	priority := "lorry-2"
	driver.PriorityLorryID = &priority

	schedules.On("ListScheduledDriverIDs", mock.Anything, mock.Anything).Return([]string{"driver-1"}, nil)
	drivers.On("GetByID", mock.Anything, "driver-1").Return(driver, nil)
	lorries.On("ListActive", mock.Anything).Return([]*model.Lorry{
		activeLorry("lorry-1", "LRY-01"),
		activeLorry("lorry-2", "LRY-02"),
	}, nil)
	assignments.On("ListOpenByDate", mock.Anything, mock.Anything).Return([]*model.LorryAssignment{}, nil)
	assignments.On("Create", mock.Anything, mock.AnythingOfType("*model.LorryAssignment")).Return(nil)

	results, err := svc.AutoAssign(context.Background(), time.Now(), "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Assigned)
	require.Equal(t, "lorry-2", results[0].LorryID)
}

func TestAutoAssignCodeSuffixFallback(t *testing.T) {
	assignments, drivers, schedules, lorries, svc := newAssignmentFixture()

	schedules.On("ListScheduledDriverIDs", mock.Anything, mock.Anything).Return([]string{"driver-7"}, nil)
	drivers.On("GetByID", mock.Anything, "driver-7").Return(activeDriver("driver-7", "DRV-07"), nil)
	lorries.On("ListActive", mock.Anything).Return([]*model.Lorry{
		activeLorry("lorry-1", "LRY-01"),
		activeLorry("lorry-7", "LRY-07"),
	}, nil)
	assignments.On("ListOpenByDate", mock.Anything, mock.Anything).Return([]*model.LorryAssignment{}, nil)
	assignments.On("Create", mock.Anything, mock.AnythingOfType("*model.LorryAssignment")).Return(nil)

	results, err := svc.AutoAssign(context.Background(), time.Now(), "admin-1")
	require.NoError(t, err)
	require.True(t, results[0].Assigned)
	require.Equal(t, "LRY-07", results[0].LorryCode)
}

func TestAutoAssignFirstFreeByCode(t *testing.T) {
	assignments, drivers, schedules, lorries, svc := newAssignmentFixture()

	schedules.On("ListScheduledDriverIDs", mock.Anything, mock.Anything).Return([]string{"driver-1"}, nil)
	drivers.On("GetByID", mock.Anything, "driver-1").Return(activeDriver("driver-1", "DRV-99"), nil)
	lorries.On("ListActive", mock.Anything).Return([]*model.Lorry{
		activeLorry("lorry-1", "LRY-01"),
		activeLorry("lorry-2", "LRY-02"),
	}, nil)
	assignments.On("ListOpenByDate", mock.Anything, mock.Anything).Return([]*model.LorryAssignment{
		{Base: model.Base{UUID: "existing"}, DriverID: "driver-2", LorryID: "lorry-1", Status: model.AssignmentAssigned},
	}, nil)
	assignments.On("Create", mock.Anything, mock.AnythingOfType("*model.LorryAssignment")).Return(nil)

	results, err := svc.AutoAssign(context.Background(), time.Now(), "admin-1")
	require.NoError(t, err)
	require.True(t, results[0].Assigned)
	require.Equal(t, "lorry-2", results[0].LorryID)
}

func TestAutoAssignIsReentrant(t *testing.T) {
	assignments, drivers, schedules, lorries, svc := newAssignmentFixture()

	schedules.On("ListScheduledDriverIDs", mock.Anything, mock.Anything).Return([]string{"driver-1"}, nil)
	drivers.On("GetByID", mock.Anything, "driver-1").Return(activeDriver("driver-1", "DRV-01"), nil)
	lorries.On("ListActive", mock.Anything).Return([]*model.Lorry{activeLorry("lorry-1", "LRY-01")}, nil)
	assignments.On("ListOpenByDate", mock.Anything, mock.Anything).Return([]*model.LorryAssignment{
		{Base: model.Base{UUID: "existing"}, DriverID: "driver-1", LorryID: "lorry-1", Status: model.AssignmentAssigned},
	}, nil)

	results, err := svc.AutoAssign(context.Background(), time.Now(), "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Assigned)
	require.Equal(t, "existing", results[0].AssignmentID)
	assignments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAutoAssignNoLorryAvailable(t *testing.T) {
	assignments, drivers, schedules, lorries, svc := newAssignmentFixture()

	schedules.On("ListScheduledDriverIDs", mock.Anything, mock.Anything).Return([]string{"driver-1", "driver-2"}, nil)
	drivers.On("GetByID", mock.Anything, "driver-1").Return(activeDriver("driver-1", "DRV-01"), nil)
	drivers.On("GetByID", mock.Anything, "driver-2").Return(activeDriver("driver-2", "DRV-02"), nil)
	lorries.On("ListActive", mock.Anything).Return([]*model.Lorry{activeLorry("lorry-1", "LRY-01")}, nil)
	assignments.On("ListOpenByDate", mock.Anything, mock.Anything).Return([]*model.LorryAssignment{}, nil)
	assignments.On("Create", mock.Anything, mock.AnythingOfType("*model.LorryAssignment")).Return(nil)

	results, err := svc.AutoAssign(context.Background(), time.Now(), "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.True(t, results[0].Assigned)
	require.False(t, results[1].Assigned)
	require.Equal(t, "no lorry available", results[1].Reason)
}

func TestAutoAssignLostRaceContinuesBatch(t *testing.T) {
	assignments, drivers, schedules, lorries, svc := newAssignmentFixture()

	schedules.On("ListScheduledDriverIDs", mock.Anything, mock.Anything).Return([]string{"driver-1", "driver-2"}, nil)
	drivers.On("GetByID", mock.Anything, "driver-1").Return(activeDriver("driver-1", "DRV-01"), nil)
	drivers.On("GetByID", mock.Anything, "driver-2").Return(activeDriver("driver-2", "DRV-02"), nil)
	lorries.On("ListActive", mock.Anything).Return([]*model.Lorry{
		activeLorry("lorry-1", "LRY-01"),
		activeLorry("lorry-2", "LRY-02"),
	}, nil)
	assignments.On("ListOpenByDate", mock.Anything, mock.Anything).Return([]*model.LorryAssignment{}, nil)
	assignments.On("Create", mock.Anything, mock.MatchedBy(func(a *model.LorryAssignment) bool {
		return a.DriverID == "driver-1"
	})).Return(repository.ErrDuplicateKey)
	assignments.On("Create", mock.Anything, mock.MatchedBy(func(a *model.LorryAssignment) bool {
		return a.DriverID == "driver-2"
	})).Return(nil)

	results, err := svc.AutoAssign(context.Background(), time.Now(), "admin-1")
	require.NoError(t, err)
	require.False(t, results[0].Assigned)
	require.True(t, results[1].Assigned)
}

func TestAutoAssignLockContention(t *testing.T) {
	store := &repository.Store{}
	svc := NewAssignmentService(store, blockedLocker{}, newTestLogger())

	_, err := svc.AutoAssign(context.Background(), time.Now(), "admin-1")
	require.Error(t, err)
	require.True(t, IsConflict(err))
}

func TestCancelReleasesOpenAssignment(t *testing.T) {
	assignments, _, _, _, svc := newAssignmentFixture()

	assignment := &model.LorryAssignment{
		Base:     model.Base{UUID: "assignment-1"},
		DriverID: "driver-1",
		LorryID:  "lorry-1",
		Status:   model.AssignmentAssigned,
	}
	assignments.On("GetByID", mock.Anything, "assignment-1").Return(assignment, nil)
	assignments.On("Update", mock.Anything, mock.MatchedBy(func(a *model.LorryAssignment) bool {
		return a.Status == model.AssignmentCancelled
	})).Return(nil)

	cancelled, err := svc.Cancel(context.Background(), "assignment-1", "admin-1")
	require.NoError(t, err)
	require.Equal(t, model.AssignmentCancelled, cancelled.Status)
}

func TestCancelClosedAssignmentRejected(t *testing.T) {
	assignments, _, _, _, svc := newAssignmentFixture()

	assignments.On("GetByID", mock.Anything, "assignment-1").Return(&model.LorryAssignment{
		Base:   model.Base{UUID: "assignment-1"},
		Status: model.AssignmentCompleted,
	}, nil)

	_, err := svc.Cancel(context.Background(), "assignment-1", "admin-1")
	require.Error(t, err)
	require.True(t, IsConflict(err))
}

func TestActivateRequiresAssignedStatus(t *testing.T) {
	assignments, _, _, _, svc := newAssignmentFixture()

	assignments.On("GetByID", mock.Anything, "assignment-1").Return(&model.LorryAssignment{
		Base:   model.Base{UUID: "assignment-1"},
		Status: model.AssignmentCancelled,
	}, nil)

	_, err := svc.Activate(context.Background(), "assignment-1", "shift-1")
	require.Error(t, err)
	require.True(t, IsConflict(err))
}

func TestAutoCloseStale(t *testing.T) {
	assignments, _, _, _, svc := newAssignmentFixture()

	stale := []*model.LorryAssignment{
		{Base: model.Base{UUID: "a1"}, Status: model.AssignmentActive},
		{Base: model.Base{UUID: "a2"}, Status: model.AssignmentAssigned},
	}
	assignments.On("ListActiveBefore", mock.Anything, mock.Anything).Return(stale, nil)
	assignments.On("Update", mock.Anything, mock.MatchedBy(func(a *model.LorryAssignment) bool {
		return a.Status == model.AssignmentCompleted
	})).Return(nil)

	closed, err := svc.AutoCloseStale(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 2, closed)
}

func TestAutoCloseStaleSkipsCurrentDay(t *testing.T) {
	assignments, _, _, _, svc := newAssignmentFixture()

	now := time.Now()
	stale := []*model.LorryAssignment{
		{Base: model.Base{UUID: "a1"}, Status: model.AssignmentActive, AssignmentDate: model.BusinessDate(now.AddDate(0, 0, -1))},
		{Base: model.Base{UUID: "a2"}, Status: model.AssignmentActive, AssignmentDate: model.BusinessDate(now)},
	}
	assignments.On("ListActiveBefore", mock.Anything, mock.Anything).Return(stale, nil)
	assignments.On("Update", mock.Anything, mock.MatchedBy(func(a *model.LorryAssignment) bool {
		return a.UUID == "a1" && a.Status == model.AssignmentCompleted
	})).Return(nil)

	closed, err := svc.AutoCloseStale(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, closed)
	assignments.AssertNumberOfCalls(t, "Update", 1)
}
