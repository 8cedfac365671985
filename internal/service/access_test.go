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

func newAccessFixture() (*MockHoldRepository, *MockAssignmentRepository, AccessService) {
	holds := new(MockHoldRepository)
	assignments := new(MockAssignmentRepository)
	store := &repository.Store{
		Holds:       holds,
		Assignments: assignments,
	}
	return holds, assignments, NewAccessService(store, newTestLogger())
}

func TestAccessAllowedWhenVerified(t *testing.T) {
	holds, assignments, svc := newAccessFixture()

	holds.On("CountActiveByDriver", mock.Anything, "driver-1").Return(int64(0), nil)
	assignments.On("GetOpenByDriverAndDate", mock.Anything, "driver-1", mock.Anything).Return(&model.LorryAssignment{
		Base:          model.Base{UUID: "assignment-1"},
		LorryID:       "lorry-1",
		Status:        model.AssignmentActive,
		StockVerified: true,
	}, nil)

	decision, err := svc.CanAccessOrders(context.Background(), "driver-1", time.Now())
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Empty(t, decision.Reason)
	require.Equal(t, "assignment-1", decision.AssignmentID)
}

func TestAccessDeniedByActiveHold(t *testing.T) {
	holds, assignments, svc := newAccessFixture()

	holds.On("CountActiveByDriver", mock.Anything, "driver-1").Return(int64(2), nil)

	decision, err := svc.CanAccessOrders(context.Background(), "driver-1", time.Now())
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Contains(t, decision.Reason, "hold")
	require.Equal(t, int64(2), decision.ActiveHolds)

	// Holds short-circuit the gate; the assignment is never looked up.
	assignments.AssertNotCalled(t, "GetOpenByDriverAndDate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccessDeniedWithoutAssignment(t *testing.T) {
	holds, assignments, svc := newAccessFixture()

	holds.On("CountActiveByDriver", mock.Anything, "driver-1").Return(int64(0), nil)
	assignments.On("GetOpenByDriverAndDate", mock.Anything, "driver-1", mock.Anything).Return(nil, repository.ErrNotFound)

	decision, err := svc.CanAccessOrders(context.Background(), "driver-1", time.Now())
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, "No lorry assignment found for today", decision.Reason)
}

func TestAccessDeniedUnverifiedStock(t *testing.T) {
	holds, assignments, svc := newAccessFixture()

	holds.On("CountActiveByDriver", mock.Anything, "driver-1").Return(int64(0), nil)
	assignments.On("GetOpenByDriverAndDate", mock.Anything, "driver-1", mock.Anything).Return(&model.LorryAssignment{
		Base:          model.Base{UUID: "assignment-1"},
		Status:        model.AssignmentAssigned,
		StockVerified: false,
	}, nil)

	decision, err := svc.CanAccessOrders(context.Background(), "driver-1", time.Now())
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Contains(t, decision.Reason, "verification")
}
