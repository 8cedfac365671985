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

func strPtr(s string) *string { return &s }

func openAssignment(driverID string) *model.LorryAssignment {
	return &model.LorryAssignment{
		Base:           model.Base{UUID: "assignment-1"},
		DriverID:       driverID,
		LorryID:        "lorry-1",
		AssignmentDate: model.BusinessDate(time.Now()),
		Status:         model.AssignmentAssigned,
	}
}

func newVerificationFixture() (*MockAssignmentRepository, *MockTransactionRepository, *MockVerificationRepository, *MockHoldRepository, VerificationService) {
	assignments := new(MockAssignmentRepository)
	transactions := new(MockTransactionRepository)
	verifications := new(MockVerificationRepository)
	holds := new(MockHoldRepository)

	store := &repository.Store{
		Assignments:   assignments,
		Transactions:  transactions,
		Verifications: verifications,
		Holds:         holds,
	}
	svc := NewVerificationService(store, nil, NopNotifier{}, newTestLogger())
	return assignments, transactions, verifications, holds, svc
}

func TestVerifyCleanScan(t *testing.T) {
	assignments, transactions, verifications, _, svc := newVerificationFixture()

	assignments.On("GetByID", mock.Anything, "assignment-1").Return(openAssignment("driver-1"), nil)
	transactions.On("LatestActionsByUID", mock.Anything, "lorry-1", mock.Anything).Return([]repository.LatestAction{
		{UID: "CAN-001", Action: model.ActionLoad},
		{UID: "CAN-002", Action: model.ActionCollection},
		{UID: "CAN-003", Action: model.ActionDelivery},
	}, nil)
	verifications.On("Create", mock.Anything, mock.AnythingOfType("*model.StockVerification")).Return(nil)
	assignments.On("MarkVerified", mock.Anything, "assignment-1", mock.Anything).Return(nil)

	result, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ScannedUIDs:  []string{"CAN-002", "CAN-001"},
		ActorID:      "driver-1",
	})

	require.NoError(t, err)
	require.Equal(t, model.VerificationVerified, result.Verification.Status)
	require.Equal(t, 0, result.Verification.VarianceCount)
	require.Empty(t, result.Holds)
	require.Equal(t, []string{"CAN-001", "CAN-002"}, []string(result.Verification.ExpectedUIDs))
	assignments.AssertExpectations(t)
	verifications.AssertExpectations(t)
}

func TestVerifyMissingItemPlacesDualHolds(t *testing.T) {
	assignments, transactions, verifications, holds, svc := newVerificationFixture()

	assignments.On("GetByID", mock.Anything, "assignment-1").Return(openAssignment("driver-1"), nil)
	transactions.On("LatestActionsByUID", mock.Anything, "lorry-1", mock.Anything).Return([]repository.LatestAction{
		{UID: "CAN-001", Action: model.ActionLoad},
		{UID: "CAN-002", Action: model.ActionLoad},
	}, nil)
	verifications.On("Create", mock.Anything, mock.AnythingOfType("*model.StockVerification")).Return(nil)
	assignments.On("MarkVerified", mock.Anything, "assignment-1", mock.Anything).Return(nil)
	holds.On("Create", mock.Anything, mock.AnythingOfType("*model.DriverHold")).Return(nil)
	transactions.On("LastCustodian", mock.Anything, "lorry-1").Return(&model.Transaction{
		DriverID:        strPtr("driver-9"),
		Action:          model.ActionLoad,
		TransactionTime: time.Now().Add(-24 * time.Hour),
	}, nil)

	result, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ScannedUIDs:  []string{"CAN-001"},
		ActorID:      "driver-1",
	})

	require.NoError(t, err)
	require.Equal(t, model.VerificationVariance, result.Verification.Status)
	require.Equal(t, []string{"CAN-002"}, []string(result.Verification.MissingUIDs))
	require.Len(t, result.Holds, 2)
	require.Equal(t, "driver-1", result.Holds[0].DriverID)
	require.Equal(t, model.HoldReasonScanner, result.Holds[0].Reason)
	require.Equal(t, "driver-9", result.Holds[1].DriverID)
	require.Equal(t, model.HoldReasonLastAction, result.Holds[1].Reason)
	holds.AssertNumberOfCalls(t, "Create", 2)
}

func TestVerifyCustodianIsScannerSingleHold(t *testing.T) {
	assignments, transactions, verifications, holds, svc := newVerificationFixture()

	assignments.On("GetByID", mock.Anything, "assignment-1").Return(openAssignment("driver-1"), nil)
	transactions.On("LatestActionsByUID", mock.Anything, "lorry-1", mock.Anything).Return([]repository.LatestAction{
		{UID: "CAN-001", Action: model.ActionLoad},
	}, nil)
	verifications.On("Create", mock.Anything, mock.AnythingOfType("*model.StockVerification")).Return(nil)
	assignments.On("MarkVerified", mock.Anything, "assignment-1", mock.Anything).Return(nil)
	holds.On("Create", mock.Anything, mock.AnythingOfType("*model.DriverHold")).Return(nil)
	transactions.On("LastCustodian", mock.Anything, "lorry-1").Return(&model.Transaction{
		DriverID: strPtr("driver-1"),
		Action:   model.ActionLoad,
	}, nil)

	result, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ScannedUIDs:  []string{},
		ActorID:      "driver-1",
	})

	require.NoError(t, err)
	require.Len(t, result.Holds, 1)
	require.Equal(t, "driver-1", result.Holds[0].DriverID)
	holds.AssertNumberOfCalls(t, "Create", 1)
}

func TestVerifyUnexpectedItemIsVariance(t *testing.T) {
	assignments, transactions, verifications, holds, svc := newVerificationFixture()

	// CAN-002 was delivered yesterday; its latest event takes it out of
	// expected stock, so scanning it at clock-in is a variance.
	assignments.On("GetByID", mock.Anything, "assignment-1").Return(openAssignment("driver-1"), nil)
	transactions.On("LatestActionsByUID", mock.Anything, "lorry-1", mock.Anything).Return([]repository.LatestAction{
		{UID: "CAN-001", Action: model.ActionLoad},
		{UID: "CAN-002", Action: model.ActionDelivery},
	}, nil)
	verifications.On("Create", mock.Anything, mock.AnythingOfType("*model.StockVerification")).Return(nil)
	assignments.On("MarkVerified", mock.Anything, "assignment-1", mock.Anything).Return(nil)
	holds.On("Create", mock.Anything, mock.AnythingOfType("*model.DriverHold")).Return(nil)
	transactions.On("LastCustodian", mock.Anything, "lorry-1").Return(nil, repository.ErrNotFound)

	result, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ScannedUIDs:  []string{"CAN-001", "CAN-002"},
		ActorID:      "driver-1",
	})

	require.NoError(t, err)
	require.Equal(t, model.VerificationVariance, result.Verification.Status)
	require.Empty(t, result.Verification.MissingUIDs)
	require.Equal(t, []string{"CAN-002"}, []string(result.Verification.UnexpectedUIDs))
	require.Len(t, result.Holds, 1)
}

func TestVerifyEmptyLorryCleanScan(t *testing.T) {
	assignments, transactions, verifications, _, svc := newVerificationFixture()

	assignments.On("GetByID", mock.Anything, "assignment-1").Return(openAssignment("driver-1"), nil)
	transactions.On("LatestActionsByUID", mock.Anything, "lorry-1", mock.Anything).Return([]repository.LatestAction{}, nil)
	verifications.On("Create", mock.Anything, mock.AnythingOfType("*model.StockVerification")).Return(nil)
	assignments.On("MarkVerified", mock.Anything, "assignment-1", mock.Anything).Return(nil)

	result, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ScannedUIDs:  nil,
		ActorID:      "driver-1",
	})

	require.NoError(t, err)
	require.Equal(t, model.VerificationVerified, result.Verification.Status)
	require.Empty(t, result.Holds)
}

func TestVerifyDuplicateScansCountOnce(t *testing.T) {
	assignments, transactions, verifications, _, svc := newVerificationFixture()

	assignments.On("GetByID", mock.Anything, "assignment-1").Return(openAssignment("driver-1"), nil)
	transactions.On("LatestActionsByUID", mock.Anything, "lorry-1", mock.Anything).Return([]repository.LatestAction{
		{UID: "CAN-001", Action: model.ActionLoad},
	}, nil)
	verifications.On("Create", mock.Anything, mock.AnythingOfType("*model.StockVerification")).Return(nil)
	assignments.On("MarkVerified", mock.Anything, "assignment-1", mock.Anything).Return(nil)

	result, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ScannedUIDs:  []string{"CAN-001", "CAN-001", "CAN-001"},
		ActorID:      "driver-1",
	})

	require.NoError(t, err)
	require.Equal(t, model.VerificationVerified, result.Verification.Status)
	require.Equal(t, []string{"CAN-001"}, []string(result.Verification.ScannedUIDs))
}

func TestVerifyAlreadyVerifiedRejected(t *testing.T) {
	assignments, _, _, _, svc := newVerificationFixture()

	assignment := openAssignment("driver-1")
	assignment.StockVerified = true
	assignments.On("GetByID", mock.Anything, "assignment-1").Return(assignment, nil)

	_, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ScannedUIDs:  []string{"CAN-001"},
		ActorID:      "driver-1",
	})

	require.Error(t, err)
	require.True(t, IsAlreadyVerified(err))
}

func TestVerifyClosedAssignmentRejected(t *testing.T) {
	assignments, _, _, _, svc := newVerificationFixture()

	assignment := openAssignment("driver-1")
	assignment.Status = model.AssignmentCompleted
	assignments.On("GetByID", mock.Anything, "assignment-1").Return(assignment, nil)

	_, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ActorID:      "driver-1",
	})

	require.Error(t, err)
	require.True(t, IsConflict(err))
}

func TestVerifyConcurrentDuplicateRejected(t *testing.T) {
	assignments, transactions, verifications, _, svc := newVerificationFixture()

	assignments.On("GetByID", mock.Anything, "assignment-1").Return(openAssignment("driver-1"), nil)
	transactions.On("LatestActionsByUID", mock.Anything, "lorry-1", mock.Anything).Return([]repository.LatestAction{}, nil)
	verifications.On("Create", mock.Anything, mock.AnythingOfType("*model.StockVerification")).Return(repository.ErrDuplicateKey)

	_, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "assignment-1",
		ActorID:      "driver-1",
	})

	require.Error(t, err)
	require.True(t, IsAlreadyVerified(err))
}

func TestVerifyUnknownAssignment(t *testing.T) {
	assignments, _, _, _, svc := newVerificationFixture()

	assignments.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	_, err := svc.Verify(context.Background(), &VerifyRequest{
		AssignmentID: "missing",
		ActorID:      "driver-1",
	})

	require.Error(t, err)
	require.True(t, IsNotFound(err))
}
