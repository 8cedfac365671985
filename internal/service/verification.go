package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/metrics"
	"example.com/medfleet/services/lorry/internal/model"
	"example.com/medfleet/services/lorry/internal/repository"
)

// VerifyRequest is a driver's clock-in stock scan for an assignment
type VerifyRequest struct {
	AssignmentID string   `json:"assignment_id" validate:"required"`
	ScannedUIDs  []string `json:"scanned_uids"`
	ActorID      string   `json:"actor_id" validate:"required"`
	At           time.Time
}

// VerifyResult is the outcome of a clock-in verification, including any
// holds placed by the accountability rules.
type VerifyResult struct {
	Verification *model.StockVerification `json:"verification"`
	Holds        []*model.DriverHold      `json:"holds"`
}

// VerificationService compares a driver's physical scan against the
// reconstructed expected stock and enforces the dual-hold accountability
// rules on variance.
type VerificationService interface {
	Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error)
	GetByAssignment(ctx context.Context, assignmentID string) (*model.StockVerification, error)
}

// verificationService implements VerificationService
type verificationService struct {
	store    *repository.Store
	policy   model.ActionPolicy
	notifier Notifier
	log      *logrus.Logger
}

// NewVerificationService creates a new verification service
func NewVerificationService(store *repository.Store, policy model.ActionPolicy, notifier Notifier, log *logrus.Logger) VerificationService {
	return &verificationService{
		store:    store,
		policy:   policy,
		notifier: notifier,
		log:      log,
	}
}

// diffUIDs computes missing = expected \ scanned and unexpected =
// scanned \ expected, both sorted. Duplicate scans of one uid count once.
func diffUIDs(expected, scanned []string) (missing, unexpected []string) {
	expectedSet := make(map[string]struct{}, len(expected))
	for _, uid := range expected {
		expectedSet[uid] = struct{}{}
	}
	scannedSet := make(map[string]struct{}, len(scanned))
	for _, uid := range scanned {
		scannedSet[uid] = struct{}{}
	}

	missing = make([]string, 0)
	for uid := range expectedSet {
		if _, ok := scannedSet[uid]; !ok {
			missing = append(missing, uid)
		}
	}
	unexpected = make([]string, 0)
	for uid := range scannedSet {
		if _, ok := expectedSet[uid]; !ok {
			unexpected = append(unexpected, uid)
		}
	}
	sort.Strings(missing)
	sort.Strings(unexpected)
	return missing, unexpected
}

// dedupe returns the sorted unique elements of uids
func dedupe(uids []string) []string {
	set := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		set[uid] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for uid := range set {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// Verify runs the clock-in stock check for an assignment. The expected set
// is the lorry's closing stock at the end of the prior business day, since
// the current day's movements have not happened yet. The verification row,
// the assignment flag and any accountability holds commit in one
// transaction: a variance is never durably visible without its holds.
func (s *verificationService) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	if req.AssignmentID == "" {
		return nil, NewValidationError("assignment_id is required")
	}
	if req.ActorID == "" {
		return nil, NewValidationError("actor_id is required")
	}
	at := req.At
	if at.IsZero() {
		at = time.Now()
	}

	scanned := dedupe(req.ScannedUIDs)

	var result *VerifyResult
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		assignment, err := tx.Assignments.GetByID(ctx, req.AssignmentID)
		if err != nil {
			if err == repository.ErrNotFound {
				return &NotFoundError{Resource: "assignment", ID: req.AssignmentID}
			}
			return NewSystemError("load assignment", err)
		}
		if assignment.StockVerified {
			return &AlreadyVerifiedError{AssignmentID: assignment.UUID}
		}
		if !assignment.Status.Open() {
			return NewConflictError("assignment %s is %s and cannot be verified", assignment.UUID, assignment.Status)
		}

		// Closing stock of the business day before the assignment day.
		cutoff := model.PriorBusinessDayEnd(assignment.AssignmentDate)
		rows, err := tx.Transactions.LatestActionsByUID(ctx, assignment.LorryID, cutoff)
		if err != nil {
			return NewSystemError("reconstruct expected stock", err)
		}
		expected := stockFromLatest(rows, s.policy)

		missing, unexpected := diffUIDs(expected, scanned)
		varianceCount := len(missing) + len(unexpected)

		status := model.VerificationVerified
		if varianceCount > 0 {
			status = model.VerificationVariance
		}

		verification := &model.StockVerification{
			Base:           model.Base{UUID: uuid.New().String()},
			AssignmentID:   assignment.UUID,
			LorryID:        assignment.LorryID,
			DriverID:       assignment.DriverID,
			ScannedUIDs:    scanned,
			ExpectedUIDs:   expected,
			MissingUIDs:    missing,
			UnexpectedUIDs: unexpected,
			VarianceCount:  varianceCount,
			Status:         status,
			VerifiedAt:     at,
		}

		if err := tx.Verifications.Create(ctx, verification); err != nil {
			if err == repository.ErrDuplicateKey {
				return &AlreadyVerifiedError{AssignmentID: assignment.UUID}
			}
			return NewSystemError("create verification", err)
		}

		if err := tx.Assignments.MarkVerified(ctx, assignment.UUID, at); err != nil {
			return NewSystemError("mark assignment verified", err)
		}

		holds := []*model.DriverHold{}
		if varianceCount > 0 {
			holds, err = s.placeVarianceHolds(ctx, tx, assignment, verification)
			if err != nil {
				// An undetected variance with no hold is a safety violation,
				// so a custodian lookup failure rolls back the verification.
				return err
			}
		}

		result = &VerifyResult{Verification: verification, Holds: holds}
		return nil
	})
	if err != nil {
		return nil, err
	}

	collector := metrics.GetMetricsCollector()
	collector.IncrementCounter(metrics.CounterVerifications, 1)
	if result.Verification.Status == model.VerificationVariance {
		collector.IncrementCounter(metrics.CounterVariancesDetected, 1)
	}
	collector.IncrementCounter(metrics.CounterHoldsCreated, int64(len(result.Holds)))

	s.notifier.VerificationCompleted(ctx, result.Verification)
	for _, hold := range result.Holds {
		s.notifier.HoldCreated(ctx, hold)
	}

	s.log.WithFields(logrus.Fields{
		"assignment_id":  result.Verification.AssignmentID,
		"lorry_id":       result.Verification.LorryID,
		"variance_count": result.Verification.VarianceCount,
		"holds":          len(result.Holds),
	}).Info("Stock verification recorded")

	return result, nil
}

// placeVarianceHolds applies the dual-hold rule: the scanning driver is
// always held, and the last custodian of the lorry is held as well when it
// is a different driver.
func (s *verificationService) placeVarianceHolds(
	ctx context.Context,
	tx *repository.Store,
	assignment *model.LorryAssignment,
	verification *model.StockVerification,
) ([]*model.DriverHold, error) {
	assignmentID := assignment.UUID
	verificationID := verification.UUID

	scannerHold := &model.DriverHold{
		Base:     model.Base{UUID: uuid.New().String()},
		DriverID: assignment.DriverID,
		Reason:   model.HoldReasonScanner,
		Description: fmt.Sprintf(
			"Stock variance of %d item(s) detected at clock-in on lorry %s (missing %d, unexpected %d)",
			verification.VarianceCount, assignment.LorryID,
			len(verification.MissingUIDs), len(verification.UnexpectedUIDs),
		),
		RelatedAssignmentID:   &assignmentID,
		RelatedVerificationID: &verificationID,
		Status:                model.HoldActive,
		CreatedBy:             "system",
	}
	if err := tx.Holds.Create(ctx, scannerHold); err != nil {
		return nil, NewSystemError("create scanner hold", err)
	}
	holds := []*model.DriverHold{scannerHold}

	custodian, err := tx.Transactions.LastCustodian(ctx, assignment.LorryID)
	if err != nil {
		if err == repository.ErrNotFound {
			// No driver ever touched the lorry; only the scanner is held.
			return holds, nil
		}
		return nil, NewSystemError("resolve last custodian", err)
	}

	if custodian.DriverID != nil && *custodian.DriverID != assignment.DriverID {
		custodianHold := &model.DriverHold{
			Base:     model.Base{UUID: uuid.New().String()},
			DriverID: *custodian.DriverID,
			Reason:   model.HoldReasonLastAction,
			Description: fmt.Sprintf(
				"Stock variance on lorry %s; last stock-changing action (%s on %s) was by this driver",
				assignment.LorryID, custodian.Action, model.FormatBusinessDate(custodian.TransactionTime),
			),
			RelatedAssignmentID:   &assignmentID,
			RelatedVerificationID: &verificationID,
			Status:                model.HoldActive,
			CreatedBy:             "system",
		}
		if err := tx.Holds.Create(ctx, custodianHold); err != nil {
			return nil, NewSystemError("create custodian hold", err)
		}
		holds = append(holds, custodianHold)
	}

	return holds, nil
}

// GetByAssignment returns the verification tied to an assignment
func (s *verificationService) GetByAssignment(ctx context.Context, assignmentID string) (*model.StockVerification, error) {
	if assignmentID == "" {
		return nil, NewValidationError("assignment_id is required")
	}
	verification, err := s.store.Verifications.GetByAssignment(ctx, assignmentID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &NotFoundError{Resource: "verification for assignment", ID: assignmentID}
		}
		return nil, NewSystemError("load verification", err)
	}
	return verification, nil
}
