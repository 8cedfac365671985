package service

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ValidationError reports malformed input. Nothing is written when one is
// returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a validation error with a caller-facing reason
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a state conflict, such as a duplicate assignment for
// a lorry and date. The caller may retry with different input or skip.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// NewConflictError creates a conflict error with a caller-facing reason
func NewConflictError(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown lorry, driver, assignment or other record
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AlreadyVerifiedError reports a second verification attempt for an
// assignment. Re-verification is rejected rather than treated as a
// correction; a fresh clock-in requires a fresh assignment.
type AlreadyVerifiedError struct {
	AssignmentID string
}

func (e *AlreadyVerifiedError) Error() string {
	return fmt.Sprintf("assignment %s has already been stock verified", e.AssignmentID)
}

// SystemError wraps a storage or infrastructure failure. Any partial
// multi-row write has been rolled back by the time one is returned.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// NewSystemError wraps an infrastructure failure, capturing the stack at
// the point of failure
func NewSystemError(op string, err error) *SystemError {
	return &SystemError{Op: op, Err: pkgerrors.WithStack(err)}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsAlreadyVerified reports whether err is an AlreadyVerifiedError
func IsAlreadyVerified(err error) bool {
	var e *AlreadyVerifiedError
	return errors.As(err, &e)
}
