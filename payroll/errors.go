/*
errors.go - Centralized error types for the settlement engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify errors with errors.Is / errors.As, never by string.

ERROR CATEGORIES:
  1. Precondition errors - raised before any write (NotFound, Forbidden,
     Validation, InvalidState)
  2. Transactional errors - raised inside the atomic unit and always
     accompanied by a full rollback (Conflict, Storage)

SEE ALSO:
  - ledger.go, calculator.go, settlement.go: raise these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when the referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrForbidden is returned when the actor may not access the employee's branch.
	ErrForbidden = errors.New("branch access denied")

	// ErrValidation is returned for malformed input (amount <= 0, bad period).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when the computed net salary is not positive.
	// Raised after the pure calculation, before the atomic unit opens.
	ErrInvalidState = errors.New("invalid settlement state")

	// ErrConflict is returned when the conditional adjustment update touches
	// fewer rows than the snapshot expected: another settlement already
	// consumed part of it. Always triggers a full rollback; safe to retry.
	ErrConflict = errors.New("settlement conflict")

	// ErrStorage wraps persistence failures inside the atomic unit.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidStateError reports a non-positive net salary.
type InvalidStateError struct {
	EmployeeID string
	Period     Period
	NetSalary  decimal.Decimal
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("net salary %s for employee %s in %s is not positive",
		e.NetSalary, e.EmployeeID, e.Period)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ConflictError reports an optimistic-update row-count mismatch.
type ConflictError struct {
	EmployeeID string
	Expected   int
	Updated    int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("settlement conflict for employee %s: expected %d pending adjustments, updated %d",
		e.EmployeeID, e.Expected, e.Updated)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// StorageError wraps an underlying persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return ErrStorage }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if re-invoking the operation might succeed.
// ConflictError and StorageError roll back everything, so retries are safe.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrStorage)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidState)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}
