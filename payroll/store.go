/*
store.go - Persistence interfaces for the settlement engine

PURPOSE:
  Defines what the engine needs from storage. The SQLite implementation
  lives in store/sqlite; an alternative relational backend only needs to
  satisfy these interfaces.

TRANSACTIONAL BOUNDARY:
  Backend.WithTx runs a closure against a transaction-scoped Store. Every
  write the closure performs - adjustments, payments, cash movements, audit
  entries - commits or rolls back together. The journal and audit recorder
  are part of Store precisely so they join that boundary.

CONCURRENCY CONTRACT:
  MarkAdjustmentsProcessed is a conditional update: it flips only rows that
  are still PENDING and reports how many it actually touched. The
  coordinator compares that count against the snapshot; a shortfall means
  another settlement won the race and the unit aborts. This is the sole
  concurrency-control mechanism - no external lock manager.

SEE ALSO:
  - store/sqlite/sqlite.go: SQLite implementation
  - settlement.go: The only caller of MarkAdjustmentsProcessed
*/
package payroll

import (
	"context"
)

// EmployeeDirectory resolves employees. Employee management itself is an
// external collaborator; this subsystem only reads.
type EmployeeDirectory interface {
	// GetEmployee returns the employee or ErrEmployeeNotFound.
	GetEmployee(ctx context.Context, id string) (*Employee, error)
}

// Store is the full persistence surface of the settlement engine.
// A transaction-scoped Store is handed to WithTx closures.
type Store interface {
	EmployeeDirectory
	TransactionJournal
	AuditRecorder

	// Adjustments. InsertAdjustment is the only way adjustment rows are
	// born; MarkAdjustmentsProcessed is the only way they change state.
	InsertAdjustment(ctx context.Context, adj Adjustment) error
	GetAdjustment(ctx context.Context, id string) (*Adjustment, error)
	ListAdjustments(ctx context.Context, employeeID string, period Period) ([]Adjustment, error)
	ListPendingAdjustments(ctx context.Context, employeeID string, period Period) ([]Adjustment, error)

	// MarkAdjustmentsProcessed sets status PROCESSED and the payment link on
	// the given ids, but only for rows currently still PENDING. Returns the
	// number of rows actually updated.
	MarkAdjustmentsProcessed(ctx context.Context, ids []string, paymentID string) (int, error)

	// Salary payments. LinkPaymentMovement is the single permitted write to
	// an existing payment and only ever runs in the creating transaction.
	InsertPayment(ctx context.Context, p SalaryPayment) error
	GetPayment(ctx context.Context, id string) (*SalaryPayment, error)
	ListPayments(ctx context.Context, employeeID string) ([]SalaryPayment, error)
	LinkPaymentMovement(ctx context.Context, paymentID, movementID string) error
}

// Backend is a Store that can open atomic units.
type Backend interface {
	Store

	// WithTx executes fn against a transaction-scoped Store. If fn returns
	// an error the transaction rolls back and the error is returned
	// untouched; otherwise the transaction commits. Context cancellation or
	// timeout inside fn also rolls back the whole unit.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
