/*
settlement.go - Atomic pay-period close-out

PURPOSE:
  The Coordinator turns a snapshot into a settled pay period: one
  SalaryPayment, one cash movement in the journal, every contributing
  adjustment flipped to PROCESSED, one audit entry. All of it commits or
  none of it does.

STATE MACHINE (single run, no intermediate states observable):
  1. Compute snapshot (pure read)
  2. Guard: net salary must be positive, else InvalidState - zero writes
  3. One WithTx unit:
       insert payment -> originate movement -> link payment to movement
       -> conditional PENDING->PROCESSED update -> audit entry
  4. Commit and return the result

CONCURRENCY:
  Two concurrent settlements over the same employee/period race on the
  conditional update in step 3. The loser updates fewer rows than its
  snapshot expected and aborts with ConflictError; the underlying store
  rolls back its payment and movement. A single adjustment can never end
  up referenced by two payments.

FAILURE SEMANTICS:
  Any error inside the unit - journal, audit, storage, row-count mismatch -
  rolls back everything. Nothing is retried automatically; the caller gets
  a typed error and may safely re-invoke.

SEE ALSO:
  - calculator.go: Snapshot source
  - store.go: MarkAdjustmentsProcessed contract
*/
package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Coordinator orchestrates calculator, store, journal, and audit recorder
// into one atomic settlement unit.
type Coordinator struct {
	backend Backend
	calc    *Calculator
}

func NewCoordinator(backend Backend) *Coordinator {
	return &Coordinator{backend: backend, calc: NewCalculator(backend)}
}

// NewCoordinatorWithAccess overrides the default branch-access policy.
func NewCoordinatorWithAccess(backend Backend, access AccessPolicy) *Coordinator {
	return &Coordinator{backend: backend, calc: NewCalculatorWithAccess(backend, access)}
}

// PaySalaryInput carries the caller-supplied settlement parameters.
type PaySalaryInput struct {
	EmployeeID  string
	Month       Month
	PaymentDate time.Time
	Notes       string
}

// PaySalary closes out one pay period for one employee.
//
// NotFound, Forbidden, Validation, and InvalidState surface before the
// atomic unit opens: zero writes. Conflict and Storage errors surface
// after a full rollback: zero observable writes.
func (co *Coordinator) PaySalary(ctx context.Context, in PaySalaryInput, actor Actor) (*SettlementResult, error) {
	snap, err := co.calc.ComputeSnapshot(ctx, in.EmployeeID, in.Month, actor)
	if err != nil {
		return nil, err
	}
	if !snap.NetSalary.IsPositive() {
		return nil, &InvalidStateError{
			EmployeeID: in.EmployeeID,
			Period:     snap.Period,
			NetSalary:  snap.NetSalary,
		}
	}

	paymentDate := in.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}
	notes := in.Notes
	if notes == "" {
		notes = "Salary payment " + in.Month.String()
	}

	payment := SalaryPayment{
		ID:          uuid.NewString(),
		EmployeeID:  in.EmployeeID,
		Amount:      snap.NetSalary,
		PaymentDate: paymentDate,
		Notes:       notes,
		RecordedBy:  actor.ID,
		CreatedAt:   time.Now().UTC(),
	}

	var movement CashMovement
	var processed int

	err = co.backend.WithTx(ctx, func(tx Store) error {
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		m, err := tx.CreateExpense(ctx, ExpenseEntry{
			Amount:     snap.NetSalary,
			Category:   SalaryExpense,
			Date:       paymentDate,
			EmployeeID: in.EmployeeID,
			Notes:      notes,
			BranchID:   snap.Employee.BranchID,
			Method:     PaymentCash,
		})
		if err != nil {
			return err
		}
		movement = *m

		if err := tx.LinkPaymentMovement(ctx, payment.ID, movement.ID); err != nil {
			return err
		}
		payment.LinkedTransactionID = movement.ID

		// Only rows still PENDING are flipped. A shortfall means another
		// settlement consumed part of the snapshot: abort the whole unit.
		n, err := tx.MarkAdjustmentsProcessed(ctx, snap.AdjustmentIDs, payment.ID)
		if err != nil {
			return err
		}
		if n != len(snap.AdjustmentIDs) {
			return &ConflictError{
				EmployeeID: in.EmployeeID,
				Expected:   len(snap.AdjustmentIDs),
				Updated:    n,
			}
		}
		processed = n

		return tx.LogCreate(ctx, actor.ID, EntitySalaryPayment, payment.ID, map[string]any{
			"employee_id":           payment.EmployeeID,
			"amount":                payment.Amount.String(),
			"payment_date":          payment.PaymentDate.Format("2006-01-02"),
			"linked_transaction_id": movement.ID,
			"adjustments_processed": n,
		})
	})
	if err != nil {
		return nil, err
	}

	return &SettlementResult{
		Payment:              payment,
		Movement:             movement,
		AdjustmentsProcessed: processed,
		Summary:              snap.Summary(),
	}, nil
}
