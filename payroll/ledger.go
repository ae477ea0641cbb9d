/*
ledger.go - Adjustment creation with per-type cash-out strategy

PURPOSE:
  The Ledger is the single origin of adjustment rows. Callers record
  advances, bonuses, and deductions here, independent of settlement.

INVARIANT:
  An ADVANCE adjustment always has a non-empty LinkedTransactionID from
  the moment it exists. The cash movement and the adjustment row are
  created inside one WithTx closure: both commit or neither does.

STRATEGY TABLE:
  Whether a type originates an immediate cash movement is looked up once
  in creationPlans, not decided by scattered branches. BONUS and DEDUCTION
  only affect money at settlement time; ADVANCE pays cash out immediately
  and is reclaimed from net salary later.

SEE ALSO:
  - settlement.go: The only component allowed to flip PENDING -> PROCESSED
  - calculator.go: Reads the PENDING rows this ledger creates
*/
package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CREATION STRATEGY TABLE
// =============================================================================

type creationPlan struct {
	// originatesCashOut: the adjustment pays money out at creation time and
	// must carry the resulting movement id.
	originatesCashOut bool
}

var creationPlans = map[AdjustmentType]creationPlan{
	AdjustmentAdvance:   {originatesCashOut: true},
	AdjustmentBonus:     {},
	AdjustmentDeduction: {},
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger creates and stores adjustment records. No other component may
// create or mutate adjustment rows (settlement flips their status via the
// store's conditional update, nothing else).
type Ledger struct {
	backend Backend
	access  AccessPolicy
}

func NewLedger(backend Backend) *Ledger {
	return &Ledger{backend: backend, access: RoleAccess{}}
}

// NewLedgerWithAccess overrides the default branch-access policy.
func NewLedgerWithAccess(backend Backend, access AccessPolicy) *Ledger {
	return &Ledger{backend: backend, access: access}
}

// RecordAdjustmentInput carries the caller-supplied fields of an adjustment.
type RecordAdjustmentInput struct {
	EmployeeID    string
	Type          AdjustmentType
	Amount        decimal.Decimal
	EffectiveDate time.Time
	Description   string
}

// RecordAdjustment validates the input, then persists the adjustment -
// atomically paired with a cash movement for types that pay out
// immediately - and writes the audit entry in the same transaction.
//
// Precondition failures (ErrEmployeeNotFound, ErrValidation, ErrForbidden)
// occur before any write.
func (l *Ledger) RecordAdjustment(ctx context.Context, in RecordAdjustmentInput, actor Actor) (*Adjustment, error) {
	plan, ok := creationPlans[in.Type]
	if !ok {
		return nil, &ValidationError{Field: "type", Message: "must be ADVANCE, BONUS or DEDUCTION"}
	}
	if !in.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if in.EffectiveDate.IsZero() {
		return nil, &ValidationError{Field: "effective_date", Message: "is required"}
	}

	emp, err := l.backend.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !l.access.CanAccessBranch(actor, emp.BranchID) {
		return nil, ErrForbidden
	}

	adj := Adjustment{
		ID:            uuid.NewString(),
		EmployeeID:    in.EmployeeID,
		Type:          in.Type,
		Amount:        in.Amount,
		EffectiveDate: in.EffectiveDate,
		Description:   in.Description,
		Status:        AdjustmentPending,
		CreatedBy:     actor.ID,
		CreatedAt:     time.Now().UTC(),
	}

	err = l.backend.WithTx(ctx, func(tx Store) error {
		if plan.originatesCashOut {
			movement, err := tx.CreateExpense(ctx, ExpenseEntry{
				Amount:     in.Amount,
				Category:   SalaryExpense,
				Date:       in.EffectiveDate,
				EmployeeID: in.EmployeeID,
				Notes:      in.Description,
				BranchID:   emp.BranchID,
				Method:     PaymentCash,
			})
			if err != nil {
				return err
			}
			adj.LinkedTransactionID = movement.ID
		}

		if err := tx.InsertAdjustment(ctx, adj); err != nil {
			return err
		}

		payload := map[string]any{
			"employee_id":    adj.EmployeeID,
			"type":           adj.Type,
			"amount":         adj.Amount.String(),
			"effective_date": adj.EffectiveDate.Format("2006-01-02"),
			"status":         adj.Status,
		}
		if adj.LinkedTransactionID != "" {
			payload["linked_transaction_id"] = adj.LinkedTransactionID
		}
		return tx.LogCreate(ctx, actor.ID, EntityAdjustment, adj.ID, payload)
	})
	if err != nil {
		return nil, err
	}

	return &adj, nil
}
