/*
calculator.go - Net-salary snapshot computation

PURPOSE:
  Derives the settlement snapshot for an employee and pay period from the
  currently PENDING adjustments. Pure read - no side effects.

ALGORITHM:
  period     = [first day, last day] of the requested month, inclusive
  gross      = baseSalary + allowance
  net        = gross + bonuses - deductions - advances
  AdjustmentIDs records exactly which PENDING rows contributed; a later
  settlement may only finalize against that set.

  All arithmetic is decimal-exact. Never float.

SEE ALSO:
  - settlement.go: Consumes the snapshot
  - ledger.go: Creates the rows this reads
*/
package payroll

import (
	"context"
)

// Calculator derives settlement snapshots.
type Calculator struct {
	store  Store
	access AccessPolicy
}

func NewCalculator(store Store) *Calculator {
	return &Calculator{store: store, access: RoleAccess{}}
}

// NewCalculatorWithAccess overrides the default branch-access policy.
func NewCalculatorWithAccess(store Store, access AccessPolicy) *Calculator {
	return &Calculator{store: store, access: access}
}

// ComputeSnapshot captures the net-salary figures for one employee and
// month. The snapshot is ephemeral: it is not persisted and is never
// recomputed mid-settlement.
func (c *Calculator) ComputeSnapshot(ctx context.Context, employeeID string, month Month, actor Actor) (*Snapshot, error) {
	if !month.Valid() {
		return nil, &ValidationError{Field: "period", Message: "malformed month"}
	}

	emp, err := c.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !c.access.CanAccessBranch(actor, emp.BranchID) {
		return nil, ErrForbidden
	}

	period := month.Span()
	pending, err := c.store.ListPendingAdjustments(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		Employee:    *emp,
		Period:      period,
		GrossSalary: emp.GrossSalary(),
	}
	for _, adj := range pending {
		switch adj.Type {
		case AdjustmentBonus:
			snap.TotalBonuses = snap.TotalBonuses.Add(adj.Amount)
		case AdjustmentDeduction:
			snap.TotalDeductions = snap.TotalDeductions.Add(adj.Amount)
		case AdjustmentAdvance:
			snap.TotalAdvances = snap.TotalAdvances.Add(adj.Amount)
		}
		snap.AdjustmentIDs = append(snap.AdjustmentIDs, adj.ID)
	}

	snap.NetSalary = snap.GrossSalary.
		Add(snap.TotalBonuses).
		Sub(snap.TotalDeductions).
		Sub(snap.TotalAdvances)

	return &snap, nil
}

// SalaryDetails is the display-oriented wrapper around a snapshot: the
// computed figures plus every adjustment of the period regardless of status.
type SalaryDetails struct {
	Snapshot    Snapshot
	Adjustments []Adjustment
}

// GetSalaryDetails computes the snapshot and attaches the raw adjustment
// list for the same period.
func (c *Calculator) GetSalaryDetails(ctx context.Context, employeeID string, month Month, actor Actor) (*SalaryDetails, error) {
	snap, err := c.ComputeSnapshot(ctx, employeeID, month, actor)
	if err != nil {
		return nil, err
	}
	adjustments, err := c.store.ListAdjustments(ctx, employeeID, snap.Period)
	if err != nil {
		return nil, err
	}
	return &SalaryDetails{Snapshot: *snap, Adjustments: adjustments}, nil
}
