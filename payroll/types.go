/*
Package payroll implements the salary settlement engine.

PURPOSE:
  This package contains the domain types and algorithms for accumulating
  salary adjustments (advances, bonuses, deductions) against an employee
  and closing a pay period into a single, consistent, auditable cash-out
  event.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: the settlement subject (base salary + allowance, branch-scoped)
  - Adjustment: a pending salary modifier awaiting settlement
  - SalaryPayment: the immutable record of a settled pay period
  - Snapshot: the figures and adjustment ids captured once per settlement
  - Actor: who is performing an operation (drives branch-access checks)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Immutability: SalaryPayment rows are never updated after the linkage
     write inside the settlement's own transaction
  3. Single writer: Adjustment status flips PENDING -> PROCESSED exactly
     once, only via the SettlementCoordinator's conditional update
  4. Auditability: Every state-changing operation writes an audit entry
     inside the same transaction

SEE ALSO:
  - ledger.go: Adjustment creation (with per-type cash-out strategy)
  - calculator.go: Net-salary snapshot computation
  - settlement.go: The atomic close-out
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY HELPERS
// =============================================================================

// MustMoney parses a decimal string, returning zero on failure.
// Intended for constants and test fixtures.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// ACTORS AND ROLES
// =============================================================================

type Role string

const (
	RoleAdmin      Role = "admin"      // Access to every branch
	RoleAccountant Role = "accountant" // Restricted to own branch
	RoleManager    Role = "manager"    // Restricted to own branch
)

// Actor identifies who is performing an operation. BranchID is the actor's
// assigned branch; it is only consulted for non-admin roles.
type Actor struct {
	ID       string
	Role     Role
	BranchID string
}

// =============================================================================
// EMPLOYEE - Settlement subject
// =============================================================================

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// Employee is immutable for this subsystem; rows are managed by the
// employee-management collaborator and only read here.
type Employee struct {
	ID         string
	BranchID   string
	Name       string
	BaseSalary decimal.Decimal
	Allowance  decimal.Decimal
	Status     EmployeeStatus
	CreatedAt  time.Time
}

// GrossSalary is base salary plus allowance.
func (e Employee) GrossSalary() decimal.Decimal {
	return e.BaseSalary.Add(e.Allowance)
}

// =============================================================================
// ADJUSTMENT - Pending salary modifier
// =============================================================================

type AdjustmentType string

const (
	AdjustmentAdvance   AdjustmentType = "ADVANCE"
	AdjustmentBonus     AdjustmentType = "BONUS"
	AdjustmentDeduction AdjustmentType = "DEDUCTION"
)

type AdjustmentStatus string

const (
	AdjustmentPending   AdjustmentStatus = "PENDING"
	AdjustmentProcessed AdjustmentStatus = "PROCESSED"
)

// Adjustment is born PENDING and is consumed by exactly one successful
// settlement run (PROCESSED), or lives forever if never settled.
//
// INVARIANTS:
//   - Amount is strictly positive.
//   - An ADVANCE always carries a non-empty LinkedTransactionID from the
//     moment it exists; the cash movement and the row are created in the
//     same transaction.
//   - SalaryPaymentID is set exactly when status becomes PROCESSED.
type Adjustment struct {
	ID                  string
	EmployeeID          string
	Type                AdjustmentType
	Amount              decimal.Decimal
	EffectiveDate       time.Time
	Description         string
	Status              AdjustmentStatus
	LinkedTransactionID string // cash movement id, ADVANCE only
	SalaryPaymentID     string // set when PROCESSED
	CreatedBy           string
	CreatedAt           time.Time
}

// =============================================================================
// SALARY PAYMENT - Settled pay period
// =============================================================================

// SalaryPayment records one settled pay period. Amount equals the net
// salary at settlement time and is always strictly positive. Rows are
// never mutated after creation except the linkage write that attaches
// LinkedTransactionID inside the same transaction.
type SalaryPayment struct {
	ID                  string
	EmployeeID          string
	Amount              decimal.Decimal
	PaymentDate         time.Time
	LinkedTransactionID string
	Notes               string
	RecordedBy          string
	CreatedAt           time.Time
}

// =============================================================================
// SNAPSHOT - Settlement input, captured once
// =============================================================================

// Snapshot is the ephemeral value object driving a settlement. It is
// captured once by the calculator and never recomputed mid-transaction;
// AdjustmentIDs is the only set a settlement may finalize against.
type Snapshot struct {
	Employee        Employee
	Period          Period
	GrossSalary     decimal.Decimal
	TotalBonuses    decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalAdvances   decimal.Decimal
	NetSalary       decimal.Decimal
	AdjustmentIDs   []string
}

// Summary is the caller-facing digest of a snapshot.
type Summary struct {
	EmployeeID      string          `json:"employee_id"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	GrossSalary     decimal.Decimal `json:"gross_salary"`
	TotalBonuses    decimal.Decimal `json:"total_bonuses"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalAdvances   decimal.Decimal `json:"total_advances"`
	NetSalary       decimal.Decimal `json:"net_salary"`
}

func (s Snapshot) Summary() Summary {
	return Summary{
		EmployeeID:      s.Employee.ID,
		PeriodStart:     s.Period.Start,
		PeriodEnd:       s.Period.End,
		GrossSalary:     s.GrossSalary,
		TotalBonuses:    s.TotalBonuses,
		TotalDeductions: s.TotalDeductions,
		TotalAdvances:   s.TotalAdvances,
		NetSalary:       s.NetSalary,
	}
}

// =============================================================================
// SETTLEMENT RESULT
// =============================================================================

// SettlementResult is returned by a successful PaySalary run.
type SettlementResult struct {
	Payment              SalaryPayment
	Movement             CashMovement
	AdjustmentsProcessed int
	Summary              Summary
}
