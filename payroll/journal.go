package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION JOURNAL - General cash/expense ledger (collaborator)
// =============================================================================

type ExpenseCategory string

// SalaryExpense tags every movement this engine originates, both the
// immediate cash-out of an ADVANCE and the settlement payout itself.
const SalaryExpense ExpenseCategory = "salary_expense"

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentBank PaymentMethod = "bank_transfer"
)

// ExpenseEntry describes one expense-side cash movement to originate.
type ExpenseEntry struct {
	Amount     decimal.Decimal
	Category   ExpenseCategory
	Date       time.Time
	EmployeeID string
	Notes      string
	BranchID   string
	Method     PaymentMethod
}

// CashMovement is an entry in the general ledger representing money paid out.
type CashMovement struct {
	ID         string
	Amount     decimal.Decimal
	Category   ExpenseCategory
	Date       time.Time
	EmployeeID string
	Notes      string
	BranchID   string
	Method     PaymentMethod
	CreatedAt  time.Time
}

// TransactionJournal originates expense cash movements. When invoked from a
// WithTx closure the movement commits or rolls back with the rest of the unit.
type TransactionJournal interface {
	CreateExpense(ctx context.Context, entry ExpenseEntry) (*CashMovement, error)
}
