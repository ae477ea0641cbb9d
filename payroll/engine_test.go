/*
engine_test.go - Shared fixtures for the settlement engine tests

Provides the in-memory store setup, employee seeding, common actors, and
the fault-injection backend wrappers used to exercise rollback semantics.
*/
package payroll_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEmployee(t *testing.T, store *sqlite.Store, id, branchID, baseSalary, allowance string) {
	t.Helper()
	err := store.SaveEmployee(context.Background(), payroll.Employee{
		ID:         id,
		BranchID:   branchID,
		Name:       "Employee " + id,
		BaseSalary: payroll.MustMoney(baseSalary),
		Allowance:  payroll.MustMoney(allowance),
		Status:     payroll.EmployeeActive,
	})
	require.NoError(t, err)
}

var admin = payroll.Actor{ID: "admin-1", Role: payroll.RoleAdmin}

func accountant(branchID string) payroll.Actor {
	return payroll.Actor{ID: "acct-1", Role: payroll.RoleAccountant, BranchID: branchID}
}

var march2025 = payroll.Month{Year: 2025, Month: time.March}

func march(day int) time.Time {
	return time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC)
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func adjustmentInput(employeeID string, typ payroll.AdjustmentType, amount string, date time.Time) payroll.RecordAdjustmentInput {
	return payroll.RecordAdjustmentInput{
		EmployeeID:    employeeID,
		Type:          typ,
		Amount:        payroll.MustMoney(amount),
		EffectiveDate: date,
	}
}

// =============================================================================
// FAULT INJECTION
// =============================================================================

// faultBackend wraps a real backend and makes selected collaborators fail
// inside the transaction, to verify that the whole unit rolls back.
type faultBackend struct {
	payroll.Backend
	failExpense bool
	failAudit   bool
}

func (b *faultBackend) WithTx(ctx context.Context, fn func(tx payroll.Store) error) error {
	return b.Backend.WithTx(ctx, func(tx payroll.Store) error {
		return fn(&faultStore{Store: tx, failExpense: b.failExpense, failAudit: b.failAudit})
	})
}

type faultStore struct {
	payroll.Store
	failExpense bool
	failAudit   bool
}

func (s *faultStore) CreateExpense(ctx context.Context, entry payroll.ExpenseEntry) (*payroll.CashMovement, error) {
	if s.failExpense {
		return nil, &payroll.StorageError{Op: "create expense", Err: errors.New("journal unavailable")}
	}
	return s.Store.CreateExpense(ctx, entry)
}

func (s *faultStore) LogCreate(ctx context.Context, actorID, entityType, entityID string, payload map[string]any) error {
	if s.failAudit {
		return &payroll.StorageError{Op: "append audit entry", Err: errors.New("audit log unavailable")}
	}
	return s.Store.LogCreate(ctx, actorID, entityType, entityID, payload)
}

// rivalBackend simulates a concurrent settlement winning the race: just
// before the unit opens, it flips the given adjustments to PROCESSED under
// a different payment id.
type rivalBackend struct {
	*sqlite.Store
	rivalIDs  []string
	paymentID string
	once      sync.Once
}

func (b *rivalBackend) WithTx(ctx context.Context, fn func(tx payroll.Store) error) error {
	b.once.Do(func() {
		b.Store.MarkAdjustmentsProcessed(ctx, b.rivalIDs, b.paymentID)
	})
	return b.Store.WithTx(ctx, fn)
}
