package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func pendingAdjustment(id, employeeID string, amount string, day time.Time) payroll.Adjustment {
	return payroll.Adjustment{
		ID:            id,
		EmployeeID:    employeeID,
		Type:          payroll.AdjustmentBonus,
		Amount:        payroll.MustMoney(amount),
		EffectiveDate: day,
		Status:        payroll.AdjustmentPending,
		CreatedBy:     "tester",
		CreatedAt:     time.Now().UTC(),
	}
}

var marchPeriod = payroll.Month{Year: 2025, Month: time.March}.Span()

func marchDay(day int) time.Time {
	return time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

func TestStore_SaveEmployee_Upsert(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	emp := payroll.Employee{
		ID:         "emp-1",
		BranchID:   "main",
		Name:       "Ada",
		BaseSalary: payroll.MustMoney("500"),
		Allowance:  payroll.MustMoney("50"),
		Status:     payroll.EmployeeActive,
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.True(t, got.BaseSalary.Equal(payroll.MustMoney("500")))

	// Same id again updates in place
	emp.Name = "Ada L."
	emp.BaseSalary = payroll.MustMoney("520")
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err = store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.True(t, got.BaseSalary.Equal(payroll.MustMoney("520")))

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_GetEmployee_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetEmployee(context.Background(), "ghost")
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

// =============================================================================
// CONDITIONAL UPDATE - The concurrency-control primitive
// =============================================================================

func TestStore_MarkAdjustmentsProcessed_OnlyFlipsPending(t *testing.T) {
	// GIVEN: Two PENDING rows and one already PROCESSED under another payment
	// WHEN: Marking all three
	// THEN: Only the two PENDING rows flip; the third keeps its payment

	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertAdjustment(ctx, pendingAdjustment("adj-1", "emp-1", "10", marchDay(5))))
	require.NoError(t, store.InsertAdjustment(ctx, pendingAdjustment("adj-2", "emp-1", "20", marchDay(6))))

	taken := pendingAdjustment("adj-3", "emp-1", "30", marchDay(7))
	taken.Status = payroll.AdjustmentProcessed
	taken.SalaryPaymentID = "earlier-payment"
	require.NoError(t, store.InsertAdjustment(ctx, taken))

	n, err := store.MarkAdjustmentsProcessed(ctx, []string{"adj-1", "adj-2", "adj-3"}, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "only PENDING rows count")

	for _, id := range []string{"adj-1", "adj-2"} {
		adj, err := store.GetAdjustment(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, payroll.AdjustmentProcessed, adj.Status)
		assert.Equal(t, "pay-1", adj.SalaryPaymentID)
	}

	adj, err := store.GetAdjustment(ctx, "adj-3")
	require.NoError(t, err)
	assert.Equal(t, "earlier-payment", adj.SalaryPaymentID, "processed rows are never re-linked")
}

func TestStore_MarkAdjustmentsProcessed_SecondRunIsNoop(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertAdjustment(ctx, pendingAdjustment("adj-1", "emp-1", "10", marchDay(5))))

	n, err := store.MarkAdjustmentsProcessed(ctx, []string{"adj-1"}, "pay-1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = store.MarkAdjustmentsProcessed(ctx, []string{"adj-1"}, "pay-2")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "a row flips exactly once")

	adj, err := store.GetAdjustment(ctx, "adj-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", adj.SalaryPaymentID)
}

func TestStore_MarkAdjustmentsProcessed_EmptyIDs(t *testing.T) {
	store := newStore(t)

	n, err := store.MarkAdjustmentsProcessed(context.Background(), nil, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// =============================================================================
// ADJUSTMENT QUERIES
// =============================================================================

func TestStore_ListPendingAdjustments_FiltersStatusAndPeriod(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertAdjustment(ctx, pendingAdjustment("in-1", "emp-1", "10", marchDay(1))))
	require.NoError(t, store.InsertAdjustment(ctx, pendingAdjustment("in-2", "emp-1", "10", marchDay(31))))
	require.NoError(t, store.InsertAdjustment(ctx, pendingAdjustment("out-month", "emp-1", "10",
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, store.InsertAdjustment(ctx, pendingAdjustment("other-emp", "emp-2", "10", marchDay(5))))

	done := pendingAdjustment("done", "emp-1", "10", marchDay(10))
	done.Status = payroll.AdjustmentProcessed
	require.NoError(t, store.InsertAdjustment(ctx, done))

	pending, err := store.ListPendingAdjustments(ctx, "emp-1", marchPeriod)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "in-1", pending[0].ID, "ordered by effective date")
	assert.Equal(t, "in-2", pending[1].ID)

	all, err := store.ListAdjustments(ctx, "emp-1", marchPeriod)
	require.NoError(t, err)
	assert.Len(t, all, 3, "unfiltered list includes the processed row")
}

func TestStore_GetAdjustment_Missing(t *testing.T) {
	store := newStore(t)

	adj, err := store.GetAdjustment(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, adj)
}

func TestStore_Adjustment_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	in := pendingAdjustment("adj-1", "emp-1", "123.45", marchDay(5))
	in.Type = payroll.AdjustmentAdvance
	in.Description = "cash advance"
	in.LinkedTransactionID = "mov-1"
	require.NoError(t, store.InsertAdjustment(ctx, in))

	out, err := store.GetAdjustment(ctx, "adj-1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, payroll.AdjustmentAdvance, out.Type)
	assert.True(t, out.Amount.Equal(payroll.MustMoney("123.45")))
	assert.Equal(t, marchDay(5), out.EffectiveDate)
	assert.Equal(t, "cash advance", out.Description)
	assert.Equal(t, "mov-1", out.LinkedTransactionID)
	assert.Empty(t, out.SalaryPaymentID)
}

// =============================================================================
// TRANSACTIONAL BOUNDARY
// =============================================================================

func TestStore_WithTx_RollbackOnError(t *testing.T) {
	// GIVEN: A closure that writes an adjustment, a payment, and a movement
	// WHEN: The closure returns an error
	// THEN: None of the writes survive, and the error comes back untouched

	store := newStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx payroll.Store) error {
		if err := tx.InsertAdjustment(ctx, pendingAdjustment("adj-1", "emp-1", "10", marchDay(5))); err != nil {
			return err
		}
		if err := tx.InsertPayment(ctx, payroll.SalaryPayment{
			ID:         "pay-1",
			EmployeeID: "emp-1",
			Amount:     payroll.MustMoney("500"),
			RecordedBy: "tester",
		}); err != nil {
			return err
		}
		if _, err := tx.CreateExpense(ctx, payroll.ExpenseEntry{
			Amount:   payroll.MustMoney("500"),
			Category: payroll.SalaryExpense,
			Date:     marchDay(31),
			BranchID: "main",
			Method:   payroll.PaymentCash,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	adj, err := store.GetAdjustment(ctx, "adj-1")
	require.NoError(t, err)
	assert.Nil(t, adj)

	payment, err := store.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Nil(t, payment)

	movements, err := store.ListMovements(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestStore_WithTx_CommitsOnSuccess(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx payroll.Store) error {
		return tx.InsertAdjustment(ctx, pendingAdjustment("adj-1", "emp-1", "10", marchDay(5)))
	})
	require.NoError(t, err)

	adj, err := store.GetAdjustment(ctx, "adj-1")
	require.NoError(t, err)
	require.NotNil(t, adj)
}

// =============================================================================
// SALARY PAYMENTS
// =============================================================================

func TestStore_LinkPaymentMovement_OnlyOnce(t *testing.T) {
	// A payment accepts the linkage write exactly once.

	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPayment(ctx, payroll.SalaryPayment{
		ID:         "pay-1",
		EmployeeID: "emp-1",
		Amount:     payroll.MustMoney("500"),
		RecordedBy: "tester",
	}))

	require.NoError(t, store.LinkPaymentMovement(ctx, "pay-1", "mov-1"))

	err := store.LinkPaymentMovement(ctx, "pay-1", "mov-2")
	assert.ErrorIs(t, err, payroll.ErrStorage)

	payment, err := store.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "mov-1", payment.LinkedTransactionID)
}

func TestStore_LinkPaymentMovement_MissingPayment(t *testing.T) {
	store := newStore(t)

	err := store.LinkPaymentMovement(context.Background(), "ghost", "mov-1")
	assert.ErrorIs(t, err, payroll.ErrStorage)
}

func TestStore_ListPayments_PerEmployee(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, p := range []payroll.SalaryPayment{
		{ID: "pay-1", EmployeeID: "emp-1", Amount: payroll.MustMoney("500"), PaymentDate: marchDay(31), RecordedBy: "tester"},
		{ID: "pay-2", EmployeeID: "emp-1", Amount: payroll.MustMoney("510"), PaymentDate: time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC), RecordedBy: "tester"},
		{ID: "pay-other", EmployeeID: "emp-2", Amount: payroll.MustMoney("400"), PaymentDate: marchDay(31), RecordedBy: "tester"},
	} {
		require.NoError(t, store.InsertPayment(ctx, p))
	}

	payments, err := store.ListPayments(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "pay-2", payments[0].ID, "newest first")
}

// =============================================================================
// JOURNAL AND AUDIT ADAPTERS
// =============================================================================

func TestStore_CreateExpense_ListMovements(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	movement, err := store.CreateExpense(ctx, payroll.ExpenseEntry{
		Amount:     payroll.MustMoney("20"),
		Category:   payroll.SalaryExpense,
		Date:       marchDay(15),
		EmployeeID: "emp-1",
		Notes:      "advance",
		BranchID:   "main",
		Method:     payroll.PaymentCash,
	})
	require.NoError(t, err)
	require.NotEmpty(t, movement.ID)

	_, err = store.CreateExpense(ctx, payroll.ExpenseEntry{
		Amount:   payroll.MustMoney("99"),
		Category: payroll.SalaryExpense,
		Date:     marchDay(15),
		BranchID: "east",
		Method:   payroll.PaymentBank,
	})
	require.NoError(t, err)

	movements, err := store.ListMovements(ctx, "main")
	require.NoError(t, err)
	require.Len(t, movements, 1, "branch filter applies")
	assert.Equal(t, movement.ID, movements[0].ID)
	assert.True(t, movements[0].Amount.Equal(payroll.MustMoney("20")))
	assert.Equal(t, payroll.PaymentCash, movements[0].Method)

	got, err := store.GetMovement(ctx, movement.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "emp-1", got.EmployeeID)
}

func TestStore_AuditLog_AppendAndList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.LogCreate(ctx, "actor-1", payroll.EntityAdjustment, "adj-1",
		map[string]any{"amount": "10"}))
	require.NoError(t, store.LogCreate(ctx, "actor-1", payroll.EntitySalaryPayment, "pay-1", nil))

	entries, err := store.ListAuditEntries(ctx, payroll.EntityAdjustment, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1, "entity type filter applies")
	assert.Equal(t, "actor-1", entries[0].ActorID)
	assert.Equal(t, "adj-1", entries[0].EntityID)
	assert.Equal(t, "10", entries[0].Payload["amount"])
	assert.False(t, entries[0].CreatedAt.IsZero())
}
