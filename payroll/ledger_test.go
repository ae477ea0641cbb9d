package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// ADJUSTMENT CREATION
// =============================================================================

func TestLedger_RecordBonus_Success(t *testing.T) {
	// GIVEN: An existing employee
	// WHEN: Recording a bonus
	// THEN: The adjustment is persisted as PENDING with no cash movement

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(store)
	adj, err := ledger.RecordAdjustment(ctx, adjustmentInput("emp-1", payroll.AdjustmentBonus, "100", march(5)), admin)
	require.NoError(t, err)

	assert.NotEmpty(t, adj.ID)
	assert.Equal(t, payroll.AdjustmentPending, adj.Status)
	assert.Empty(t, adj.LinkedTransactionID, "a bonus moves no money at creation time")
	assert.Empty(t, adj.SalaryPaymentID)
	assert.Equal(t, admin.ID, adj.CreatedBy)

	stored, err := store.GetAdjustment(ctx, adj.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Amount.Equal(payroll.MustMoney("100")))

	movements, err := store.ListMovements(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestLedger_RecordDeduction_NoCashMovement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(store)
	adj, err := ledger.RecordAdjustment(ctx, adjustmentInput("emp-1", payroll.AdjustmentDeduction, "30", march(5)), admin)
	require.NoError(t, err)

	assert.Empty(t, adj.LinkedTransactionID)

	movements, err := store.ListMovements(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestLedger_RecordAdvance_CreatesCashMovement(t *testing.T) {
	// GIVEN: An existing employee
	// WHEN: Recording an advance
	// THEN: A cash movement exists and the adjustment carries its id

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(store)
	in := adjustmentInput("emp-1", payroll.AdjustmentAdvance, "20", march(15))
	in.Description = "cash advance"
	adj, err := ledger.RecordAdjustment(ctx, in, admin)
	require.NoError(t, err)

	require.NotEmpty(t, adj.LinkedTransactionID, "advance must reference its cash movement")

	movement, err := store.GetMovement(ctx, adj.LinkedTransactionID)
	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.True(t, movement.Amount.Equal(payroll.MustMoney("20")))
	assert.Equal(t, payroll.SalaryExpense, movement.Category)
	assert.Equal(t, payroll.PaymentCash, movement.Method)
	assert.Equal(t, "emp-1", movement.EmployeeID)
	assert.Equal(t, "main", movement.BranchID)
}

func TestLedger_RecordAdjustment_WritesAuditEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(store)
	adj, err := ledger.RecordAdjustment(ctx, adjustmentInput("emp-1", payroll.AdjustmentBonus, "100", march(5)), admin)
	require.NoError(t, err)

	entries, err := store.ListAuditEntries(ctx, payroll.EntityAdjustment, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, admin.ID, entries[0].ActorID)
	assert.Equal(t, adj.ID, entries[0].EntityID)
	assert.Equal(t, "emp-1", entries[0].Payload["employee_id"])
}

// =============================================================================
// VALIDATION - Fails before any write
// =============================================================================

func TestLedger_UnknownType_Rejected(t *testing.T) {
	store := newTestStore(t)
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(store)
	_, err := ledger.RecordAdjustment(context.Background(),
		adjustmentInput("emp-1", payroll.AdjustmentType("RAISE"), "100", march(5)), admin)

	assert.ErrorIs(t, err, payroll.ErrValidation)
	var vErr *payroll.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type", vErr.Field)
}

func TestLedger_NonPositiveAmount_Rejected(t *testing.T) {
	// GIVEN: An existing employee
	// WHEN: Recording zero and negative amounts
	// THEN: Both are rejected and nothing is persisted

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(store)
	for _, amount := range []string{"0", "-5"} {
		_, err := ledger.RecordAdjustment(ctx, adjustmentInput("emp-1", payroll.AdjustmentBonus, amount, march(5)), admin)
		assert.ErrorIs(t, err, payroll.ErrValidation, "amount %s should be rejected", amount)
	}

	adjustments, err := store.ListAdjustments(ctx, "emp-1", march2025.Span())
	require.NoError(t, err)
	assert.Empty(t, adjustments, "rejected input must leave no rows")
}

func TestLedger_MissingEffectiveDate_Rejected(t *testing.T) {
	store := newTestStore(t)
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(store)
	_, err := ledger.RecordAdjustment(context.Background(),
		adjustmentInput("emp-1", payroll.AdjustmentBonus, "100", time.Time{}), admin)

	assert.ErrorIs(t, err, payroll.ErrValidation)
}

func TestLedger_UnknownEmployee_NotFound(t *testing.T) {
	store := newTestStore(t)

	ledger := payroll.NewLedger(store)
	_, err := ledger.RecordAdjustment(context.Background(),
		adjustmentInput("ghost", payroll.AdjustmentBonus, "100", march(5)), admin)

	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestLedger_WrongBranch_Forbidden(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(store)
	_, err := ledger.RecordAdjustment(ctx,
		adjustmentInput("emp-1", payroll.AdjustmentBonus, "100", march(5)), accountant("east"))

	assert.ErrorIs(t, err, payroll.ErrForbidden)

	adjustments, err := store.ListAdjustments(ctx, "emp-1", march2025.Span())
	require.NoError(t, err)
	assert.Empty(t, adjustments)
}

// =============================================================================
// ATOMICITY - Advance creation is all-or-nothing
// =============================================================================

func TestLedger_Advance_JournalFailure_NothingPersisted(t *testing.T) {
	// GIVEN: A journal that fails inside the transaction
	// WHEN: Recording an advance
	// THEN: Neither the adjustment nor any movement survives

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(&faultBackend{Backend: store, failExpense: true})
	_, err := ledger.RecordAdjustment(ctx, adjustmentInput("emp-1", payroll.AdjustmentAdvance, "20", march(15)), admin)

	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrStorage)
	assert.True(t, payroll.IsRetryable(err))

	adjustments, err := store.ListAdjustments(ctx, "emp-1", march2025.Span())
	require.NoError(t, err)
	assert.Empty(t, adjustments, "no half-created advance may remain")

	movements, err := store.ListMovements(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestLedger_AuditFailure_RollsBackAdjustment(t *testing.T) {
	// A failed audit write fails the operation it documents.

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "main", "500", "0")

	ledger := payroll.NewLedger(&faultBackend{Backend: store, failAudit: true})
	_, err := ledger.RecordAdjustment(ctx, adjustmentInput("emp-1", payroll.AdjustmentAdvance, "20", march(15)), admin)

	require.Error(t, err)

	adjustments, err := store.ListAdjustments(ctx, "emp-1", march2025.Span())
	require.NoError(t, err)
	assert.Empty(t, adjustments)

	movements, err := store.ListMovements(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, movements, "the advance cash-out rolls back with the audit failure")
}
