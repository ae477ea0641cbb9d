/*
Package sqlite provides the SQLite-backed implementation of payroll.Backend.

PURPOSE:
  Implements every persistence interface the settlement engine consumes -
  employee directory, adjustment and payment tables, the cash-movement
  journal adapter, and the append-only audit log - over one database so a
  single transaction can span all of them. In production the same patterns
  apply to PostgreSQL; only minor SQL dialect differences.

KEY TABLES:
  employees:       Directory rows read by the engine
  adjustments:     Salary modifiers; status flips via conditional update only
  salary_payments: One row per settled pay period, never mutated afterward
  cash_movements:  Expense-side journal entries
  audit_log:       Append-only; no UPDATE or DELETE statements exist for it

CONDITIONAL UPDATE:
  MarkAdjustmentsProcessed adds "AND status = 'PENDING'" to the id-list
  update and reports rows affected. Inside a transaction this gives the
  compare-and-swap semantics the coordinator's conflict check relies on.

WAL MODE:
  SQLite is opened with WAL and foreign keys on. The store-level mutex
  serializes writers; readers don't block.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  coordinator := payroll.NewCoordinator(store)

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/settlement.go: The WithTx caller
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

const dayFormat = "2006-01-02"

// Store implements payroll.Backend using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite permits one writer at a time, and ":memory:" databases are
	// per-connection. A single pooled connection keeps both correct.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		name TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		allowance TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_branch
		ON employees(branch_id);

	CREATE TABLE IF NOT EXISTS adjustments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'PENDING',
		linked_transaction_id TEXT,
		salary_payment_id TEXT,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Snapshot computation hot path: pending rows per employee and period
	CREATE INDEX IF NOT EXISTS idx_adjustments_employee_status_date
		ON adjustments(employee_id, status, effective_date);
	CREATE INDEX IF NOT EXISTS idx_adjustments_payment
		ON adjustments(salary_payment_id) WHERE salary_payment_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS salary_payments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		linked_transaction_id TEXT,
		notes TEXT,
		recorded_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_employee
		ON salary_payments(employee_id, payment_date);

	CREATE TABLE IF NOT EXISTS cash_movements (
		id TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		date TEXT NOT NULL,
		employee_id TEXT,
		notes TEXT,
		branch_id TEXT NOT NULL,
		method TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_branch_date
		ON cash_movements(branch_id, date);

	-- Append-only: no UPDATE or DELETE statements exist for this table
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		payload_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entity
		ON audit_log(entity_type, entity_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONAL BOUNDARY (payroll.Backend)
// =============================================================================

// WithTx executes fn against a transaction-scoped store. Everything fn
// writes commits or rolls back together.
func (s *Store) WithTx(ctx context.Context, fn func(tx payroll.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &payroll.StorageError{Op: "begin transaction", Err: err}
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &payroll.StorageError{Op: "commit transaction", Err: err}
	}
	return nil
}

// txStore is the transaction-scoped view handed to WithTx closures.
// It must not touch the parent mutex: WithTx already holds it.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetEmployee(ctx context.Context, id string) (*payroll.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) InsertAdjustment(ctx context.Context, adj payroll.Adjustment) error {
	return insertAdjustment(ctx, ts.tx, adj)
}

func (ts *txStore) GetAdjustment(ctx context.Context, id string) (*payroll.Adjustment, error) {
	return getAdjustment(ctx, ts.tx, id)
}

func (ts *txStore) ListAdjustments(ctx context.Context, employeeID string, period payroll.Period) ([]payroll.Adjustment, error) {
	return listAdjustments(ctx, ts.tx, employeeID, period, "")
}

func (ts *txStore) ListPendingAdjustments(ctx context.Context, employeeID string, period payroll.Period) ([]payroll.Adjustment, error) {
	return listAdjustments(ctx, ts.tx, employeeID, period, payroll.AdjustmentPending)
}

func (ts *txStore) MarkAdjustmentsProcessed(ctx context.Context, ids []string, paymentID string) (int, error) {
	return markProcessed(ctx, ts.tx, ids, paymentID)
}

func (ts *txStore) InsertPayment(ctx context.Context, p payroll.SalaryPayment) error {
	return insertPayment(ctx, ts.tx, p)
}

func (ts *txStore) GetPayment(ctx context.Context, id string) (*payroll.SalaryPayment, error) {
	return getPayment(ctx, ts.tx, id)
}

func (ts *txStore) ListPayments(ctx context.Context, employeeID string) ([]payroll.SalaryPayment, error) {
	return listPayments(ctx, ts.tx, employeeID)
}

func (ts *txStore) LinkPaymentMovement(ctx context.Context, paymentID, movementID string) error {
	return linkPaymentMovement(ctx, ts.tx, paymentID, movementID)
}

func (ts *txStore) CreateExpense(ctx context.Context, entry payroll.ExpenseEntry) (*payroll.CashMovement, error) {
	return createExpense(ctx, ts.tx, entry)
}

func (ts *txStore) LogCreate(ctx context.Context, actorID, entityType, entityID string, payload map[string]any) error {
	return logCreate(ctx, ts.tx, actorID, entityType, entityID, payload)
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

// SaveEmployee inserts or updates a directory row. Employee management is
// an external concern; this exists so the repo is runnable end to end.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, branch_id, name, base_salary, allowance, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			branch_id = excluded.branch_id,
			name = excluded.name,
			base_salary = excluded.base_salary,
			allowance = excluded.allowance,
			status = excluded.status
	`

	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.BranchID, emp.Name,
		emp.BaseSalary.String(), emp.Allowance.String(),
		string(emp.Status),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return &payroll.StorageError{Op: "save employee", Err: err}
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getEmployee(ctx, s.db, id)
}

// ListEmployees returns all directory rows, for the API layer.
func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, branch_id, name, base_salary, allowance, status, created_at FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, &payroll.StorageError{Op: "list employees", Err: err}
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		var emp payroll.Employee
		var baseSalary, allowance, status, createdAt string
		if err := rows.Scan(&emp.ID, &emp.BranchID, &emp.Name, &baseSalary, &allowance, &status, &createdAt); err != nil {
			return nil, &payroll.StorageError{Op: "scan employee", Err: err}
		}
		emp.BaseSalary = mustDecimal(baseSalary)
		emp.Allowance = mustDecimal(allowance)
		emp.Status = payroll.EmployeeStatus(status)
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func getEmployee(ctx context.Context, db dbtx, id string) (*payroll.Employee, error) {
	row := db.QueryRowContext(ctx,
		"SELECT id, branch_id, name, base_salary, allowance, status, created_at FROM employees WHERE id = ?",
		id,
	)

	var emp payroll.Employee
	var baseSalary, allowance, status, createdAt string
	err := row.Scan(&emp.ID, &emp.BranchID, &emp.Name, &baseSalary, &allowance, &status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, payroll.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, &payroll.StorageError{Op: "get employee", Err: err}
	}

	emp.BaseSalary = mustDecimal(baseSalary)
	emp.Allowance = mustDecimal(allowance)
	emp.Status = payroll.EmployeeStatus(status)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

func (s *Store) InsertAdjustment(ctx context.Context, adj payroll.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertAdjustment(ctx, s.db, adj)
}

func (s *Store) GetAdjustment(ctx context.Context, id string) (*payroll.Adjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getAdjustment(ctx, s.db, id)
}

func (s *Store) ListAdjustments(ctx context.Context, employeeID string, period payroll.Period) ([]payroll.Adjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listAdjustments(ctx, s.db, employeeID, period, "")
}

func (s *Store) ListPendingAdjustments(ctx context.Context, employeeID string, period payroll.Period) ([]payroll.Adjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listAdjustments(ctx, s.db, employeeID, period, payroll.AdjustmentPending)
}

func (s *Store) MarkAdjustmentsProcessed(ctx context.Context, ids []string, paymentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return markProcessed(ctx, s.db, ids, paymentID)
}

func insertAdjustment(ctx context.Context, db dbtx, adj payroll.Adjustment) error {
	query := `
		INSERT INTO adjustments
		(id, employee_id, type, amount, effective_date, description, status,
		 linked_transaction_id, salary_payment_id, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		adj.ID,
		adj.EmployeeID,
		string(adj.Type),
		adj.Amount.String(),
		adj.EffectiveDate.Format(dayFormat),
		adj.Description,
		string(adj.Status),
		nullString(adj.LinkedTransactionID),
		nullString(adj.SalaryPaymentID),
		adj.CreatedBy,
		adj.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return &payroll.StorageError{Op: "insert adjustment", Err: err}
	}
	return nil
}

func getAdjustment(ctx context.Context, db dbtx, id string) (*payroll.Adjustment, error) {
	query := `
		SELECT id, employee_id, type, amount, effective_date, description, status,
		       linked_transaction_id, salary_payment_id, created_by, created_at
		FROM adjustments WHERE id = ?
	`

	adjustments, err := queryAdjustments(ctx, db, query, id)
	if err != nil {
		return nil, err
	}
	if len(adjustments) == 0 {
		return nil, nil
	}
	return &adjustments[0], nil
}

func listAdjustments(ctx context.Context, db dbtx, employeeID string, period payroll.Period, status payroll.AdjustmentStatus) ([]payroll.Adjustment, error) {
	query := `
		SELECT id, employee_id, type, amount, effective_date, description, status,
		       linked_transaction_id, salary_payment_id, created_by, created_at
		FROM adjustments
		WHERE employee_id = ?
		  AND effective_date >= ? AND effective_date <= ?
	`
	args := []any{employeeID, period.Start.Format(dayFormat), period.End.Format(dayFormat)}

	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY effective_date ASC, created_at ASC"

	return queryAdjustments(ctx, db, query, args...)
}

func markProcessed(ctx context.Context, db dbtx, ids []string, paymentID string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	// The status guard makes this a compare-and-swap, not a blind bulk
	// write: rows already PROCESSED are left alone and not counted.
	query := fmt.Sprintf(`
		UPDATE adjustments
		SET status = ?, salary_payment_id = ?
		WHERE id IN (%s) AND status = ?
	`, placeholders)

	args := []any{string(payroll.AdjustmentProcessed), paymentID}
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, string(payroll.AdjustmentPending))

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &payroll.StorageError{Op: "mark adjustments processed", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &payroll.StorageError{Op: "mark adjustments processed", Err: err}
	}
	return int(n), nil
}

func queryAdjustments(ctx context.Context, db dbtx, query string, args ...any) ([]payroll.Adjustment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &payroll.StorageError{Op: "query adjustments", Err: err}
	}
	defer rows.Close()

	var adjustments []payroll.Adjustment
	for rows.Next() {
		var (
			adj           payroll.Adjustment
			amount        string
			effectiveDate string
			description   sql.NullString
			status        string
			linkedTxID    sql.NullString
			paymentID     sql.NullString
			createdAt     string
		)
		err := rows.Scan(
			&adj.ID, &adj.EmployeeID, (*string)(&adj.Type), &amount, &effectiveDate,
			&description, &status, &linkedTxID, &paymentID, &adj.CreatedBy, &createdAt,
		)
		if err != nil {
			return nil, &payroll.StorageError{Op: "scan adjustment", Err: err}
		}

		adj.Amount = mustDecimal(amount)
		adj.EffectiveDate, _ = time.Parse(dayFormat, effectiveDate)
		adj.Description = description.String
		adj.Status = payroll.AdjustmentStatus(status)
		adj.LinkedTransactionID = linkedTxID.String
		adj.SalaryPaymentID = paymentID.String
		adj.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

// =============================================================================
// SALARY PAYMENTS
// =============================================================================

func (s *Store) InsertPayment(ctx context.Context, p payroll.SalaryPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertPayment(ctx, s.db, p)
}

func (s *Store) GetPayment(ctx context.Context, id string) (*payroll.SalaryPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getPayment(ctx, s.db, id)
}

func (s *Store) ListPayments(ctx context.Context, employeeID string) ([]payroll.SalaryPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listPayments(ctx, s.db, employeeID)
}

func (s *Store) LinkPaymentMovement(ctx context.Context, paymentID, movementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return linkPaymentMovement(ctx, s.db, paymentID, movementID)
}

func insertPayment(ctx context.Context, db dbtx, p payroll.SalaryPayment) error {
	query := `
		INSERT INTO salary_payments
		(id, employee_id, amount, payment_date, linked_transaction_id, notes, recorded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		p.ID, p.EmployeeID, p.Amount.String(),
		p.PaymentDate.Format(dayFormat),
		nullString(p.LinkedTransactionID),
		p.Notes, p.RecordedBy,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return &payroll.StorageError{Op: "insert payment", Err: err}
	}
	return nil
}

func getPayment(ctx context.Context, db dbtx, id string) (*payroll.SalaryPayment, error) {
	query := `
		SELECT id, employee_id, amount, payment_date, linked_transaction_id, notes, recorded_by, created_at
		FROM salary_payments WHERE id = ?
	`

	payments, err := queryPayments(ctx, db, query, id)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, nil
	}
	return &payments[0], nil
}

func listPayments(ctx context.Context, db dbtx, employeeID string) ([]payroll.SalaryPayment, error) {
	query := `
		SELECT id, employee_id, amount, payment_date, linked_transaction_id, notes, recorded_by, created_at
		FROM salary_payments
		WHERE employee_id = ?
		ORDER BY payment_date DESC, created_at DESC
	`

	return queryPayments(ctx, db, query, employeeID)
}

func linkPaymentMovement(ctx context.Context, db dbtx, paymentID, movementID string) error {
	// The one permitted write to an existing payment; only runs inside the
	// transaction that created the row.
	res, err := db.ExecContext(ctx,
		"UPDATE salary_payments SET linked_transaction_id = ? WHERE id = ? AND linked_transaction_id IS NULL",
		movementID, paymentID,
	)
	if err != nil {
		return &payroll.StorageError{Op: "link payment movement", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &payroll.StorageError{Op: "link payment movement", Err: err}
	}
	if n != 1 {
		return &payroll.StorageError{Op: "link payment movement",
			Err: fmt.Errorf("payment %s missing or already linked", paymentID)}
	}
	return nil
}

func queryPayments(ctx context.Context, db dbtx, query string, args ...any) ([]payroll.SalaryPayment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &payroll.StorageError{Op: "query payments", Err: err}
	}
	defer rows.Close()

	var payments []payroll.SalaryPayment
	for rows.Next() {
		var (
			p           payroll.SalaryPayment
			amount      string
			paymentDate string
			linkedTxID  sql.NullString
			notes       sql.NullString
			createdAt   string
		)
		err := rows.Scan(&p.ID, &p.EmployeeID, &amount, &paymentDate, &linkedTxID, &notes, &p.RecordedBy, &createdAt)
		if err != nil {
			return nil, &payroll.StorageError{Op: "scan payment", Err: err}
		}

		p.Amount = mustDecimal(amount)
		p.PaymentDate, _ = time.Parse(dayFormat, paymentDate)
		p.LinkedTransactionID = linkedTxID.String
		p.Notes = notes.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// =============================================================================
// TRANSACTION JOURNAL ADAPTER
// =============================================================================

func (s *Store) CreateExpense(ctx context.Context, entry payroll.ExpenseEntry) (*payroll.CashMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return createExpense(ctx, s.db, entry)
}

// ListMovements returns cash movements for a branch, newest first.
func (s *Store) ListMovements(ctx context.Context, branchID string) ([]payroll.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, amount, category, date, employee_id, notes, branch_id, method, created_at
		FROM cash_movements
		WHERE branch_id = ?
		ORDER BY date DESC, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, branchID)
	if err != nil {
		return nil, &payroll.StorageError{Op: "query movements", Err: err}
	}
	defer rows.Close()

	var movements []payroll.CashMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// GetMovement returns one cash movement by id, or nil if absent.
func (s *Store) GetMovement(ctx context.Context, id string) (*payroll.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, amount, category, date, employee_id, notes, branch_id, method, created_at
		FROM cash_movements WHERE id = ?
	`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, &payroll.StorageError{Op: "get movement", Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	m, err := scanMovement(rows)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMovement(rows *sql.Rows) (payroll.CashMovement, error) {
	var (
		m          payroll.CashMovement
		amount     string
		date       string
		employeeID sql.NullString
		notes      sql.NullString
		createdAt  string
	)
	err := rows.Scan(&m.ID, &amount, (*string)(&m.Category), &date,
		&employeeID, &notes, &m.BranchID, (*string)(&m.Method), &createdAt)
	if err != nil {
		return m, &payroll.StorageError{Op: "scan movement", Err: err}
	}
	m.Amount = mustDecimal(amount)
	m.Date, _ = time.Parse(dayFormat, date)
	m.EmployeeID = employeeID.String
	m.Notes = notes.String
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return m, nil
}

func createExpense(ctx context.Context, db dbtx, entry payroll.ExpenseEntry) (*payroll.CashMovement, error) {
	movement := payroll.CashMovement{
		ID:         uuid.NewString(),
		Amount:     entry.Amount,
		Category:   entry.Category,
		Date:       entry.Date,
		EmployeeID: entry.EmployeeID,
		Notes:      entry.Notes,
		BranchID:   entry.BranchID,
		Method:     entry.Method,
		CreatedAt:  time.Now().UTC(),
	}

	query := `
		INSERT INTO cash_movements
		(id, amount, category, date, employee_id, notes, branch_id, method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		movement.ID, movement.Amount.String(), string(movement.Category),
		movement.Date.Format(dayFormat),
		nullString(movement.EmployeeID),
		movement.Notes, movement.BranchID, string(movement.Method),
		movement.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, &payroll.StorageError{Op: "create expense", Err: err}
	}
	return &movement, nil
}

// =============================================================================
// AUDIT LOG ADAPTER
// =============================================================================

func (s *Store) LogCreate(ctx context.Context, actorID, entityType, entityID string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return logCreate(ctx, s.db, actorID, entityType, entityID, payload)
}

// ListAuditEntries returns audit entries for an entity type, newest first.
func (s *Store) ListAuditEntries(ctx context.Context, entityType string, limit int) ([]payroll.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, actor_id, entity_type, entity_id, payload_json, created_at
		FROM audit_log
		WHERE entity_type = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, entityType, limit)
	if err != nil {
		return nil, &payroll.StorageError{Op: "query audit log", Err: err}
	}
	defer rows.Close()

	var entries []payroll.AuditEntry
	for rows.Next() {
		var e payroll.AuditEntry
		var payloadJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ActorID, &e.EntityType, &e.EntityID, &payloadJSON, &createdAt); err != nil {
			return nil, &payroll.StorageError{Op: "scan audit entry", Err: err}
		}
		if payloadJSON.Valid && payloadJSON.String != "" {
			json.Unmarshal([]byte(payloadJSON.String), &e.Payload)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func logCreate(ctx context.Context, db dbtx, actorID, entityType, entityID string, payload map[string]any) error {
	payloadJSON, _ := json.Marshal(payload)

	query := `
		INSERT INTO audit_log (id, actor_id, entity_type, entity_id, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		uuid.NewString(), actorID, entityType, entityID,
		string(payloadJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &payroll.StorageError{Op: "append audit entry", Err: err}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
