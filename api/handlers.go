/*
handlers.go - HTTP handlers for the payroll settlement API

PURPOSE:
  Exposes the settlement engine over REST. Handlers parse and validate
  input, resolve the acting user, delegate to the domain components, and
  map typed domain errors to HTTP status codes.

ENDPOINTS:
  Employees:
    GET    /api/employees                      List directory rows
    POST   /api/employees                      Seed a directory row
    GET    /api/employees/{id}                 Get one employee

  Settlement engine:
    POST   /api/employees/{id}/adjustments     Record an adjustment
    GET    /api/employees/{id}/adjustments     List adjustments for a month
    GET    /api/employees/{id}/salary          Salary details for a month
    POST   /api/employees/{id}/settlements     Settle a pay period
    GET    /api/employees/{id}/payments        Payment history

  Ledgers:
    GET    /api/movements                      Cash movements per branch
    GET    /api/audit                          Audit trail per entity type

ACTOR RESOLUTION:
  Authentication itself is handled upstream; handlers trust the identity
  headers the auth layer injects:
    X-Actor-Id, X-Actor-Role, X-Actor-Branch
  Branch-access enforcement still happens in the domain layer.

ERROR MAPPING:
  400 validation, 403 forbidden, 404 not found, 409 conflict,
  422 invalid settlement state, 500 storage/internal.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Ledger      *payroll.Ledger
	Calculator  *payroll.Calculator
	Coordinator *payroll.Coordinator

	logger   *zap.Logger
	validate *validator.Validate
}

// NewHandler wires the settlement components around one store.
func NewHandler(store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:       store,
		Ledger:      payroll.NewLedger(store),
		Calculator:  payroll.NewCalculator(store),
		Coordinator: payroll.NewCoordinator(store),
		logger:      logger,
		validate:    validator.New(),
	}
}

// actorFrom builds the acting user from identity headers injected by the
// upstream auth layer.
func actorFrom(r *http.Request) payroll.Actor {
	role := payroll.Role(r.Header.Get("X-Actor-Role"))
	if role == "" {
		role = payroll.RoleAccountant
	}
	return payroll.Actor{
		ID:       r.Header.Get("X-Actor-Id"),
		Role:     role,
		BranchID: r.Header.Get("X-Actor-Branch"),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all directory rows.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee seeds a directory row.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	baseSalary, err := decimal.NewFromString(req.BaseSalary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_salary", err)
		return
	}
	allowance := decimal.Zero
	if req.Allowance != "" {
		allowance, err = decimal.NewFromString(req.Allowance)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid allowance", err)
			return
		}
	}

	emp := payroll.Employee{
		ID:         req.ID,
		BranchID:   req.BranchID,
		Name:       req.Name,
		BaseSalary: baseSalary,
		Allowance:  allowance,
		Status:     payroll.EmployeeActive,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// ADJUSTMENT HANDLERS
// =============================================================================

// RecordAdjustment creates an adjustment for an employee.
// POST /api/employees/{id}/adjustments
func (h *Handler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req RecordAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	effectiveDate, _ := time.Parse("2006-01-02", req.EffectiveDate)

	adj, err := h.Ledger.RecordAdjustment(r.Context(), payroll.RecordAdjustmentInput{
		EmployeeID:    employeeID,
		Type:          payroll.AdjustmentType(req.Type),
		Amount:        amount,
		EffectiveDate: effectiveDate,
		Description:   req.Description,
	}, actorFrom(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("adjustment recorded",
		zap.String("adjustment_id", adj.ID),
		zap.String("employee_id", employeeID),
		zap.String("type", string(adj.Type)),
		zap.String("amount", adj.Amount.String()),
	)
	writeJSON(w, http.StatusCreated, toAdjustmentDTO(*adj))
}

// ListAdjustments returns the adjustments of an employee for a month.
// GET /api/employees/{id}/adjustments?month=2025-03
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	month, err := payroll.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	adjustments, err := h.Store.ListAdjustments(r.Context(), chi.URLParam(r, "id"), month.Span())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdjustmentDTOs(adjustments))
}

// =============================================================================
// SALARY HANDLERS
// =============================================================================

// GetSalaryDetails returns the computed snapshot plus the raw adjustment
// list for display.
// GET /api/employees/{id}/salary?month=2025-03
func (h *Handler) GetSalaryDetails(w http.ResponseWriter, r *http.Request) {
	month, err := payroll.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	details, err := h.Calculator.GetSalaryDetails(r.Context(), chi.URLParam(r, "id"), month, actorFrom(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SalaryDetailsDTO{
		Summary:     toSummaryDTO(details.Snapshot.Summary()),
		Adjustments: toAdjustmentDTOs(details.Adjustments),
	})
}

// PaySalary settles a pay period.
// POST /api/employees/{id}/settlements
func (h *Handler) PaySalary(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req PaySalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	month, err := payroll.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}
	var paymentDate time.Time
	if req.PaymentDate != "" {
		paymentDate, _ = time.Parse("2006-01-02", req.PaymentDate)
	}

	result, err := h.Coordinator.PaySalary(r.Context(), payroll.PaySalaryInput{
		EmployeeID:  employeeID,
		Month:       month,
		PaymentDate: paymentDate,
		Notes:       req.Notes,
	}, actorFrom(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("pay period settled",
		zap.String("payment_id", result.Payment.ID),
		zap.String("employee_id", employeeID),
		zap.String("month", month.String()),
		zap.String("net_salary", result.Payment.Amount.String()),
		zap.Int("adjustments_processed", result.AdjustmentsProcessed),
	)
	writeJSON(w, http.StatusCreated, SettlementResultDTO{
		Payment:              toPaymentDTO(result.Payment),
		Movement:             toMovementDTO(result.Movement),
		AdjustmentsProcessed: result.AdjustmentsProcessed,
		Summary:              toSummaryDTO(result.Summary),
	})
}

// ListPayments returns the payment history of an employee.
// GET /api/employees/{id}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]SalaryPaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListMovements returns cash movements for a branch.
// GET /api/movements?branch=main
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	branchID := r.URL.Query().Get("branch")
	if branchID == "" {
		writeError(w, http.StatusBadRequest, "branch query parameter is required", nil)
		return
	}

	movements, err := h.Store.ListMovements(r.Context(), branchID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]CashMovementDTO, len(movements))
	for i, m := range movements {
		dtos[i] = toMovementDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListAuditEntries returns the audit trail for an entity type.
// GET /api/audit?entity_type=salary_payment&limit=50
func (h *Handler) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")
	if entityType == "" {
		writeError(w, http.StatusBadRequest, "entity_type query parameter is required", nil)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.Store.ListAuditEntries(r.Context(), entityType, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditEntryDTO{
			ID:         e.ID,
			ActorID:    e.ActorID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Payload:    e.Payload,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeDomainError maps typed domain errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Employee not found", err)
	case errors.Is(err, payroll.ErrForbidden):
		writeError(w, http.StatusForbidden, "Branch access denied", err)
	case errors.Is(err, payroll.ErrValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, payroll.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, "Settlement not possible", err)
	case errors.Is(err, payroll.ErrConflict):
		writeError(w, http.StatusConflict, "Settlement conflict, safe to retry", err)
	default:
		h.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
