/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  model from the external contract. Request types carry validator tags;
  structural validation happens before any domain call.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateEmployeeRequest seeds a directory row.
type CreateEmployeeRequest struct {
	ID         string `json:"id" validate:"required"`
	BranchID   string `json:"branch_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	BaseSalary string `json:"base_salary" validate:"required"`
	Allowance  string `json:"allowance"`
}

// RecordAdjustmentRequest creates one adjustment.
type RecordAdjustmentRequest struct {
	Type          string `json:"type" validate:"required,oneof=ADVANCE BONUS DEDUCTION"`
	Amount        string `json:"amount" validate:"required"`
	EffectiveDate string `json:"effective_date" validate:"required,datetime=2006-01-02"`
	Description   string `json:"description"`
}

// PaySalaryRequest settles one pay period.
type PaySalaryRequest struct {
	Month       string `json:"month" validate:"required,datetime=2006-01"`
	PaymentDate string `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Notes       string `json:"notes"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type EmployeeDTO struct {
	ID         string `json:"id"`
	BranchID   string `json:"branch_id"`
	Name       string `json:"name"`
	BaseSalary string `json:"base_salary"`
	Allowance  string `json:"allowance"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at,omitempty"`
}

type AdjustmentDTO struct {
	ID                  string `json:"id"`
	EmployeeID          string `json:"employee_id"`
	Type                string `json:"type"`
	Amount              string `json:"amount"`
	EffectiveDate       string `json:"effective_date"`
	Description         string `json:"description,omitempty"`
	Status              string `json:"status"`
	LinkedTransactionID string `json:"linked_transaction_id,omitempty"`
	SalaryPaymentID     string `json:"salary_payment_id,omitempty"`
	CreatedBy           string `json:"created_by"`
	CreatedAt           string `json:"created_at"`
}

type SalaryPaymentDTO struct {
	ID                  string `json:"id"`
	EmployeeID          string `json:"employee_id"`
	Amount              string `json:"amount"`
	PaymentDate         string `json:"payment_date"`
	LinkedTransactionID string `json:"linked_transaction_id,omitempty"`
	Notes               string `json:"notes,omitempty"`
	RecordedBy          string `json:"recorded_by"`
}

type CashMovementDTO struct {
	ID         string `json:"id"`
	Amount     string `json:"amount"`
	Category   string `json:"category"`
	Date       string `json:"date"`
	EmployeeID string `json:"employee_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
	BranchID   string `json:"branch_id"`
	Method     string `json:"method"`
}

type SummaryDTO struct {
	EmployeeID      string `json:"employee_id"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	GrossSalary     string `json:"gross_salary"`
	TotalBonuses    string `json:"total_bonuses"`
	TotalDeductions string `json:"total_deductions"`
	TotalAdvances   string `json:"total_advances"`
	NetSalary       string `json:"net_salary"`
}

// SalaryDetailsDTO wraps the computed snapshot with the raw adjustment
// list of the period for display.
type SalaryDetailsDTO struct {
	Summary     SummaryDTO      `json:"summary"`
	Adjustments []AdjustmentDTO `json:"adjustments"`
}

type SettlementResultDTO struct {
	Payment              SalaryPaymentDTO `json:"payment"`
	Movement             CashMovementDTO  `json:"movement"`
	AdjustmentsProcessed int              `json:"adjustments_processed"`
	Summary              SummaryDTO       `json:"summary"`
}

type AuditEntryDTO struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         e.ID,
		BranchID:   e.BranchID,
		Name:       e.Name,
		BaseSalary: e.BaseSalary.String(),
		Allowance:  e.Allowance.String(),
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
}

func toAdjustmentDTO(a payroll.Adjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:                  a.ID,
		EmployeeID:          a.EmployeeID,
		Type:                string(a.Type),
		Amount:              a.Amount.String(),
		EffectiveDate:       a.EffectiveDate.Format("2006-01-02"),
		Description:         a.Description,
		Status:              string(a.Status),
		LinkedTransactionID: a.LinkedTransactionID,
		SalaryPaymentID:     a.SalaryPaymentID,
		CreatedBy:           a.CreatedBy,
		CreatedAt:           a.CreatedAt.Format(time.RFC3339),
	}
}

func toAdjustmentDTOs(adjustments []payroll.Adjustment) []AdjustmentDTO {
	dtos := make([]AdjustmentDTO, len(adjustments))
	for i, a := range adjustments {
		dtos[i] = toAdjustmentDTO(a)
	}
	return dtos
}

func toPaymentDTO(p payroll.SalaryPayment) SalaryPaymentDTO {
	return SalaryPaymentDTO{
		ID:                  p.ID,
		EmployeeID:          p.EmployeeID,
		Amount:              p.Amount.String(),
		PaymentDate:         p.PaymentDate.Format("2006-01-02"),
		LinkedTransactionID: p.LinkedTransactionID,
		Notes:               p.Notes,
		RecordedBy:          p.RecordedBy,
	}
}

func toMovementDTO(m payroll.CashMovement) CashMovementDTO {
	return CashMovementDTO{
		ID:         m.ID,
		Amount:     m.Amount.String(),
		Category:   string(m.Category),
		Date:       m.Date.Format("2006-01-02"),
		EmployeeID: m.EmployeeID,
		Notes:      m.Notes,
		BranchID:   m.BranchID,
		Method:     string(m.Method),
	}
}

func toSummaryDTO(s payroll.Summary) SummaryDTO {
	return SummaryDTO{
		EmployeeID:      s.EmployeeID,
		PeriodStart:     s.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       s.PeriodEnd.Format("2006-01-02"),
		GrossSalary:     s.GrossSalary.String(),
		TotalBonuses:    s.TotalBonuses.String(),
		TotalDeductions: s.TotalDeductions.String(),
		TotalAdvances:   s.TotalAdvances.String(),
		NetSalary:       s.NetSalary.String(),
	}
}
