package payroll

import (
	"context"
	"time"
)

// =============================================================================
// AUDIT RECORDER - Append-only operation log (collaborator)
// =============================================================================

// AuditEntry documents one state-changing operation.
type AuditEntry struct {
	ID         string
	ActorID    string
	EntityType string
	EntityID   string
	Payload    map[string]any
	CreatedAt  time.Time
}

// AuditRecorder appends audit entries. Entries are never updated or deleted.
//
// A failed audit write fails the operation it documents: LogCreate is called
// inside the same WithTx closure as the write, so the whole unit rolls back.
// This is a strict-consistency choice, not log-and-forget.
type AuditRecorder interface {
	LogCreate(ctx context.Context, actorID, entityType, entityID string, payload map[string]any) error
}

// Entity type tags used in audit entries.
const (
	EntityAdjustment    = "adjustment"
	EntitySalaryPayment = "salary_payment"
)
