package payroll

// =============================================================================
// BRANCH ACCESS - The one RBAC rule this subsystem models
// =============================================================================

// AccessPolicy decides whether an actor may operate on a branch.
// Enforcement mechanics (tokens, middleware) live outside this package.
type AccessPolicy interface {
	CanAccessBranch(actor Actor, branchID string) bool
}

// RoleAccess is the default policy: admins access any branch, restricted
// roles only their own assigned branch.
type RoleAccess struct{}

func (RoleAccess) CanAccessBranch(actor Actor, branchID string) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.BranchID == branchID
}
