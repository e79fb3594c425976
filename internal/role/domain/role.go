package domain

import "time"

// Role identifies a pipeline role. Each review stage's advance transition is
// owned by exactly one role; see internal/workflow for the ownership table.
type Role string

const (
	// RoleOperator prepares and submits expenditure requests for one unit (OPD).
	RoleOperator Role = "operator"
	// RoleVerifier performs first-stage document verification for one unit.
	RoleVerifier Role = "verifier"
	// RoleBudgetAnalyst checks budget availability (second stage).
	RoleBudgetAnalyst Role = "budget_analyst"
	// RoleTreasuryClerk handles treasury registration and payment order processing.
	RoleTreasuryClerk Role = "treasury_clerk"
	// RoleTreasurer performs the cash-position check (fourth stage).
	RoleTreasurer Role = "treasurer"
	// RoleAuthorizer signs off final approval and payment order issuance.
	RoleAuthorizer Role = "authorizer"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleOperator, RoleVerifier, RoleBudgetAnalyst, RoleTreasuryClerk, RoleTreasurer, RoleAuthorizer:
		return Role(value), true
	default:
		return "", false
	}
}

// ScopeBound reports whether the role is bound to an organizational unit.
// Assignments of a scope-bound role are only valid for authorization when
// their Scope is set.
func ScopeBound(r Role) bool {
	switch r {
	case RoleOperator, RoleVerifier:
		return true
	default:
		return false
	}
}

// Assignment links an actor to a role, optionally scoped to a unit (OPD).
type Assignment struct {
	ID        string
	ActorID   string
	Role      Role
	Scope     string // unit ID; required for scope-bound roles
	CreatedAt time.Time
}

// Valid reports whether the assignment may be used for authorization checks.
// A scope-bound role with an empty scope is stored but never authorizes anything.
func (a Assignment) Valid() bool {
	if _, ok := NormalizeRole(string(a.Role)); !ok {
		return false
	}
	if ScopeBound(a.Role) && a.Scope == "" {
		return false
	}
	return true
}

// DiffKey is the normalized key used when diffing assignment sets: role plus
// scope, independent of assignment ID and creation time.
func (a Assignment) DiffKey() string {
	return string(a.Role) + "|" + a.Scope
}
