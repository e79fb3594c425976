package workflow

import (
	"errors"
	"fmt"

	roledomain "expenditure-workflow/internal/role/domain"
)

// RejectionKind classifies why a transition was refused. Callers branch on the
// kind; mapping to user-facing text happens at the presentation boundary.
type RejectionKind string

const (
	RejectNotPermittedFromState  RejectionKind = "not_permitted_from_state"
	RejectRoleMismatch           RejectionKind = "role_mismatch"
	RejectScopeMismatch          RejectionKind = "scope_mismatch"
	RejectVerificationRequired   RejectionKind = "verification_required"
	RejectConcurrentModification RejectionKind = "concurrent_modification"
)

// Rejection is a typed refusal of a requested transition. The engine performs
// no partial writes on rejection.
type Rejection struct {
	Kind RejectionKind
	Doc  DocumentKind
	From Status
	To   Status
	// Role is the role that owns the transition, when the rejection is about
	// role or scope.
	Role roledomain.Role
}

func (r *Rejection) Error() string {
	switch r.Kind {
	case RejectNotPermittedFromState:
		return fmt.Sprintf("workflow: %s cannot move from %s to %s", r.Doc, r.From, r.To)
	case RejectRoleMismatch:
		return fmt.Sprintf("workflow: transition %s -> %s requires role %s", r.From, r.To, r.Role)
	case RejectScopeMismatch:
		return fmt.Sprintf("workflow: role %s is not scoped to the document's unit", r.Role)
	case RejectVerificationRequired:
		return fmt.Sprintf("workflow: %s -> %s requires a completed verification challenge", r.From, r.To)
	case RejectConcurrentModification:
		return fmt.Sprintf("workflow: %s status changed since it was read", r.Doc)
	default:
		return fmt.Sprintf("workflow: transition %s -> %s rejected (%s)", r.From, r.To, r.Kind)
	}
}

// AsRejection returns the Rejection inside err, or nil when err is not a
// guard rejection.
func AsRejection(err error) *Rejection {
	var r *Rejection
	if errors.As(err, &r) {
		return r
	}
	return nil
}
