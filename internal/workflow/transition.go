package workflow

import (
	"time"

	roledomain "expenditure-workflow/internal/role/domain"
)

// Actor is the identity a transition is attempted by, with the role
// assignments the identity source resolved for it. Invalid assignments
// (scope-bound role without a scope) are ignored by the guard.
type Actor struct {
	ID     string
	Grants []roledomain.Assignment
}

// edge is one permitted transition.
type edge struct {
	From Status
	To   Status
}

// edgeOwners is the fixed adjacency table per document kind. Presence of an
// edge makes the transition reachable; the value is the single role that owns
// it. A needs_revision edge is owned by the reviewing role at that stage.
var edgeOwners = map[DocumentKind]map[edge]roledomain.Role{
	KindExpenditureRequest: {
		{StatusDraft, StatusSubmitted}:            roledomain.RoleOperator,
		{StatusSubmitted, StatusStage1Review}:     roledomain.RoleVerifier,
		{StatusStage1Review, StatusStage2Review}:  roledomain.RoleVerifier,
		{StatusStage2Review, StatusStage3Review}:  roledomain.RoleBudgetAnalyst,
		{StatusStage3Review, StatusStage4Review}:  roledomain.RoleTreasuryClerk,
		{StatusStage4Review, StatusFinalReview}:   roledomain.RoleTreasurer,
		{StatusFinalReview, StatusApproved}:       roledomain.RoleAuthorizer,
		{StatusFinalReview, StatusRejected}:       roledomain.RoleAuthorizer,
		{StatusStage1Review, StatusNeedsRevision}: roledomain.RoleVerifier,
		{StatusStage2Review, StatusNeedsRevision}: roledomain.RoleBudgetAnalyst,
		{StatusStage3Review, StatusNeedsRevision}: roledomain.RoleTreasuryClerk,
		{StatusStage4Review, StatusNeedsRevision}: roledomain.RoleTreasurer,
		{StatusFinalReview, StatusNeedsRevision}:  roledomain.RoleAuthorizer,
		{StatusNeedsRevision, StatusSubmitted}:    roledomain.RoleOperator,
	},
	KindPaymentOrder: {
		{StatusPending, StatusProcessing}: roledomain.RoleTreasuryClerk,
		{StatusProcessing, StatusIssued}:  roledomain.RoleAuthorizer,
		{StatusIssued, StatusSettled}:     roledomain.RoleTreasuryClerk,
		{StatusPending, StatusFailed}:     roledomain.RoleTreasuryClerk,
		{StatusProcessing, StatusFailed}:  roledomain.RoleTreasuryClerk,
		{StatusIssued, StatusFailed}:      roledomain.RoleTreasuryClerk,
	},
}

// TransitionOwner returns the role owning the edge, and whether the edge
// exists in the adjacency table. Used by the notification routing table tests
// to keep routes and ownership in sync.
func TransitionOwner(kind DocumentKind, from, to Status) (roledomain.Role, bool) {
	owner, ok := edgeOwners[kind][edge{From: from, To: to}]
	return owner, ok
}

// Result is a successful transition: the status to write and the stage fields
// that must be stamped atomically with it.
type Result struct {
	NewStatus Status
	Stamp     Stamp
}

// Apply validates the requested transition against the document snapshot and
// the actor's role grants. Guard checks run in a fixed order and the first
// failure determines the rejection:
//
//  1. the target must be a permitted successor of the current status,
//  2. the actor must hold the role that owns the edge,
//  3. a scope-bound role must be scoped to the document's unit,
//  4. issued -> settled additionally requires the verification marker.
//
// On success the returned Result stamps now and note onto the stage being
// exited. Apply never mutates doc and performs no writes.
func Apply(doc Document, target Status, actor Actor, note string, now time.Time) (Result, error) {
	owner, ok := edgeOwners[doc.Kind][edge{From: doc.Status, To: target}]
	if !ok {
		return Result{}, &Rejection{Kind: RejectNotPermittedFromState, Doc: doc.Kind, From: doc.Status, To: target}
	}

	held := false
	scoped := false
	for _, g := range actor.Grants {
		if g.Role != owner || !g.Valid() {
			continue
		}
		held = true
		if !roledomain.ScopeBound(owner) || g.Scope == doc.UnitID {
			scoped = true
			break
		}
	}
	if !held {
		return Result{}, &Rejection{Kind: RejectRoleMismatch, Doc: doc.Kind, From: doc.Status, To: target, Role: owner}
	}
	if !scoped {
		return Result{}, &Rejection{Kind: RejectScopeMismatch, Doc: doc.Kind, From: doc.Status, To: target, Role: owner}
	}

	if doc.Kind == KindPaymentOrder && doc.Status == StatusIssued && target == StatusSettled && !doc.Verified {
		return Result{}, &Rejection{Kind: RejectVerificationRequired, Doc: doc.Kind, From: doc.Status, To: target}
	}

	return Result{
		NewStatus: target,
		Stamp:     Stamp{Stage: doc.Status, At: now, Note: note},
	}, nil
}
