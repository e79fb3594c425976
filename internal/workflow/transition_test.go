package workflow

import (
	"errors"
	"testing"
	"time"

	roledomain "expenditure-workflow/internal/role/domain"
)

var testNow = time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)

func grant(role roledomain.Role, scope string) roledomain.Assignment {
	return roledomain.Assignment{ID: "a-" + string(role), ActorID: "actor-1", Role: role, Scope: scope}
}

func spm(status Status) Document {
	return Document{Kind: KindExpenditureRequest, ID: "spm-1", UnitID: "opd-7", Status: status, SubmitterID: "op-1"}
}

func sp2d(status Status, verified bool) Document {
	return Document{Kind: KindPaymentOrder, ID: "sp2d-1", UnitID: "opd-7", Status: status, Verified: verified}
}

func TestApply_GuardOrder(t *testing.T) {
	tests := []struct {
		name   string
		doc    Document
		target Status
		actor  Actor
		note   string
		want   RejectionKind // empty means success
	}{
		{
			name:   "operator submits draft",
			doc:    spm(StatusDraft),
			target: StatusSubmitted,
			actor:  Actor{ID: "op-1", Grants: []roledomain.Assignment{grant(roledomain.RoleOperator, "opd-7")}},
		},
		{
			name:   "draft cannot jump to stage2",
			doc:    spm(StatusDraft),
			target: StatusStage2Review,
			actor:  Actor{ID: "op-1", Grants: []roledomain.Assignment{grant(roledomain.RoleOperator, "opd-7")}},
			want:   RejectNotPermittedFromState,
		},
		{
			name:   "approved is terminal",
			doc:    spm(StatusApproved),
			target: StatusSubmitted,
			actor:  Actor{ID: "op-1", Grants: []roledomain.Assignment{grant(roledomain.RoleOperator, "opd-7")}},
			want:   RejectNotPermittedFromState,
		},
		{
			name:   "stage1 role cannot advance stage2 document",
			doc:    spm(StatusStage2Review),
			target: StatusStage3Review,
			actor:  Actor{ID: "v-1", Grants: []roledomain.Assignment{grant(roledomain.RoleVerifier, "opd-7")}},
			want:   RejectRoleMismatch,
		},
		{
			name:   "verifier scoped to another unit",
			doc:    spm(StatusStage1Review),
			target: StatusStage2Review,
			actor:  Actor{ID: "v-2", Grants: []roledomain.Assignment{grant(roledomain.RoleVerifier, "opd-9")}},
			want:   RejectScopeMismatch,
		},
		{
			name:   "scope-bound grant without scope is ignored",
			doc:    spm(StatusStage1Review),
			target: StatusStage2Review,
			actor:  Actor{ID: "v-3", Grants: []roledomain.Assignment{grant(roledomain.RoleVerifier, "")}},
			want:   RejectRoleMismatch,
		},
		{
			name:   "budget analyst is not unit bound",
			doc:    spm(StatusStage2Review),
			target: StatusStage3Review,
			actor:  Actor{ID: "b-1", Grants: []roledomain.Assignment{grant(roledomain.RoleBudgetAnalyst, "")}},
		},
		{
			name:   "final review can send back for revision",
			doc:    spm(StatusFinalReview),
			target: StatusNeedsRevision,
			actor:  Actor{ID: "kb-1", Grants: []roledomain.Assignment{grant(roledomain.RoleAuthorizer, "")}},
			note:   "attachment mismatch",
		},
		{
			name:   "needs_revision resubmits to submitted only",
			doc:    spm(StatusNeedsRevision),
			target: StatusStage3Review,
			actor:  Actor{ID: "op-1", Grants: []roledomain.Assignment{grant(roledomain.RoleOperator, "opd-7")}},
			want:   RejectNotPermittedFromState,
		},
		{
			name:   "needs_revision back to submitted",
			doc:    spm(StatusNeedsRevision),
			target: StatusSubmitted,
			actor:  Actor{ID: "op-1", Grants: []roledomain.Assignment{grant(roledomain.RoleOperator, "opd-7")}},
		},
		{
			name:   "settlement without verification marker",
			doc:    sp2d(StatusIssued, false),
			target: StatusSettled,
			actor:  Actor{ID: "tc-1", Grants: []roledomain.Assignment{grant(roledomain.RoleTreasuryClerk, "")}},
			want:   RejectVerificationRequired,
		},
		{
			name:   "settlement with verification marker",
			doc:    sp2d(StatusIssued, true),
			target: StatusSettled,
			actor:  Actor{ID: "tc-1", Grants: []roledomain.Assignment{grant(roledomain.RoleTreasuryClerk, "")}},
		},
		{
			name:   "settled is terminal even for failure",
			doc:    sp2d(StatusSettled, true),
			target: StatusFailed,
			actor:  Actor{ID: "tc-1", Grants: []roledomain.Assignment{grant(roledomain.RoleTreasuryClerk, "")}},
			want:   RejectNotPermittedFromState,
		},
		{
			name:   "issued can still fail",
			doc:    sp2d(StatusIssued, false),
			target: StatusFailed,
			actor:  Actor{ID: "tc-1", Grants: []roledomain.Assignment{grant(roledomain.RoleTreasuryClerk, "")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Apply(tt.doc, tt.target, tt.actor, tt.note, testNow)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Apply: unexpected error %v", err)
				}
				if res.NewStatus != tt.target {
					t.Errorf("NewStatus = %s, want %s", res.NewStatus, tt.target)
				}
				if res.Stamp.Stage != tt.doc.Status {
					t.Errorf("Stamp.Stage = %s, want exited stage %s", res.Stamp.Stage, tt.doc.Status)
				}
				if !res.Stamp.At.Equal(testNow) {
					t.Errorf("Stamp.At = %v, want %v", res.Stamp.At, testNow)
				}
				if res.Stamp.Note != tt.note {
					t.Errorf("Stamp.Note = %q, want %q", res.Stamp.Note, tt.note)
				}
				return
			}
			if err == nil {
				t.Fatalf("Apply: want rejection %s, got success", tt.want)
			}
			rej := AsRejection(err)
			if rej == nil {
				t.Fatalf("Apply: error %v is not a Rejection", err)
			}
			if rej.Kind != tt.want {
				t.Errorf("Rejection.Kind = %s, want %s", rej.Kind, tt.want)
			}
		})
	}
}

func TestApply_GuardOrderRoleBeforeScope(t *testing.T) {
	// An actor with the wrong role and the wrong scope gets RoleMismatch:
	// adjacency and role are checked before scope.
	doc := spm(StatusStage1Review)
	actor := Actor{ID: "x", Grants: []roledomain.Assignment{grant(roledomain.RoleOperator, "opd-9")}}
	_, err := Apply(doc, StatusStage2Review, actor, "", testNow)
	rej := AsRejection(err)
	if rej == nil || rej.Kind != RejectRoleMismatch {
		t.Fatalf("got %v, want RoleMismatch", err)
	}
}

func TestApply_NoGrants(t *testing.T) {
	_, err := Apply(spm(StatusDraft), StatusSubmitted, Actor{ID: "nobody"}, "", testNow)
	rej := AsRejection(err)
	if rej == nil || rej.Kind != RejectRoleMismatch {
		t.Fatalf("got %v, want RoleMismatch", err)
	}
}

func TestAsRejection_PlainError(t *testing.T) {
	if rej := AsRejection(errors.New("boom")); rej != nil {
		t.Fatalf("AsRejection(plain) = %v, want nil", rej)
	}
}

func TestTransitionOwner_EveryReviewStageCanRequestRevision(t *testing.T) {
	stages := []Status{StatusStage1Review, StatusStage2Review, StatusStage3Review, StatusStage4Review, StatusFinalReview}
	for _, from := range stages {
		owner, ok := TransitionOwner(KindExpenditureRequest, from, StatusNeedsRevision)
		if !ok {
			t.Errorf("no needs_revision edge from %s", from)
			continue
		}
		advOwner, _ := TransitionOwner(KindExpenditureRequest, from, nextAdvance(from))
		if owner != advOwner {
			t.Errorf("needs_revision from %s owned by %s, want the stage's own reviewer %s", from, owner, advOwner)
		}
	}
}

func nextAdvance(from Status) Status {
	switch from {
	case StatusStage1Review:
		return StatusStage2Review
	case StatusStage2Review:
		return StatusStage3Review
	case StatusStage3Review:
		return StatusStage4Review
	case StatusStage4Review:
		return StatusFinalReview
	case StatusFinalReview:
		return StatusApproved
	}
	return ""
}
