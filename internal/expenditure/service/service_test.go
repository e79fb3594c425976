package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"expenditure-workflow/internal/audit"
	auditrepo "expenditure-workflow/internal/audit/repository"
	"expenditure-workflow/internal/expenditure/domain"
	exprepo "expenditure-workflow/internal/expenditure/repository"
	notifydomain "expenditure-workflow/internal/notify/domain"
	roledomain "expenditure-workflow/internal/role/domain"
	"expenditure-workflow/internal/workflow"
)

type stubDirectory struct {
	grants map[string][]roledomain.Assignment
	err    error
}

func (d *stubDirectory) GrantsFor(ctx context.Context, actorID string) ([]roledomain.Assignment, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.grants[actorID], nil
}

type stubRouter struct {
	calls []workflow.Status
	err   error
}

func (r *stubRouter) Route(ctx context.Context, kind workflow.DocumentKind, action string, resulting workflow.Status, doc workflow.Document) ([]*notifydomain.Record, error) {
	r.calls = append(r.calls, resulting)
	return nil, r.err
}

func grant(role roledomain.Role, scope string) roledomain.Assignment {
	return roledomain.Assignment{ID: "g-" + string(role), ActorID: "x", Role: role, Scope: scope, CreatedAt: time.Now()}
}

func newFixture() (*Service, *exprepo.MemoryRepository, *auditrepo.MemoryRepository, *stubRouter) {
	repo := exprepo.NewMemoryRepository()
	auditRepo := auditrepo.NewMemoryRepository()
	recorder := audit.NewRecorder(auditRepo)
	router := &stubRouter{}
	dir := &stubDirectory{grants: map[string][]roledomain.Assignment{
		"opal":   {grant(roledomain.RoleOperator, "unit-1")},
		"vera":   {grant(roledomain.RoleVerifier, "unit-1")},
		"basir":  {grant(roledomain.RoleBudgetAnalyst, "")},
		"tirta":  {grant(roledomain.RoleTreasuryClerk, "")},
		"bendra": {grant(roledomain.RoleTreasurer, "")},
		"kuasa":  {grant(roledomain.RoleAuthorizer, "")},
	}}
	svc := NewService(repo, dir, recorder, router)
	return svc, repo, auditRepo, router
}

func seedRequest(t *testing.T, repo *exprepo.MemoryRepository, status workflow.Status) *domain.Request {
	t.Helper()
	req := &domain.Request{
		ID:          "req-1",
		UnitID:      "unit-1",
		Amount:      5_000_000,
		Category:    domain.CategoryDirect,
		Status:      status,
		SubmitterID: "opal",
		Stages:      make(map[workflow.Status]workflow.StageRecord),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func TestCreate_DraftWithAudit(t *testing.T) {
	svc, repo, auditRepo, _ := newFixture()

	req, err := svc.Create(context.Background(), "unit-1", 10_000_000, domain.CategoryAdvance, "opal")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Status != workflow.StatusDraft {
		t.Fatalf("status = %q, want draft", req.Status)
	}

	stored, err := repo.GetByID(context.Background(), req.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v, %v", stored, err)
	}
	records := auditRepo.All()
	if len(records) != 1 || records[0].Action != "create" {
		t.Fatalf("audit records = %+v, want one create", records)
	}
}

func TestCreate_RejectsNonOperator(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.Create(context.Background(), "unit-1", 100, domain.CategoryAdvance, "vera")
	rej := workflow.AsRejection(err)
	if rej == nil || rej.Kind != workflow.RejectRoleMismatch {
		t.Fatalf("err = %v, want RoleMismatch rejection", err)
	}
}

func TestCreate_RejectsOperatorFromOtherUnit(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.Create(context.Background(), "unit-9", 100, domain.CategoryAdvance, "opal")
	if workflow.AsRejection(err) == nil {
		t.Fatalf("err = %v, want rejection", err)
	}
}

func TestApply_AdvancesAndNotifies(t *testing.T) {
	svc, repo, auditRepo, router := newFixture()
	seedRequest(t, repo, workflow.StatusDraft)

	req, err := svc.Apply(context.Background(), "req-1", workflow.StatusSubmitted, "opal", "intake complete")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if req.Status != workflow.StatusSubmitted {
		t.Fatalf("status = %q, want submitted", req.Status)
	}
	if _, ok := req.Stages[workflow.StatusDraft]; !ok {
		t.Fatalf("missing stage record for draft, got %+v", req.Stages)
	}

	stored, _ := repo.GetByID(context.Background(), "req-1")
	if stored.Status != workflow.StatusSubmitted {
		t.Fatalf("persisted status = %q, want submitted", stored.Status)
	}

	records := auditRepo.All()
	if len(records) != 1 || records[0].Action != "update" {
		t.Fatalf("audit records = %+v, want one update", records)
	}
	var before statusSnapshot
	if err := json.Unmarshal(records[0].Before, &before); err != nil {
		t.Fatalf("unmarshal before: %v", err)
	}
	if before.Status != workflow.StatusDraft {
		t.Fatalf("audit before status = %q, want draft", before.Status)
	}

	if len(router.calls) != 1 || router.calls[0] != workflow.StatusSubmitted {
		t.Fatalf("router calls = %v, want [submitted]", router.calls)
	}
}

// A revision request from final review keeps every earlier stage stamp, and
// the resubmitted request walks the pipeline from the first review stage.
func TestApply_RevisionRetainsStageHistory(t *testing.T) {
	svc, repo, _, _ := newFixture()
	seedRequest(t, repo, workflow.StatusDraft)

	steps := []struct {
		target workflow.Status
		actor  string
	}{
		{workflow.StatusSubmitted, "opal"},
		{workflow.StatusStage1Review, "vera"},
		{workflow.StatusStage2Review, "vera"},
		{workflow.StatusStage3Review, "basir"},
		{workflow.StatusStage4Review, "tirta"},
		{workflow.StatusFinalReview, "bendra"},
	}
	for _, s := range steps {
		if _, err := svc.Apply(context.Background(), "req-1", s.target, s.actor, ""); err != nil {
			t.Fatalf("advance to %s: %v", s.target, err)
		}
	}

	req, err := svc.Apply(context.Background(), "req-1", workflow.StatusNeedsRevision, "kuasa", "supporting docs missing")
	if err != nil {
		t.Fatalf("request revision: %v", err)
	}
	if req.Status != workflow.StatusNeedsRevision {
		t.Fatalf("status = %q, want needs_revision", req.Status)
	}
	for _, stage := range []workflow.Status{
		workflow.StatusSubmitted, workflow.StatusStage1Review, workflow.StatusStage2Review,
		workflow.StatusStage3Review, workflow.StatusStage4Review, workflow.StatusFinalReview,
	} {
		if _, ok := req.Stages[stage]; !ok {
			t.Fatalf("stage record for %s lost after revision", stage)
		}
	}
	if req.Stages[workflow.StatusFinalReview].Note != "supporting docs missing" {
		t.Fatalf("final review note = %q", req.Stages[workflow.StatusFinalReview].Note)
	}

	req, err = svc.Apply(context.Background(), "req-1", workflow.StatusSubmitted, "opal", "docs attached")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if req.Status != workflow.StatusSubmitted {
		t.Fatalf("status = %q, want submitted", req.Status)
	}
	if _, err := svc.Apply(context.Background(), "req-1", workflow.StatusStage1Review, "vera", ""); err != nil {
		t.Fatalf("re-enter stage1: %v", err)
	}
}

func TestApply_StaleStatusReturnsConcurrentModification(t *testing.T) {
	svc, repo, auditRepo, router := newFixture()
	seedRequest(t, repo, workflow.StatusSubmitted)

	repo.UpdateStatusErr = exprepo.ErrStatusConflict
	_, err := svc.Apply(context.Background(), "req-1", workflow.StatusStage1Review, "vera", "")
	rej := workflow.AsRejection(err)
	if rej == nil || rej.Kind != workflow.RejectConcurrentModification {
		t.Fatalf("err = %v, want ConcurrentModification rejection", err)
	}
	if len(auditRepo.All()) != 0 {
		t.Fatalf("lost race must not write audit records, got %d", len(auditRepo.All()))
	}
	if len(router.calls) != 0 {
		t.Fatalf("lost race must not notify, got %v", router.calls)
	}

	stored, _ := repo.GetByID(context.Background(), "req-1")
	if stored.Status != workflow.StatusSubmitted {
		t.Fatalf("status = %q, want submitted unchanged", stored.Status)
	}
}

func TestApply_RejectionLeavesStateUntouched(t *testing.T) {
	svc, repo, auditRepo, router := newFixture()
	seedRequest(t, repo, workflow.StatusSubmitted)

	_, err := svc.Apply(context.Background(), "req-1", workflow.StatusApproved, "kuasa", "")
	rej := workflow.AsRejection(err)
	if rej == nil || rej.Kind != workflow.RejectNotPermittedFromState {
		t.Fatalf("err = %v, want NotPermittedFromState rejection", err)
	}
	if len(auditRepo.All()) != 0 || len(router.calls) != 0 {
		t.Fatalf("rejected transition must have no side effects")
	}

	stored, _ := repo.GetByID(context.Background(), "req-1")
	if stored.Status != workflow.StatusSubmitted {
		t.Fatalf("status = %q, want submitted unchanged", stored.Status)
	}
}

func TestApply_NotFound(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.Apply(context.Background(), "nope", workflow.StatusSubmitted, "opal", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApply_NotifyFailureDoesNotFailTransition(t *testing.T) {
	svc, repo, _, router := newFixture()
	router.err = errors.New("gateway down")
	seedRequest(t, repo, workflow.StatusDraft)

	req, err := svc.Apply(context.Background(), "req-1", workflow.StatusSubmitted, "opal", "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if req.Status != workflow.StatusSubmitted {
		t.Fatalf("status = %q, want submitted", req.Status)
	}
}
