package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"expenditure-workflow/internal/audit"
	auditdomain "expenditure-workflow/internal/audit/domain"
	"expenditure-workflow/internal/expenditure/domain"
	exprepo "expenditure-workflow/internal/expenditure/repository"
	notifydomain "expenditure-workflow/internal/notify/domain"
	roledomain "expenditure-workflow/internal/role/domain"
	"expenditure-workflow/internal/telemetry"
	"expenditure-workflow/internal/workflow"
)

// ResourceKind is the audit resource kind for expenditure requests.
const ResourceKind = "expenditure_request"

// ErrNotFound is returned when the request does not exist.
var ErrNotFound = errors.New("expenditure: request not found")

// Directory is the minimal role lookup needed by the service.
type Directory interface {
	GrantsFor(ctx context.Context, actorID string) ([]roledomain.Assignment, error)
}

// Router dispatches notifications for a committed transition.
type Router interface {
	Route(ctx context.Context, kind workflow.DocumentKind, action string, resulting workflow.Status, doc workflow.Document) ([]*notifydomain.Record, error)
}

// statusSnapshot is the audit before/after shape for status mutations.
type statusSnapshot struct {
	Status workflow.Status `json:"status"`
	Stage  workflow.Status `json:"stage,omitempty"`
	Note   string          `json:"note,omitempty"`
}

// Service drives expenditure requests through the review pipeline. All status
// mutation goes through the transition engine; the service never writes a
// status the engine did not produce.
type Service struct {
	repo      exprepo.Repository
	directory Directory
	recorder  *audit.Recorder
	router    Router
	nowF      func() time.Time
}

// NewService returns a Service for expenditure requests.
func NewService(repo exprepo.Repository, directory Directory, recorder *audit.Recorder, router Router) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		recorder:  recorder,
		router:    router,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock. Test helper.
func (s *Service) WithNow(nowF func() time.Time) *Service {
	s.nowF = nowF
	return s
}

// Create registers a new request in draft for the submitting actor. The actor
// must hold the operator role scoped to the request's unit.
func (s *Service) Create(ctx context.Context, unitID string, amount int64, category domain.PaymentCategory, submitterID string) (*domain.Request, error) {
	if amount < 0 {
		return nil, fmt.Errorf("expenditure: amount must be non-negative, got %d", amount)
	}
	if _, ok := domain.NormalizeCategory(string(category)); !ok {
		return nil, fmt.Errorf("expenditure: unknown payment category %q", category)
	}
	if err := s.requireOperator(ctx, submitterID, unitID); err != nil {
		return nil, err
	}

	now := s.nowF()
	req := &domain.Request{
		ID:          uuid.New().String(),
		UnitID:      unitID,
		Amount:      amount,
		Category:    category,
		Status:      workflow.StatusDraft,
		SubmitterID: submitterID,
		Stages:      make(map[workflow.Status]workflow.StageRecord),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("expenditure: create: %w", err)
	}
	if err := s.recorder.Record(ctx, auditdomain.ActionCreate, ResourceKind, req.ID, nil, statusSnapshot{Status: req.Status}, submitterID); err != nil {
		log.Printf("expenditure: audit create %s: %v", req.ID, err)
	}
	return req, nil
}

// Apply attempts the requested transition for the actor. The status read here
// doubles as the optimistic-concurrency token: a write that finds the status
// already changed returns a ConcurrentModification rejection instead of
// overwriting silently.
func (s *Service) Apply(ctx context.Context, requestID string, target workflow.Status, actorID, note string) (*domain.Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("expenditure: load %s: %w", requestID, err)
	}
	if req == nil {
		return nil, ErrNotFound
	}

	grants, err := s.directory.GrantsFor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("expenditure: resolve grants for %s: %w", actorID, err)
	}
	actor := workflow.Actor{ID: actorID, Grants: grants}

	res, err := workflow.Apply(req.WorkflowDocument(), target, actor, note, s.nowF())
	if err != nil {
		if r := workflow.AsRejection(err); r != nil {
			telemetry.CountRejection(ctx, string(workflow.KindExpenditureRequest), string(r.Kind))
		}
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, req.ID, req.Status, res.NewStatus, res.Stamp); err != nil {
		if errors.Is(err, exprepo.ErrStatusConflict) {
			return nil, &workflow.Rejection{
				Kind: workflow.RejectConcurrentModification,
				Doc:  workflow.KindExpenditureRequest,
				From: req.Status,
				To:   target,
			}
		}
		return nil, fmt.Errorf("expenditure: update status %s: %w", req.ID, err)
	}

	before := statusSnapshot{Status: req.Status}
	after := statusSnapshot{Status: res.NewStatus, Stage: res.Stamp.Stage, Note: res.Stamp.Note}
	if err := s.recorder.Record(ctx, auditdomain.ActionUpdate, ResourceKind, req.ID, before, after, actorID); err != nil {
		log.Printf("expenditure: audit transition %s: %v", req.ID, err)
	}

	if req.Stages == nil {
		req.Stages = make(map[workflow.Status]workflow.StageRecord)
	}
	req.Stages[res.Stamp.Stage] = workflow.StageRecord{At: res.Stamp.At, Note: res.Stamp.Note}
	req.Status = res.NewStatus
	req.UpdatedAt = res.Stamp.At
	telemetry.CountTransition(ctx, string(workflow.KindExpenditureRequest), string(res.NewStatus))

	recs, err := s.router.Route(ctx, workflow.KindExpenditureRequest, string(auditdomain.ActionUpdate), res.NewStatus, req.WorkflowDocument())
	if err != nil {
		log.Printf("expenditure: notify for %s: %v", req.ID, err)
	}
	telemetry.CountNotifications(ctx, string(workflow.KindExpenditureRequest), len(recs))
	return req, nil
}

// Get returns the request, or ErrNotFound.
func (s *Service) Get(ctx context.Context, requestID string) (*domain.Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

func (s *Service) requireOperator(ctx context.Context, actorID, unitID string) error {
	grants, err := s.directory.GrantsFor(ctx, actorID)
	if err != nil {
		return fmt.Errorf("expenditure: resolve grants for %s: %w", actorID, err)
	}
	for _, g := range grants {
		if g.Role == roledomain.RoleOperator && g.Valid() && g.Scope == unitID {
			return nil
		}
	}
	return &workflow.Rejection{
		Kind: workflow.RejectRoleMismatch,
		Doc:  workflow.KindExpenditureRequest,
		From: workflow.StatusDraft,
		To:   workflow.StatusDraft,
		Role: roledomain.RoleOperator,
	}
}
