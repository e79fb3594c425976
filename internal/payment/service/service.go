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
	"expenditure-workflow/internal/compensate"
	exprepo "expenditure-workflow/internal/expenditure/repository"
	notifydomain "expenditure-workflow/internal/notify/domain"
	"expenditure-workflow/internal/payment/domain"
	payrepo "expenditure-workflow/internal/payment/repository"
	roledomain "expenditure-workflow/internal/role/domain"
	"expenditure-workflow/internal/telemetry"
	"expenditure-workflow/internal/workflow"
)

// ResourceKind is the audit resource kind for payment orders.
const ResourceKind = "payment_order"

var (
	// ErrNotFound is returned when the order does not exist.
	ErrNotFound = errors.New("payment: order not found")
	// ErrRequestNotFound is returned when the source request does not exist.
	ErrRequestNotFound = errors.New("payment: source request not found")
	// ErrRequestNotApproved is returned when issuing against a request that is
	// not in approved status.
	ErrRequestNotApproved = errors.New("payment: source request is not approved")
)

// Directory is the minimal role lookup needed by the service.
type Directory interface {
	GrantsFor(ctx context.Context, actorID string) ([]roledomain.Assignment, error)
}

// Router dispatches notifications for a committed transition.
type Router interface {
	Route(ctx context.Context, kind workflow.DocumentKind, action string, resulting workflow.Status, doc workflow.Document) ([]*notifydomain.Record, error)
}

// orderSnapshot is the audit shape for order creation.
type orderSnapshot struct {
	RequestID      string          `json:"request_id"`
	GrossAmount    int64           `json:"gross_amount"`
	TotalDeduction int64           `json:"total_deduction"`
	NetAmount      int64           `json:"net_amount"`
	Status         workflow.Status `json:"status"`
}

// statusSnapshot is the audit before/after shape for status mutations.
type statusSnapshot struct {
	Status workflow.Status `json:"status"`
	Stage  workflow.Status `json:"stage,omitempty"`
	Note   string          `json:"note,omitempty"`
}

// Service issues payment orders against approved expenditure requests and
// drives them through the disbursement pipeline. Issuance is a two-step
// compensated mutation: the order insert and the consumption flag on the
// source request either both land or both unwind.
type Service struct {
	orders    payrepo.Repository
	requests  exprepo.Repository
	directory Directory
	exec      *compensate.Executor
	recorder  *audit.Recorder
	router    Router
	nowF      func() time.Time
}

// NewService returns a Service for payment orders.
func NewService(orders payrepo.Repository, requests exprepo.Repository, directory Directory, exec *compensate.Executor, recorder *audit.Recorder, router Router) *Service {
	return &Service{
		orders:    orders,
		requests:  requests,
		directory: directory,
		exec:      exec,
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

// Issue creates a pending payment order for an approved request and marks the
// request consumed so no second order can be issued against it. The actor must
// hold the treasury clerk role. Deduction amounts are computed before any
// write; a negative net rejects the issuance untouched.
func (s *Service) Issue(ctx context.Context, requestID, actorID string, lines []domain.DeductionLine) (*domain.Order, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("payment: load request %s: %w", requestID, err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != workflow.StatusApproved {
		return nil, fmt.Errorf("%w: status %s", ErrRequestNotApproved, req.Status)
	}
	if req.Consumed {
		return nil, exprepo.ErrAlreadyConsumed
	}
	if err := s.requireTreasuryClerk(ctx, actorID); err != nil {
		return nil, err
	}

	computed, err := domain.ComputeDeductions(req.Amount, lines)
	if err != nil {
		return nil, err
	}

	now := s.nowF()
	order := &domain.Order{
		ID:             uuid.New().String(),
		RequestID:      req.ID,
		UnitID:         req.UnitID,
		GrossAmount:    req.Amount,
		TotalDeduction: computed.TotalDeduction,
		NetAmount:      computed.NetAmount,
		Lines:          computed.Lines,
		Status:         workflow.StatusPending,
		SubmitterID:    actorID,
		Stages:         make(map[workflow.Status]workflow.StageRecord),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range order.Lines {
		order.Lines[i].ID = uuid.New().String()
		order.Lines[i].OrderID = order.ID
	}

	attempted := orderSnapshot{
		RequestID:      order.RequestID,
		GrossAmount:    order.GrossAmount,
		TotalDeduction: order.TotalDeduction,
		NetAmount:      order.NetAmount,
		Status:         order.Status,
	}
	err = s.exec.Run(ctx, compensate.Mutation{
		ResourceKind: ResourceKind,
		ResourceID:   order.ID,
		ActorID:      actorID,
		Attempted:    attempted,
		Steps: []compensate.Step{
			{
				Name:       "create_order",
				Forward:    func(ctx context.Context) error { return s.orders.Create(ctx, order) },
				Compensate: func(ctx context.Context) error { return s.orders.Delete(ctx, order.ID) },
				Snapshot:   attempted,
			},
			{
				Name:       "consume_request",
				Forward:    func(ctx context.Context) error { return s.requests.MarkConsumed(ctx, req.ID) },
				Compensate: func(ctx context.Context) error { return s.requests.ClearConsumed(ctx, req.ID) },
				Snapshot:   map[string]any{"request_id": req.ID, "consumed": false},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.recorder.Record(ctx, auditdomain.ActionCreate, ResourceKind, order.ID, nil, attempted, actorID); err != nil {
		log.Printf("payment: audit issue %s: %v", order.ID, err)
	}
	if _, err := s.router.Route(ctx, workflow.KindPaymentOrder, string(auditdomain.ActionCreate), order.Status, order.WorkflowDocument()); err != nil {
		log.Printf("payment: notify for %s: %v", order.ID, err)
	}
	return order, nil
}

// Apply attempts the requested transition for the actor. The status read here
// is the optimistic-concurrency token; a write that finds the status already
// changed returns a ConcurrentModification rejection. Settlement additionally
// requires the verification marker, enforced by the transition guard.
func (s *Service) Apply(ctx context.Context, orderID string, target workflow.Status, actorID, note string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("payment: load %s: %w", orderID, err)
	}
	if order == nil {
		return nil, ErrNotFound
	}

	grants, err := s.directory.GrantsFor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("payment: resolve grants for %s: %w", actorID, err)
	}
	actor := workflow.Actor{ID: actorID, Grants: grants}

	res, err := workflow.Apply(order.WorkflowDocument(), target, actor, note, s.nowF())
	if err != nil {
		if r := workflow.AsRejection(err); r != nil {
			telemetry.CountRejection(ctx, string(workflow.KindPaymentOrder), string(r.Kind))
		}
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, res.NewStatus, res.Stamp); err != nil {
		if errors.Is(err, payrepo.ErrStatusConflict) {
			return nil, &workflow.Rejection{
				Kind: workflow.RejectConcurrentModification,
				Doc:  workflow.KindPaymentOrder,
				From: order.Status,
				To:   target,
			}
		}
		return nil, fmt.Errorf("payment: update status %s: %w", order.ID, err)
	}

	before := statusSnapshot{Status: order.Status}
	after := statusSnapshot{Status: res.NewStatus, Stage: res.Stamp.Stage, Note: res.Stamp.Note}
	if err := s.recorder.Record(ctx, auditdomain.ActionUpdate, ResourceKind, order.ID, before, after, actorID); err != nil {
		log.Printf("payment: audit transition %s: %v", order.ID, err)
	}

	if order.Stages == nil {
		order.Stages = make(map[workflow.Status]workflow.StageRecord)
	}
	order.Stages[res.Stamp.Stage] = workflow.StageRecord{At: res.Stamp.At, Note: res.Stamp.Note}
	order.Status = res.NewStatus
	order.UpdatedAt = res.Stamp.At
	telemetry.CountTransition(ctx, string(workflow.KindPaymentOrder), string(res.NewStatus))

	recs, err := s.router.Route(ctx, workflow.KindPaymentOrder, string(auditdomain.ActionUpdate), res.NewStatus, order.WorkflowDocument())
	if err != nil {
		log.Printf("payment: notify for %s: %v", order.ID, err)
	}
	telemetry.CountNotifications(ctx, string(workflow.KindPaymentOrder), len(recs))
	return order, nil
}

// Get returns the order, or ErrNotFound.
func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

func (s *Service) requireTreasuryClerk(ctx context.Context, actorID string) error {
	grants, err := s.directory.GrantsFor(ctx, actorID)
	if err != nil {
		return fmt.Errorf("payment: resolve grants for %s: %w", actorID, err)
	}
	for _, g := range grants {
		if g.Role == roledomain.RoleTreasuryClerk && g.Valid() {
			return nil
		}
	}
	return &workflow.Rejection{
		Kind: workflow.RejectRoleMismatch,
		Doc:  workflow.KindPaymentOrder,
		From: workflow.StatusPending,
		To:   workflow.StatusPending,
		Role: roledomain.RoleTreasuryClerk,
	}
}
