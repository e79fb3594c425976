package repository

import (
	"context"
	"sync"

	"expenditure-workflow/internal/payment/domain"
	"expenditure-workflow/internal/workflow"
)

// MemoryRepository is an in-memory Repository for tests and local wiring. The
// conditional status write takes the same status-token check as the Postgres
// implementation.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Order

	// Fault injection for tests.
	CreateErr       error
	DeleteErr       error
	UpdateStatusErr error
}

// NewMemoryRepository returns an empty in-memory payment order repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Order)}
}

// GetByID returns a copy of the order, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

// Create stores a copy of the order.
func (r *MemoryRepository) Create(ctx context.Context, o *domain.Order) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[o.ID] = copyOrder(o)
	return nil
}

// Delete removes the order.
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// UpdateStatus conditionally advances the status and records the stage stamp.
func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, expected, next workflow.Status, stamp workflow.Stamp) error {
	if r.UpdateStatusErr != nil {
		return r.UpdateStatusErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok || o.Status != expected {
		return ErrStatusConflict
	}
	o.Status = next
	o.UpdatedAt = stamp.At
	if o.Stages == nil {
		o.Stages = make(map[workflow.Status]workflow.StageRecord)
	}
	o.Stages[stamp.Stage] = workflow.StageRecord{At: stamp.At, Note: stamp.Note}
	return nil
}

// MarkVerified sets the verification marker.
func (r *MemoryRepository) MarkVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.byID[id]; ok {
		o.Verified = true
	}
	return nil
}

// All returns copies of every stored order. Test helper.
func (r *MemoryRepository) All() []*domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Order, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, copyOrder(o))
	}
	return out
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Lines = append([]domain.DeductionLine(nil), o.Lines...)
	if o.Stages != nil {
		cp.Stages = make(map[workflow.Status]workflow.StageRecord, len(o.Stages))
		for k, v := range o.Stages {
			cp.Stages[k] = v
		}
	}
	return &cp
}
