package repository

import (
	"context"
	"sync"

	"expenditure-workflow/internal/expenditure/domain"
	"expenditure-workflow/internal/workflow"
)

// MemoryRepository is an in-memory Repository for tests and local wiring. The
// conditional status write takes the same status-token check as the Postgres
// implementation, so concurrency behavior is observable in tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Request

	// Fault injection for tests.
	UpdateStatusErr error
	MarkConsumedErr error
}

// NewMemoryRepository returns an empty in-memory expenditure request repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Request)}
}

// GetByID returns a copy of the request, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(req), nil
}

// Create stores a copy of the request.
func (r *MemoryRepository) Create(ctx context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[req.ID] = copyRequest(req)
	return nil
}

// UpdateStatus conditionally advances the status and records the stage stamp.
func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, expected, next workflow.Status, stamp workflow.Stamp) error {
	if r.UpdateStatusErr != nil {
		return r.UpdateStatusErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok || req.Status != expected {
		return ErrStatusConflict
	}
	req.Status = next
	req.UpdatedAt = stamp.At
	if req.Stages == nil {
		req.Stages = make(map[workflow.Status]workflow.StageRecord)
	}
	req.Stages[stamp.Stage] = workflow.StageRecord{At: stamp.At, Note: stamp.Note}
	return nil
}

// MarkConsumed flags an approved, unconsumed request.
func (r *MemoryRepository) MarkConsumed(ctx context.Context, id string) error {
	if r.MarkConsumedErr != nil {
		return r.MarkConsumedErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok || req.Status != workflow.StatusApproved {
		return ErrStatusConflict
	}
	if req.Consumed {
		return ErrAlreadyConsumed
	}
	req.Consumed = true
	return nil
}

// ClearConsumed unsets the consumed flag.
func (r *MemoryRepository) ClearConsumed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.byID[id]; ok {
		req.Consumed = false
	}
	return nil
}

func copyRequest(req *domain.Request) *domain.Request {
	cp := *req
	if req.Stages != nil {
		cp.Stages = make(map[workflow.Status]workflow.StageRecord, len(req.Stages))
		for k, v := range req.Stages {
			cp.Stages[k] = v
		}
	}
	return &cp
}
