package repository

import (
	"context"
	"sync"

	"expenditure-workflow/internal/audit/domain"
)

// MemoryRepository is an in-memory Repository for tests and local wiring.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*domain.Record
}

// NewMemoryRepository returns an empty in-memory audit repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append stores a copy of the record.
func (r *MemoryRepository) Append(ctx context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

// GetByID returns the record for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

// ListByResource returns records for one resource in append order.
func (r *MemoryRepository) ListByResource(ctx context.Context, resourceKind, resourceID string) ([]*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Record
	for _, rec := range r.records {
		if rec.ResourceKind == resourceKind && rec.ResourceID == resourceID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// All returns every record in append order. Test helper.
func (r *MemoryRepository) All() []*domain.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Record, len(r.records))
	copy(out, r.records)
	return out
}
