package repository

import (
	"context"
	"sync"

	"expenditure-workflow/internal/notify/domain"
)

// MemoryRepository is an in-memory Repository for tests and local wiring.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*domain.Record
}

// NewMemoryRepository returns an empty in-memory notification repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append stores a copy of the record.
func (r *MemoryRepository) Append(ctx context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	if rec.Channels != nil {
		cp.Channels = make(map[string]domain.DeliveryStatus, len(rec.Channels))
		for k, v := range rec.Channels {
			cp.Channels[k] = v
		}
	}
	r.records = append(r.records, &cp)
	return nil
}

// ListByDocument returns records for one document in append order.
func (r *MemoryRepository) ListByDocument(ctx context.Context, documentKind, documentID string) ([]*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Record
	for _, rec := range r.records {
		if rec.DocumentKind == documentKind && rec.DocumentID == documentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// All returns every record. Test helper.
func (r *MemoryRepository) All() []*domain.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Record, len(r.records))
	copy(out, r.records)
	return out
}
