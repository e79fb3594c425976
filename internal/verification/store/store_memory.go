package store

import (
	"context"
	"sync"
	"time"

	"expenditure-workflow/internal/verification/domain"
)

// MemoryStore is an in-memory Store for tests and single-instance local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]*domain.Challenge
	nowF func() time.Time
}

// NewMemoryStore returns an empty in-memory challenge store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]*domain.Challenge),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock. Test helper.
func (s *MemoryStore) WithNow(nowF func() time.Time) *MemoryStore {
	s.nowF = nowF
	return s
}

// Put stores the challenge, replacing any prior one for the same order.
func (s *MemoryStore) Put(ctx context.Context, c *domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.m[c.OrderID] = &cp
	return nil
}

// Get returns the challenge if present and not expired; expired entries are
// dropped on read.
func (s *MemoryStore) Get(ctx context.Context, orderID string) (*domain.Challenge, error) {
	s.mu.RLock()
	c, ok := s.m[orderID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !c.ExpiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, orderID)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Delete removes the challenge.
func (s *MemoryStore) Delete(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, orderID)
	return nil
}
