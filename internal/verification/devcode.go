package verification

import (
	"sync"
	"time"
)

// DevCodeStore holds plain one-time codes by order ID for dev-only retrieval,
// used only when dev code mode is enabled. Not used in production.
type DevCodeStore struct {
	mu   sync.RWMutex
	m    map[string]devEntry
	nowF func() time.Time
}

type devEntry struct {
	code      string
	expiresAt time.Time
}

// NewDevCodeStore returns a new in-memory dev code store.
func NewDevCodeStore() *DevCodeStore {
	return &DevCodeStore{
		m:    make(map[string]devEntry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Put stores the plain code for orderID until expiresAt.
func (s *DevCodeStore) Put(orderID, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[orderID] = devEntry{code: code, expiresAt: expiresAt}
}

// Get returns the code for orderID if present and not expired.
func (s *DevCodeStore) Get(orderID string) (string, bool) {
	s.mu.RLock()
	e, ok := s.m[orderID]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, orderID)
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}
