package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenditure-workflow/internal/verification/domain"
)

func challenge(orderID string, expiresAt time.Time) *domain.Challenge {
	return &domain.Challenge{
		ID:        "ch-" + orderID,
		OrderID:   orderID,
		ActorID:   "tirta",
		Phone:     "6281234",
		CodeHash:  "abc",
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-5 * time.Minute),
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, challenge("ord-1", time.Now().UTC().Add(5*time.Minute))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "ord-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OrderID != "ord-1" || got.CodeHash != "abc" {
		t.Fatalf("got = %+v", got)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_GetExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, challenge("ord-1", time.Now().UTC().Add(-time.Minute))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err := s.Get(ctx, "ord-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for expired challenge", err)
	}
}

func TestMemoryStore_PutReplaces(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	first := challenge("ord-1", expiresAt)
	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	second := challenge("ord-1", expiresAt)
	second.CodeHash = "def"
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "ord-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CodeHash != "def" {
		t.Fatalf("CodeHash = %q, want replacement", got.CodeHash)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, challenge("ord-1", time.Now().UTC().Add(5*time.Minute))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "ord-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "ord-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after delete", err)
	}
	if err := s.Delete(ctx, "ord-1"); err != nil {
		t.Fatalf("Delete of missing challenge: %v", err)
	}
}
