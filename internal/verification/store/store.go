// Package store persists pending one-time-code challenges, keyed by payment
// order so at most one challenge is active per order. Entries expire with the
// challenge.
package store

import (
	"context"
	"errors"

	"expenditure-workflow/internal/verification/domain"
)

// ErrNotFound is returned when no live challenge exists for the order.
var ErrNotFound = errors.New("verification: no active challenge for order")

// Store holds pending challenges. Put replaces any prior challenge for the
// same order.
type Store interface {
	Put(ctx context.Context, c *domain.Challenge) error
	// Get returns the challenge for the order, or ErrNotFound if missing or
	// expired.
	Get(ctx context.Context, orderID string) (*domain.Challenge, error)
	// Delete removes the challenge. Deleting a missing challenge is not an
	// error.
	Delete(ctx context.Context, orderID string) error
}
