package domain

import "time"

// Challenge is a pending one-time-code verification for a payment order. The
// code itself is never stored, only its hash.
type Challenge struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	ActorID   string    `json:"actor_id"`
	Phone     string    `json:"phone"`
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
