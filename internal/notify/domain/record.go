package domain

import "time"

// DeliveryStatus is the terminal per-channel outcome of one dispatch attempt.
// There are no retries; a failed attempt stays failed for that event.
type DeliveryStatus string

const (
	DeliverySent          DeliveryStatus = "sent"
	DeliveryFailed        DeliveryStatus = "failed"
	DeliveryNotConfigured DeliveryStatus = "not_configured"
)

// Record is the per-recipient outcome of one triggering event. Exactly one
// record exists per recipient per event; it is never mutated after dispatch
// completes.
type Record struct {
	ID string
	// EventID groups the records written for one routed transition.
	EventID      string
	DocumentKind string
	DocumentID   string
	Action       string
	Status       string // resulting document status that triggered routing
	RecipientID  string
	// Channels maps channel name to delivery outcome.
	Channels  map[string]DeliveryStatus
	CreatedAt time.Time
}
