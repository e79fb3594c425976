package domain

import "context"

// Contact carries a recipient's per-channel addresses. An empty address means
// the channel is not configured for that recipient.
type Contact struct {
	ActorID string
	Phone   string
	Email   string
}

// ContactSource resolves actor identities to their channel addresses.
type ContactSource interface {
	// ContactFor returns the contact for an actor. An actor without any
	// configured address still gets a notification record, with every channel
	// marked not_configured.
	ContactFor(ctx context.Context, actorID string) (Contact, error)
}
