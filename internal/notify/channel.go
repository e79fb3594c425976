// Package notify resolves who must be told about a document transition and
// dispatches through independent channels, recording one outcome per recipient
// per event. It performs no retries; re-triggering is the caller's concern.
package notify

import "context"

// Message is the channel-agnostic payload. Channels use what they need (SMS
// drops the subject).
type Message struct {
	Subject string
	Body    string
}

// Channel is a single delivery transport. Channels are black boxes with no
// shared failure mode; an error from one recipient's send never affects other
// recipients or other channels.
type Channel interface {
	// Name identifies the channel in notification records (e.g. "sms", "mail").
	Name() string
	// Send delivers msg to address. Returns an error on delivery failure;
	// the router records it and moves on.
	Send(ctx context.Context, address string, msg Message) error
}
