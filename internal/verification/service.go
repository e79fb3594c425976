// Package verification runs the one-time-code challenge that gates payment
// order settlement. A challenge is bound to one order and one actor; the code
// travels over SMS and only its hash is stored.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"expenditure-workflow/internal/audit"
	auditdomain "expenditure-workflow/internal/audit/domain"
	"expenditure-workflow/internal/notify"
	notifydomain "expenditure-workflow/internal/notify/domain"
	paydomain "expenditure-workflow/internal/payment/domain"
	"expenditure-workflow/internal/verification/domain"
	"expenditure-workflow/internal/verification/store"
	"expenditure-workflow/internal/workflow"
)

var (
	// ErrOrderNotFound is returned when the payment order does not exist.
	ErrOrderNotFound = errors.New("verification: payment order not found")
	// ErrOrderNotIssued is returned when challenging an order that is not in
	// issued status.
	ErrOrderNotIssued = errors.New("verification: payment order is not issued")
	// ErrAlreadyVerified is returned when the order's verification marker is
	// already set.
	ErrAlreadyVerified = errors.New("verification: payment order already verified")
	// ErrPhoneNotConfigured is returned when the actor has no SMS address.
	ErrPhoneNotConfigured = errors.New("verification: actor has no phone configured")
	// ErrCodeMismatch is returned when the provided code does not match.
	ErrCodeMismatch = errors.New("verification: code mismatch")
	// ErrChallengeMismatch is returned when a different actor tries to confirm
	// a challenge.
	ErrChallengeMismatch = errors.New("verification: challenge belongs to another actor")
)

// Orders is the slice of the payment repository the challenge needs.
type Orders interface {
	GetByID(ctx context.Context, id string) (*paydomain.Order, error)
	MarkVerified(ctx context.Context, id string) error
}

// Service issues and confirms settlement challenges.
type Service struct {
	orders   Orders
	store    store.Store
	contacts notifydomain.ContactSource
	sms      notify.Channel
	recorder *audit.Recorder
	ttl      time.Duration
	devCodes *DevCodeStore
	nowF     func() time.Time
}

// NewService returns a challenge service. ttl bounds how long a code stays
// confirmable.
func NewService(orders Orders, st store.Store, contacts notifydomain.ContactSource, sms notify.Channel, recorder *audit.Recorder, ttl time.Duration) *Service {
	return &Service{
		orders:   orders,
		store:    st,
		contacts: contacts,
		sms:      sms,
		recorder: recorder,
		ttl:      ttl,
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// WithDevCodes mirrors plain codes into a dev-only store. Never enable in
// production.
func (s *Service) WithDevCodes(dev *DevCodeStore) *Service {
	s.devCodes = dev
	return s
}

// WithNow overrides the clock. Test helper.
func (s *Service) WithNow(nowF func() time.Time) *Service {
	s.nowF = nowF
	return s
}

// Begin creates a challenge for an issued order and sends the code to the
// actor's phone. Any prior challenge for the order is replaced.
func (s *Service) Begin(ctx context.Context, orderID, actorID string) (*domain.Challenge, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("verification: load order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Verified {
		return nil, ErrAlreadyVerified
	}
	if order.Status != workflow.StatusIssued {
		return nil, fmt.Errorf("%w: status %s", ErrOrderNotIssued, order.Status)
	}

	contact, err := s.contacts.ContactFor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("verification: resolve contact for %s: %w", actorID, err)
	}
	if contact.Phone == "" {
		return nil, ErrPhoneNotConfigured
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("verification: generate code: %w", err)
	}

	now := s.nowF()
	challenge := &domain.Challenge{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		ActorID:   actorID,
		Phone:     contact.Phone,
		CodeHash:  HashCode(code),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Put(ctx, challenge); err != nil {
		return nil, fmt.Errorf("verification: store challenge: %w", err)
	}
	if s.devCodes != nil {
		s.devCodes.Put(orderID, code, challenge.ExpiresAt)
	}

	msg := notify.Message{Body: fmt.Sprintf("Settlement code for payment order %s: %s", orderID, code)}
	if err := s.sms.Send(ctx, contact.Phone, msg); err != nil {
		if delErr := s.store.Delete(ctx, orderID); delErr != nil {
			log.Printf("verification: clean up challenge for %s: %v", orderID, delErr)
		}
		return nil, fmt.Errorf("verification: send code: %w", err)
	}
	return challenge, nil
}

// Confirm checks the code against the live challenge and, on match, sets the
// order's verification marker. The challenge is single-use; it is removed on
// success and kept for retry on mismatch until it expires.
func (s *Service) Confirm(ctx context.Context, orderID, actorID, code string) error {
	challenge, err := s.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if challenge.ActorID != actorID {
		return ErrChallengeMismatch
	}
	if !CodeEqual(code, challenge.CodeHash) {
		return ErrCodeMismatch
	}

	if err := s.orders.MarkVerified(ctx, orderID); err != nil {
		return fmt.Errorf("verification: mark verified %s: %w", orderID, err)
	}
	if err := s.store.Delete(ctx, orderID); err != nil {
		log.Printf("verification: remove confirmed challenge for %s: %v", orderID, err)
	}

	before := map[string]bool{"verified": false}
	after := map[string]bool{"verified": true}
	if err := s.recorder.Record(ctx, auditdomain.ActionUpdate, "payment_order", orderID, before, after, actorID); err != nil {
		log.Printf("verification: audit confirm %s: %v", orderID, err)
	}
	return nil
}
