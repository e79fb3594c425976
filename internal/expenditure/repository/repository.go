package repository

import (
	"context"
	"errors"

	"expenditure-workflow/internal/expenditure/domain"
	"expenditure-workflow/internal/workflow"
)

// ErrStatusConflict is returned when a conditional status write finds the row's
// status differs from the value read: another transition won the race.
var ErrStatusConflict = errors.New("expenditure: status changed since read")

// ErrAlreadyConsumed is returned when marking a request consumed that already
// has a payment order issued against it.
var ErrAlreadyConsumed = errors.New("expenditure: request already consumed")

// Repository defines persistence for expenditure requests.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	Create(ctx context.Context, r *domain.Request) error
	// UpdateStatus writes the new status together with the stage stamp, but
	// only if the row still carries expected; otherwise ErrStatusConflict.
	// The status column is the optimistic-concurrency token.
	UpdateStatus(ctx context.Context, id string, expected, next workflow.Status, stamp workflow.Stamp) error
	// MarkConsumed flags an approved request as having a payment order issued
	// against it. Fails with ErrStatusConflict if the request is not approved,
	// or ErrAlreadyConsumed if it is already flagged.
	MarkConsumed(ctx context.Context, id string) error
	// ClearConsumed undoes MarkConsumed; the compensating action of payment
	// order issuance.
	ClearConsumed(ctx context.Context, id string) error
}
