package repository

import (
	"context"
	"errors"

	"expenditure-workflow/internal/payment/domain"
	"expenditure-workflow/internal/workflow"
)

// ErrStatusConflict is returned when a conditional status write finds the row's
// status differs from the value read: another transition won the race.
var ErrStatusConflict = errors.New("payment: status changed since read")

// Repository defines persistence for payment orders and their deduction lines.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Create persists the order together with its deduction lines.
	Create(ctx context.Context, o *domain.Order) error
	// Delete removes the order and its lines; the compensating action of
	// issuance.
	Delete(ctx context.Context, id string) error
	// UpdateStatus writes the new status together with the stage stamp, but
	// only if the row still carries expected; otherwise ErrStatusConflict.
	UpdateStatus(ctx context.Context, id string, expected, next workflow.Status, stamp workflow.Stamp) error
	// MarkVerified sets the verification marker after a one-time-code
	// challenge succeeds.
	MarkVerified(ctx context.Context, id string) error
}
