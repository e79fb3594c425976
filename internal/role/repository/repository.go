package repository

import (
	"context"
	"errors"

	"expenditure-workflow/internal/role/domain"
)

// ErrDuplicateAssignment is returned when an (actor, role, scope) tuple
// already exists.
var ErrDuplicateAssignment = errors.New("role: duplicate assignment")

// Repository defines persistence for role assignments.
type Repository interface {
	ListByActor(ctx context.Context, actorID string) ([]domain.Assignment, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Assignment, error)
	Create(ctx context.Context, a *domain.Assignment) error
	DeleteByID(ctx context.Context, id string) error
	// DeleteByActor removes all assignments for the actor and returns the
	// deleted rows, so callers can re-insert them as a compensating action.
	DeleteByActor(ctx context.Context, actorID string) ([]domain.Assignment, error)
}
