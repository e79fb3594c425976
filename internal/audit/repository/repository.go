package repository

import (
	"context"

	"expenditure-workflow/internal/audit/domain"
)

// Repository defines persistence for audit records. The store is append-only;
// there is no update or delete.
type Repository interface {
	Append(ctx context.Context, r *domain.Record) error
	GetByID(ctx context.Context, id string) (*domain.Record, error)
	ListByResource(ctx context.Context, resourceKind, resourceID string) ([]*domain.Record, error)
}
