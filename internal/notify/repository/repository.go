package repository

import (
	"context"

	"expenditure-workflow/internal/notify/domain"
)

// Repository defines persistence for notification records. Append-only.
type Repository interface {
	Append(ctx context.Context, r *domain.Record) error
	ListByDocument(ctx context.Context, documentKind, documentID string) ([]*domain.Record, error)
}
