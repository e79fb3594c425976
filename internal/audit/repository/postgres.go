package repository

import (
	"context"
	"database/sql"
	"errors"

	"expenditure-workflow/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit record repository that uses the given
// db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append persists the record. The record must have ID set. Records are
// immutable; there is no corresponding update or delete statement.
func (r *PostgresRepository) Append(ctx context.Context, rec *domain.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_records (id, action, resource_kind, resource_id, before_snapshot, after_snapshot, diff, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, string(rec.Action), rec.ResourceKind, rec.ResourceID,
		nullRaw(rec.Before), nullRaw(rec.After), nullRaw(rec.Diff),
		rec.ActorID, rec.CreatedAt,
	)
	return err
}

// GetByID returns the record for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, action, resource_kind, resource_id, before_snapshot, after_snapshot, diff, actor_id, created_at
		FROM audit_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// ListByResource returns all records for one resource, oldest first.
func (r *PostgresRepository) ListByResource(ctx context.Context, resourceKind, resourceID string) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, resource_kind, resource_id, before_snapshot, after_snapshot, diff, actor_id, created_at
		FROM audit_records WHERE resource_kind = $1 AND resource_id = $2
		ORDER BY created_at, id`, resourceKind, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	var action string
	var before, after, diff []byte
	if err := row.Scan(&rec.ID, &action, &rec.ResourceKind, &rec.ResourceID, &before, &after, &diff, &rec.ActorID, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Action = domain.ActionKind(action)
	rec.Before = before
	rec.After = after
	rec.Diff = diff
	return &rec, nil
}

func nullRaw(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
