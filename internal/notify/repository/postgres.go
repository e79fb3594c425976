package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"expenditure-workflow/internal/notify/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a notification record repository that uses the
// given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append persists the record. Channel outcomes are stored as a JSONB map.
func (r *PostgresRepository) Append(ctx context.Context, rec *domain.Record) error {
	channels, err := json.Marshal(rec.Channels)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notification_records (id, event_id, document_kind, document_id, action, status, recipient_id, channels, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.EventID, rec.DocumentKind, rec.DocumentID, rec.Action, rec.Status, rec.RecipientID, channels, rec.CreatedAt)
	return err
}

// ListByDocument returns all records for one document, oldest first.
func (r *PostgresRepository) ListByDocument(ctx context.Context, documentKind, documentID string) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, document_kind, document_id, action, status, recipient_id, channels, created_at
		FROM notification_records WHERE document_kind = $1 AND document_id = $2
		ORDER BY created_at, id`, documentKind, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		var channels []byte
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.DocumentKind, &rec.DocumentID, &rec.Action, &rec.Status, &rec.RecipientID, &channels, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(channels, &rec.Channels); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
