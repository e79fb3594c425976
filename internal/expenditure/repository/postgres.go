package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expenditure-workflow/internal/expenditure/domain"
	"expenditure-workflow/internal/workflow"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an expenditure request repository that uses
// the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the request with its stage records, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, unit_id, amount, category, status, submitter_id, queue_number, consumed, created_at, updated_at
		FROM expenditure_requests WHERE id = $1`, id)

	var req domain.Request
	var category, status string
	var queueNumber sql.NullString
	err := row.Scan(&req.ID, &req.UnitID, &req.Amount, &category, &status, &req.SubmitterID, &queueNumber, &req.Consumed, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	req.Category = domain.PaymentCategory(category)
	req.Status = workflow.Status(status)
	req.QueueNumber = queueNumber.String

	stages, err := r.loadStages(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Stages = stages
	return &req, nil
}

// Create persists the request. The request must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, req *domain.Request) error {
	queueNumber := sql.NullString{String: req.QueueNumber, Valid: req.QueueNumber != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenditure_requests (id, unit_id, amount, category, status, submitter_id, queue_number, consumed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.UnitID, req.Amount, string(req.Category), string(req.Status), req.SubmitterID,
		queueNumber, req.Consumed, req.CreatedAt, req.UpdatedAt)
	return err
}

// UpdateStatus conditionally advances the status and upserts the stage stamp
// in one transaction. The WHERE clause on the old status is the optimistic
// concurrency check; zero affected rows means another writer got there first.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, expected, next workflow.Status, stamp workflow.Stamp) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE expenditure_requests SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		string(next), stamp.At, id, string(expected))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenditure_request_stages (request_id, stage, stamped_at, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (request_id, stage) DO UPDATE SET stamped_at = EXCLUDED.stamped_at, note = EXCLUDED.note`,
		id, string(stamp.Stage), stamp.At, stamp.Note)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// MarkConsumed flags an approved, unconsumed request.
func (r *PostgresRepository) MarkConsumed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenditure_requests SET consumed = TRUE
		WHERE id = $1 AND status = $2 AND consumed = FALSE`,
		id, string(workflow.StatusApproved))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		req, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req != nil && req.Consumed {
			return ErrAlreadyConsumed
		}
		return ErrStatusConflict
	}
	return nil
}

// ClearConsumed unsets the consumed flag.
func (r *PostgresRepository) ClearConsumed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE expenditure_requests SET consumed = FALSE WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) loadStages(ctx context.Context, id string) (map[workflow.Status]workflow.StageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT stage, stamped_at, note FROM expenditure_request_stages WHERE request_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()

	stages := make(map[workflow.Status]workflow.StageRecord)
	for rows.Next() {
		var stage string
		var rec workflow.StageRecord
		if err := rows.Scan(&stage, &rec.At, &rec.Note); err != nil {
			return nil, err
		}
		stages[workflow.Status(stage)] = rec
	}
	return stages, rows.Err()
}
