package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expenditure-workflow/internal/payment/domain"
	"expenditure-workflow/internal/workflow"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a payment order repository that uses the given
// db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the order with its deduction lines and stage records, or nil
// if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, request_id, unit_id, gross_amount, total_deduction, net_amount, status, verified, submitter_id, created_at, updated_at
		FROM payment_orders WHERE id = $1`, id)

	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.RequestID, &o.UnitID, &o.GrossAmount, &o.TotalDeduction, &o.NetAmount, &status, &o.Verified, &o.SubmitterID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.Status = workflow.Status(status)

	if o.Lines, err = r.loadLines(ctx, id); err != nil {
		return nil, err
	}
	if o.Stages, err = r.loadStages(ctx, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create persists the order and its deduction lines in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_orders (id, request_id, unit_id, gross_amount, total_deduction, net_amount, status, verified, submitter_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.RequestID, o.UnitID, o.GrossAmount, o.TotalDeduction, o.NetAmount,
		string(o.Status), o.Verified, o.SubmitterID, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	for _, line := range o.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payment_order_deductions (id, order_id, category, rate_bp, base_amount, amount)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			line.ID, o.ID, string(line.Category), line.RateBP, line.Base, line.Amount)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes the order; deduction lines and stage records cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payment_orders WHERE id = $1`, id)
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
		UPDATE payment_orders SET status = $1, updated_at = $2
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
		INSERT INTO payment_order_stages (order_id, stage, stamped_at, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, stage) DO UPDATE SET stamped_at = EXCLUDED.stamped_at, note = EXCLUDED.note`,
		id, string(stamp.Stage), stamp.At, stamp.Note)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// MarkVerified sets the verification marker.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payment_orders SET verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("payment: order %s not found", id)
	}
	return nil
}

func (r *PostgresRepository) loadLines(ctx context.Context, orderID string) ([]domain.DeductionLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, rate_bp, base_amount, amount
		FROM payment_order_deductions WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load deduction lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.DeductionLine
	for rows.Next() {
		line := domain.DeductionLine{OrderID: orderID}
		var category string
		if err := rows.Scan(&line.ID, &category, &line.RateBP, &line.Base, &line.Amount); err != nil {
			return nil, err
		}
		line.Category = domain.DeductionCategory(category)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *PostgresRepository) loadStages(ctx context.Context, orderID string) (map[workflow.Status]workflow.StageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT stage, stamped_at, note FROM payment_order_stages WHERE order_id = $1`, orderID)
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
