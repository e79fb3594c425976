package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"expenditure-workflow/internal/role/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a role assignment repository that uses the
// given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByActor returns all assignments for the actor, oldest first.
func (r *PostgresRepository) ListByActor(ctx context.Context, actorID string) ([]domain.Assignment, error) {
	return r.list(ctx, `
		SELECT id, actor_id, role, scope, created_at
		FROM role_assignments WHERE actor_id = $1 ORDER BY created_at, id`, actorID)
}

// ListByRole returns all assignments of the role across actors.
func (r *PostgresRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Assignment, error) {
	return r.list(ctx, `
		SELECT id, actor_id, role, scope, created_at
		FROM role_assignments WHERE role = $1 ORDER BY created_at, id`, string(role))
}

// Create persists the assignment. The assignment must have ID set. Returns
// ErrDuplicateAssignment when the (actor, role, scope) tuple already exists.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Assignment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO role_assignments (id, actor_id, role, scope, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.ActorID, string(a.Role), a.Scope, a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateAssignment
	}
	return err
}

// DeleteByID removes one assignment.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM role_assignments WHERE id = $1`, id)
	return err
}

// DeleteByActor removes all assignments for the actor and returns the deleted rows.
func (r *PostgresRepository) DeleteByActor(ctx context.Context, actorID string) ([]domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM role_assignments WHERE actor_id = $1
		RETURNING id, actor_id, role, scope, created_at`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]domain.Assignment, error) {
	var out []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var role string
		if err := rows.Scan(&a.ID, &a.ActorID, &role, &a.Scope, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Role = domain.Role(role)
		out = append(out, a)
	}
	return out, rows.Err()
}
