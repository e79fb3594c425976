package repository

import (
	"context"
	"database/sql"
	"errors"

	"expenditure-workflow/internal/notify/domain"
)

// PostgresContacts resolves actor contact addresses from the actors table.
type PostgresContacts struct {
	db *sql.DB
}

var _ domain.ContactSource = (*PostgresContacts)(nil)

// NewPostgresContacts returns a contact source backed by the given db.
func NewPostgresContacts(db *sql.DB) *PostgresContacts {
	return &PostgresContacts{db: db}
}

// ContactFor returns the actor's channel addresses. An unknown actor resolves
// to a contact with no addresses, so every recipient still gets a record with
// channels marked not_configured.
func (c *PostgresContacts) ContactFor(ctx context.Context, actorID string) (domain.Contact, error) {
	row := c.db.QueryRowContext(ctx, `SELECT phone, email FROM actors WHERE id = $1`, actorID)

	contact := domain.Contact{ActorID: actorID}
	err := row.Scan(&contact.Phone, &contact.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact, nil
		}
		return domain.Contact{}, err
	}
	return contact, nil
}
