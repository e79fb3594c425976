// Package migrate applies the embedded schema migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"expenditure-workflow/internal/db"
)

// ErrNoChange reports that the schema is already at the requested version.
// Callers usually treat it as success.
var ErrNoChange = migrate.ErrNoChange

// Run migrates the database at dsn in the given direction ("up" or "down")
// using the SQL files embedded in internal/db. Returns ErrNoChange when there
// is nothing to apply.
func Run(dsn, direction string) error {
	if dsn == "" {
		return errors.New("migrate: DATABASE_URL is not set")
	}

	var step func(*migrate.Migrate) error
	switch direction {
	case "up":
		step = (*migrate.Migrate).Up
	case "down":
		step = (*migrate.Migrate).Down
	default:
		return fmt.Errorf("migrate: direction must be up or down, got %q", direction)
	}

	src, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate: open embedded source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	return step(m)
}
