package db

import "embed"

// MigrationFS holds the SQL migration files applied by cmd/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
