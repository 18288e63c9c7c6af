package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements creates the esmconvert schema and the conversion_jobs
// table. Statements are idempotent so migrations can re-run safely.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS esmconvert`,
	`CREATE TABLE IF NOT EXISTS esmconvert.conversion_jobs (
		id UUID PRIMARY KEY,
		module_path TEXT NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		output TEXT,
		error_message TEXT,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS conversion_jobs_status_idx
		ON esmconvert.conversion_jobs (status)`,
	`CREATE INDEX IF NOT EXISTS conversion_jobs_created_at_idx
		ON esmconvert.conversion_jobs (created_at DESC)`,
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}
	return nil
}
