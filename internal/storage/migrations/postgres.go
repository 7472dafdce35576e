package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresExecer is satisfied by *postgres.Pool and *pgxpool.Pool.
type PostgresExecer interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name        TEXT PRIMARY KEY,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// ApplyPostgres applies every embedded ledger migration not yet recorded in
// schema_migrations. Each file runs in its own transaction together with its
// version row, so a failed file leaves no trace.
func ApplyPostgres(ctx context.Context, db PostgresExecer) ([]string, error) {
	files, err := scripts(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, f := range files {
		ok, err := applyPostgresScript(ctx, db, f)
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", f.Name, err)
		}
		if ok {
			applied = append(applied, f.Name)
		}
	}
	return applied, nil
}

// applyPostgresScript runs f unless it was already applied.
func applyPostgresScript(ctx context.Context, db PostgresExecer, f script) (bool, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var done bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, f.Name).Scan(&done)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}

	if _, err := tx.Exec(ctx, f.SQL); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, f.Name); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
