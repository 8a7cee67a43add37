// Package migrations applies the relational schema used by the postgres store.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// statements run in order; each one is idempotent so Apply may be repeated.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS exercise_users (
		id         BIGSERIAL PRIMARY KEY,
		username   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS exercise_users_username_key ON exercise_users (username)`,
	`CREATE TABLE IF NOT EXISTS exercise_records (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES exercise_users (id),
		description  TEXT NOT NULL,
		duration     INTEGER NOT NULL,
		performed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS exercise_records_user_id_idx ON exercise_records (user_id, id)`,
}

// Apply executes every schema statement against db.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
