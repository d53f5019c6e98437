package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateTableIfNotExists creates the users and tasks tables.
func CreateTableIfNotExists(ctx context.Context, db *sqlx.DB) error {
	query := `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    pending_tasks TEXT[] NOT NULL DEFAULT '{}',
    date_created TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tasks (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    deadline TEXT NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    assigned_user TEXT NOT NULL DEFAULT '',
    assigned_user_name TEXT NOT NULL DEFAULT 'unassigned',
    date_created TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS tasks_assigned_user_idx ON tasks (assigned_user);
`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}
	return nil
}

// DeleteAllTable drops both tables.
func DeleteAllTable(ctx context.Context, db *sqlx.DB) error {
	query := `
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS users;
    `

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("error deleting tables: %w", err)
	}
	return nil
}
