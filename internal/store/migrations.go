package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for both tables this daemon needs. Each statement
// uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS results (
		fingerprint TEXT PRIMARY KEY,
		prover      TEXT NOT NULL,
		problem     TEXT NOT NULL,
		classification TEXT NOT NULL,
		errcode     INTEGER NOT NULL,
		stdout      TEXT NOT NULL DEFAULT '',
		stderr      TEXT NOT NULL DEFAULT '',
		real_time   REAL NOT NULL DEFAULT 0,
		user_time   REAL NOT NULL DEFAULT 0,
		sys_time    REAL NOT NULL DEFAULT 0,
		cached_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS snapshots (
		uuid      TEXT PRIMARY KEY,
		timestamp REAL NOT NULL,
		meta      TEXT NOT NULL DEFAULT '',
		events    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
