package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS snapshots (
					id TEXT PRIMARY KEY,
					dataset TEXT NOT NULL,
					bucket_count INTEGER NOT NULL,
					threshold REAL NOT NULL,
					selection TEXT NOT NULL DEFAULT '',
					mode TEXT NOT NULL,
					trace_count INTEGER NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_snapshots_created_at ON snapshots(created_at)`,

				`CREATE TABLE IF NOT EXISTS buckets (
					snapshot_id TEXT NOT NULL,
					bucket_index INTEGER NOT NULL,
					lo REAL NOT NULL,
					hi REAL NOT NULL,
					trace_count INTEGER NOT NULL,
					average_conformance REAL NOT NULL,
					unique_sequences INTEGER NOT NULL,
					PRIMARY KEY (snapshot_id, bucket_index),
					FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS sequence_groups (
					snapshot_id TEXT NOT NULL,
					bucket_index INTEGER NOT NULL,
					position INTEGER NOT NULL,
					sequence TEXT NOT NULL,
					occurrences INTEGER NOT NULL,
					PRIMARY KEY (snapshot_id, bucket_index, position),
					FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add outcome bubbles",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`ALTER TABLE snapshots ADD COLUMN matching_mode TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE snapshots ADD COLUMN desired_outcomes TEXT NOT NULL DEFAULT '[]'`,

				`CREATE TABLE IF NOT EXISTS outcome_bubbles (
					snapshot_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					x REAL NOT NULL,
					y REAL NOT NULL,
					radius REAL NOT NULL,
					lo REAL NOT NULL,
					hi REAL NOT NULL,
					trace_count INTEGER NOT NULL,
					PRIMARY KEY (snapshot_id, position),
					FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
				)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
