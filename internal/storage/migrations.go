package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Loans and extractions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS loans (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					application_number TEXT UNIQUE,
					status TEXT NOT NULL DEFAULT 'pending',
					record TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_loans_status ON loans(status)`,

				`CREATE TABLE IF NOT EXISTS extractions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					loan_id INTEGER NOT NULL,
					document_name TEXT NOT NULL,
					document_type TEXT,
					confidence REAL DEFAULT 0,
					record TEXT NOT NULL,
					errors TEXT,
					created_at DATETIME NOT NULL,
					FOREIGN KEY (loan_id) REFERENCES loans(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_extractions_loan ON extractions(loan_id, created_at)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Validation rules",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS validation_rules (
					key TEXT PRIMARY KEY,
					rule TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Reconciliation history and loan timeline",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS reconciliations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT UNIQUE NOT NULL,
					loan_id INTEGER NOT NULL,
					extraction_id INTEGER,
					operator TEXT,
					variance_count INTEGER NOT NULL DEFAULT 0,
					critical_count INTEGER NOT NULL DEFAULT 0,
					outcomes TEXT NOT NULL,
					patch TEXT NOT NULL,
					finalized_at DATETIME NOT NULL,
					FOREIGN KEY (loan_id) REFERENCES loans(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_reconciliations_loan ON reconciliations(loan_id)`,

				`CREATE TABLE IF NOT EXISTS timeline_events (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					loan_id INTEGER NOT NULL,
					event TEXT NOT NULL,
					user_name TEXT,
					type TEXT NOT NULL DEFAULT 'info',
					created_at DATETIME NOT NULL,
					FOREIGN KEY (loan_id) REFERENCES loans(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_timeline_loan ON timeline_events(loan_id, created_at)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
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

		slog.Info("Applied migration",
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

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
