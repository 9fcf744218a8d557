package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrBackupExists is returned when the backup destination already exists.
var ErrBackupExists = errors.New("backup destination already exists")

// BackupInfo describes a finished backup.
type BackupInfo struct {
	CreatedAt       time.Time
	Path            string
	Size            int64
	SchemaVersion   int
	Loans           int
	Reconciliations int
}

// Backup writes a consistent copy of the database to destPath and verifies
// the copy's integrity. destPath must not exist yet.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(destPath, "destPath"); err != nil {
		return nil, err
	}

	destPath = filepath.Clean(destPath)
	if _, err := os.Stat(destPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupExists, destPath)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	if err := verifyIntegrity(ctx, destPath); err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil {
			slog.Error("failed to remove corrupt backup", "path", destPath, "error", rmErr)
		}
		return nil, err
	}

	info := &BackupInfo{Path: destPath, CreatedAt: time.Now().UTC()}
	if stat, err := os.Stat(destPath); err == nil {
		info.Size = stat.Size()
	}

	var err error
	if info.SchemaVersion, err = s.SchemaVersion(ctx); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM loans").Scan(&info.Loans); err != nil {
		return nil, fmt.Errorf("failed to count loans: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reconciliations").Scan(&info.Reconciliations); err != nil {
		return nil, fmt.Errorf("failed to count reconciliations: %w", err)
	}

	slog.Info("Database backed up", "source", s.dbPath, "path", destPath, "size", info.Size, "loans", info.Loans)
	return info, nil
}

func verifyIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("failed to close backup database", "error", err)
		}
	}()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to check backup integrity: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup integrity check failed: %s", result)
	}
	return nil
}
