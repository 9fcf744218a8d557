package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/loanrecon/internal/common"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/service"
	"github.com/mattn/go-sqlite3"
)

// SaveLoan inserts a new loan (ID zero) or replaces the stored record with the same ID.
// The assigned ID is written back to loan.
func (s *SQLiteStorage) SaveLoan(ctx context.Context, loan *model.LoanRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLoan(loan); err != nil {
		return err
	}
	if loan.Status == "" {
		loan.Status = model.LoanPending
	}

	data, err := encodeRecord(loan)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if loan.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO loans (application_number, status, record, created_at, updated_at)
			VALUES (NULLIF(?, ''), ?, ?, ?, ?)
		`, loan.ApplicationNumber, loan.Status, data, now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: application %s", common.ErrDuplicateEntry, loan.ApplicationNumber)
			}
			return fmt.Errorf("failed to insert loan: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get loan id: %w", err)
		}
		loan.ID = id
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO loans (id, application_number, status, record, created_at, updated_at)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			application_number = excluded.application_number,
			status = excluded.status,
			record = excluded.record,
			updated_at = excluded.updated_at
	`, loan.ID, loan.ApplicationNumber, loan.Status, data, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: application %s", common.ErrDuplicateEntry, loan.ApplicationNumber)
		}
		return fmt.Errorf("failed to save loan %d: %w", loan.ID, err)
	}
	return nil
}

// GetLoan retrieves a loan by ID.
func (s *SQLiteStorage) GetLoan(ctx context.Context, id int64) (*model.LoanRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	return s.getLoanTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getLoanTx(ctx context.Context, q queryable, id int64) (*model.LoanRecord, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, COALESCE(application_number, ''), status, record
		FROM loans
		WHERE id = ?
	`, id)

	loan, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loan %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// ListLoans returns loans ordered by ID.
func (s *SQLiteStorage) ListLoans(ctx context.Context, filter service.LoanFilter) ([]model.LoanRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, COALESCE(application_number, ''), status, record FROM loans`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loans []model.LoanRecord
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	return loans, rows.Err()
}

// UpdateLoanStatus changes a loan's lifecycle status.
func (s *SQLiteStorage) UpdateLoanStatus(ctx context.Context, id int64, status model.LoanStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE loans SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("loan %d", id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(row scanner) (*model.LoanRecord, error) {
	var (
		id        int64
		appNumber string
		status    string
		data      string
	)
	if err := row.Scan(&id, &appNumber, &status, &data); err != nil {
		return nil, err
	}

	var loan model.LoanRecord
	if err := json.Unmarshal([]byte(data), &loan); err != nil {
		return nil, fmt.Errorf("failed to decode loan %d: %w", id, err)
	}
	loan.ID = id
	loan.ApplicationNumber = appNumber
	loan.Status = model.LoanStatus(status)
	return &loan, nil
}

// encodeRecord stores the record without the columns kept alongside it.
func encodeRecord(loan *model.LoanRecord) (string, error) {
	stripped := *loan
	stripped.ID = 0
	stripped.ApplicationNumber = ""
	stripped.Status = ""
	data, err := json.Marshal(&stripped)
	if err != nil {
		return "", fmt.Errorf("failed to encode loan: %w", err)
	}
	return string(data), nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
