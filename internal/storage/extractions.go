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
)

// SaveExtraction stores the record extracted from a loan document.
func (s *SQLiteStorage) SaveExtraction(ctx context.Context, e *model.Extraction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExtraction(e); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	record, err := json.Marshal(e.Record)
	if err != nil {
		return fmt.Errorf("failed to encode extracted record: %w", err)
	}
	errs, err := json.Marshal(e.Errors)
	if err != nil {
		return fmt.Errorf("failed to encode extraction errors: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO extractions (loan_id, document_name, document_type, confidence, record, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.LoanID, e.DocumentName, e.DocumentType, e.Confidence, string(record), string(errs), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get extraction id: %w", err)
	}
	e.ID = id
	return nil
}

// GetLatestExtraction returns the most recent extraction for a loan.
func (s *SQLiteStorage) GetLatestExtraction(ctx context.Context, loanID int64) (*model.Extraction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(loanID, "loan_id"); err != nil {
		return nil, err
	}

	var (
		e      model.Extraction
		docTyp sql.NullString
		record string
		errs   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, loan_id, document_name, document_type, confidence, record, errors, created_at
		FROM extractions
		WHERE loan_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, loanID).Scan(&e.ID, &e.LoanID, &e.DocumentName, &docTyp, &e.Confidence, &record, &errs, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("extraction for loan %d: %w", loanID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}

	e.DocumentType = docTyp.String
	if err := json.Unmarshal([]byte(record), &e.Record); err != nil {
		return nil, fmt.Errorf("failed to decode extracted record: %w", err)
	}
	if errs.Valid && errs.String != "" {
		if err := json.Unmarshal([]byte(errs.String), &e.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode extraction errors: %w", err)
		}
	}
	return &e, nil
}
