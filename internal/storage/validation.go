// Package storage provides the data persistence layer for loan reconciliation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/loanrecon/internal/model"
)

// Validation errors.
var (
	ErrNilContext            = errors.New("context cannot be nil")
	ErrEmptyString           = errors.New("string parameter cannot be empty")
	ErrNilParameter          = errors.New("parameter cannot be nil")
	ErrInvalidID             = errors.New("invalid id")
	ErrInvalidStatus         = errors.New("invalid loan status")
	ErrInvalidExtraction     = errors.New("invalid extraction")
	ErrInvalidReconciliation = errors.New("invalid reconciliation")
	ErrInvalidEvent          = errors.New("invalid timeline event")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures an id parameter refers to a stored row.
func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidID, paramName, id)
	}
	return nil
}

func validateStatus(status model.LoanStatus) error {
	switch status {
	case model.LoanPending, model.LoanInReview, model.LoanApproved,
		model.LoanRejected, model.LoanFunded, model.LoanClosed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

// validateLoan validates a loan record before it is saved.
func validateLoan(loan *model.LoanRecord) error {
	if loan == nil {
		return fmt.Errorf("%w: loan", ErrNilParameter)
	}
	if loan.ID < 0 {
		return fmt.Errorf("%w: loan id %d", ErrInvalidID, loan.ID)
	}
	if loan.Status != "" {
		return validateStatus(loan.Status)
	}
	return nil
}

// validateExtraction validates an extraction.
func validateExtraction(e *model.Extraction) error {
	if e == nil {
		return fmt.Errorf("%w: extraction", ErrNilParameter)
	}
	if err := validateID(e.LoanID, "loan_id"); err != nil {
		return err
	}
	if e.Record == nil {
		return fmt.Errorf("%w: missing record", ErrInvalidExtraction)
	}
	if strings.TrimSpace(e.DocumentName) == "" {
		return fmt.Errorf("%w: missing document name", ErrInvalidExtraction)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidExtraction)
	}
	return nil
}

// validateReconciliation validates a finalized reconciliation record.
func validateReconciliation(r *model.ReconciliationRecord) error {
	if r == nil {
		return fmt.Errorf("%w: reconciliation", ErrNilParameter)
	}
	if err := validateID(r.LoanID, "loan_id"); err != nil {
		return err
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("%w: missing session id", ErrInvalidReconciliation)
	}
	return nil
}

// validateEvent validates a timeline event.
func validateEvent(e *model.TimelineEvent) error {
	if e == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if err := validateID(e.LoanID, "loan_id"); err != nil {
		return err
	}
	if strings.TrimSpace(e.Event) == "" {
		return fmt.Errorf("%w: missing event text", ErrInvalidEvent)
	}
	switch e.Type {
	case "", model.EventInfo, model.EventSuccess, model.EventWarning, model.EventError:
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
}
