package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/loanrecon/internal/model"
)

// ApplyReconciliation applies the reconciliation's patch to the stored loan,
// records the reconciliation and adds a timeline entry, all in one transaction.
func (s *SQLiteStorage) ApplyReconciliation(ctx context.Context, r *model.ReconciliationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReconciliation(r); err != nil {
		return err
	}
	if r.FinalizedAt.IsZero() {
		r.FinalizedAt = time.Now().UTC()
	}

	patch := r.Patch
	if patch == nil {
		patch = &model.LoanPatch{}
	}
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}
	outcomes, err := json.Marshal(r.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to encode outcomes: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		loan, err := s.getLoanTx(ctx, tx, r.LoanID)
		if err != nil {
			return err
		}

		if !patch.IsEmpty() {
			loan.Apply(patch)
			data, err := encodeRecord(loan)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE loans SET record = ?, updated_at = ? WHERE id = ?
			`, data, r.FinalizedAt, r.LoanID); err != nil {
				return fmt.Errorf("failed to update loan: %w", err)
			}
		}

		var extractionID any
		if r.ExtractionID > 0 {
			extractionID = r.ExtractionID
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reconciliations
				(session_id, loan_id, extraction_id, operator, variance_count, critical_count, outcomes, patch, finalized_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.SessionID, r.LoanID, extractionID, r.Operator, r.VarianceCount, r.CriticalCount,
			string(outcomes), string(patchJSON), r.FinalizedAt); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("session %s already finalized: %w", r.SessionID, err)
			}
			return fmt.Errorf("failed to save reconciliation: %w", err)
		}

		event := &model.TimelineEvent{
			LoanID:    r.LoanID,
			Event:     reconciliationSummary(r, patch),
			User:      r.Operator,
			Type:      model.EventSuccess,
			CreatedAt: r.FinalizedAt,
		}
		if err := s.addTimelineEventTx(ctx, tx, event); err != nil {
			return err
		}

		slog.Debug("reconciliation applied",
			"loan_id", r.LoanID,
			"session_id", r.SessionID,
			"variances", r.VarianceCount)
		return nil
	})
}

func reconciliationSummary(r *model.ReconciliationRecord, patch *model.LoanPatch) string {
	if patch.IsEmpty() {
		return fmt.Sprintf("Variance review completed: %d variances, no changes", r.VarianceCount)
	}
	updated := 0
	for _, o := range r.Outcomes {
		if o.Resolution.Kind == model.Edited || o.Resolution.Kind == model.AcceptedExtracted {
			updated++
		}
	}
	return fmt.Sprintf("Variance review completed: %d variances, %d fields updated", r.VarianceCount, updated)
}

// GetReconciliations returns a loan's finalized reconciliations, oldest first.
func (s *SQLiteStorage) GetReconciliations(ctx context.Context, loanID int64) ([]model.ReconciliationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(loanID, "loan_id"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, loan_id, COALESCE(extraction_id, 0), COALESCE(operator, ''),
			variance_count, critical_count, outcomes, patch, finalized_at
		FROM reconciliations
		WHERE loan_id = ?
		ORDER BY finalized_at, id
	`, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.ReconciliationRecord
	for rows.Next() {
		var (
			r        model.ReconciliationRecord
			outcomes string
			patch    string
		)
		if err := rows.Scan(&r.SessionID, &r.LoanID, &r.ExtractionID, &r.Operator,
			&r.VarianceCount, &r.CriticalCount, &outcomes, &patch, &r.FinalizedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation: %w", err)
		}
		if err := json.Unmarshal([]byte(outcomes), &r.Outcomes); err != nil {
			return nil, fmt.Errorf("failed to decode outcomes: %w", err)
		}
		r.Patch = &model.LoanPatch{}
		if err := json.Unmarshal([]byte(patch), r.Patch); err != nil {
			return nil, fmt.Errorf("failed to decode patch: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
