package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/loanrecon/internal/common"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/service"
)

// BatchItem is one loan's result within a batch preview.
type BatchItem struct {
	Err    error
	Result *Result
	Loan   model.LoanRecord
}

// BatchReport summarizes a batch preview.
type BatchReport struct {
	Items        []BatchItem
	Reviewed     int
	Skipped      int
	Failed       int
	Blocked      int
	WithVariance int
}

// Batch previews every loan matching the filter. Loans without an extraction
// are counted as skipped; other per-loan failures are recorded on the item
// and do not stop the batch. onProgress, if set, is called after each loan.
func (r *Reviewer) Batch(ctx context.Context, filter service.LoanFilter, onProgress func(done, total int)) (*BatchReport, error) {
	loans, err := r.store.ListLoans(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	report := &BatchReport{Items: make([]BatchItem, 0, len(loans))}
	for i, loan := range loans {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		item := BatchItem{Loan: loan}
		item.Result, item.Err = r.Preview(ctx, loan.ID)
		switch {
		case errors.Is(item.Err, common.ErrNoExtraction):
			report.Skipped++
		case item.Err != nil:
			report.Failed++
			common.LogError(item.Err, "Batch preview failed", common.Fields{"loan_id": loan.ID})
		default:
			report.Reviewed++
			sum := item.Result.Session.Summary()
			if sum.Total > 0 {
				report.WithVariance++
			}
			if sum.Blocked {
				report.Blocked++
			}
		}
		report.Items = append(report.Items, item)

		if onProgress != nil {
			onProgress(i+1, len(loans))
		}
	}

	common.LogInfo("Batch preview complete", common.Fields{
		"loans":    len(loans),
		"reviewed": report.Reviewed,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	})
	return report, nil
}
