// Package engine runs loan reviews: it fetches the stored application and the
// latest extraction, builds a reconciliation session, hands the variances to a
// resolver and persists the finalized result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/loanrecon/internal/common"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
	"github.com/Veraticus/loanrecon/internal/rules"
	"github.com/Veraticus/loanrecon/internal/service"
)

// ErrReviewAborted is returned when the resolver gives up before the review
// could be finalized. Nothing is persisted.
var ErrReviewAborted = errors.New("review aborted")

// Reviewer orchestrates variance reviews of stored loans.
type Reviewer struct {
	store     Store
	extractor service.Extractor
	resolver  Resolver
	operator  string
	maxRounds int
}

// Config holds configuration options for the reviewer.
type Config struct {
	// Operator is recorded on finalized reconciliations and timeline events.
	Operator string
	// MaxRounds bounds how often the resolver is re-invoked while blocking
	// variances remain unresolved.
	MaxRounds int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Operator:  "system",
		MaxRounds: 5,
	}
}

// New creates a reviewer with the default configuration. The extractor may be
// nil when only stored extractions are reviewed; the resolver may be nil for
// previews.
func New(store Store, extractor service.Extractor, resolver Resolver) *Reviewer {
	return NewWithConfig(store, extractor, resolver, DefaultConfig())
}

// NewWithConfig creates a reviewer with custom configuration.
func NewWithConfig(store Store, extractor service.Extractor, resolver Resolver, config Config) *Reviewer {
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultConfig().MaxRounds
	}
	if config.Operator == "" {
		config.Operator = DefaultConfig().Operator
	}
	return &Reviewer{
		store:     store,
		extractor: extractor,
		resolver:  resolver,
		operator:  config.Operator,
		maxRounds: config.MaxRounds,
	}
}

// Result is the outcome of a preview or a finalized review.
type Result struct {
	Loan       *model.LoanRecord
	Extraction *model.Extraction
	Session    *reconcile.Session
	// Record is set only for finalized reviews.
	Record *model.ReconciliationRecord
}

// ReviewOptions configures a single review.
type ReviewOptions struct {
	// Document, when set, is sent to the extraction service first and the
	// resulting extraction is reviewed instead of the stored one.
	Document     io.Reader
	DocumentName string
}

// Extract sends a document for the loan to the extraction service and stores
// the result. Extraction service errors are returned unchanged.
func (r *Reviewer) Extract(ctx context.Context, loanID int64, documentName string, document io.Reader) (*model.Extraction, error) {
	if r.extractor == nil {
		return nil, fmt.Errorf("%w: extraction service is not configured", common.ErrMissingConfig)
	}
	if _, err := r.store.GetLoan(ctx, loanID); err != nil {
		return nil, fmt.Errorf("failed to load loan %d: %w", loanID, err)
	}

	ext, err := r.extractor.Extract(ctx, documentName, document)
	if err != nil {
		return nil, err
	}
	ext.LoanID = loanID

	if err := r.store.SaveExtraction(ctx, ext); err != nil {
		return nil, fmt.Errorf("failed to save extraction: %w", err)
	}

	r.addEvent(ctx, &model.TimelineEvent{
		LoanID: loanID,
		Event: fmt.Sprintf("Document %s analyzed (%s, %.0f%% confidence)",
			ext.DocumentName, ext.DocumentType, ext.Confidence*100),
		Type: model.EventInfo,
	})

	slog.Info("Extraction stored",
		"loan_id", loanID,
		"extraction_id", ext.ID,
		"document", ext.DocumentName)
	return ext, nil
}

// Preview builds a session for the loan against its latest extraction
// without resolving or persisting anything.
func (r *Reviewer) Preview(ctx context.Context, loanID int64) (*Result, error) {
	loan, err := r.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan %d: %w", loanID, err)
	}

	ext, err := r.store.GetLatestExtraction(ctx, loanID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w %d", common.ErrNoExtraction, loanID)
		}
		return nil, fmt.Errorf("failed to load extraction for loan %d: %w", loanID, err)
	}

	return r.buildResult(ctx, loan, ext)
}

func (r *Reviewer) buildResult(ctx context.Context, loan *model.LoanRecord, ext *model.Extraction) (*Result, error) {
	rs, err := r.LoadRules(ctx)
	if err != nil {
		return nil, err
	}

	session := reconcile.NewSession(loan, ext.Record, rs)
	common.LogDebug("Session created", common.Fields{
		"loan_id":    loan.ID,
		"session_id": session.ID,
		"variances":  len(session.Variances()),
	})

	return &Result{Loan: loan, Extraction: ext, Session: session}, nil
}

// LoadRules returns the stored rule configuration, or the built-in defaults
// when none has been saved.
func (r *Reviewer) LoadRules(ctx context.Context) (*rules.RuleSet, error) {
	stored, err := r.store.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation rules: %w", err)
	}
	if len(stored) == 0 {
		return rules.New(), nil
	}
	rs, err := rules.FromMap(stored)
	if err != nil {
		return nil, fmt.Errorf("stored validation rules are invalid: %w", err)
	}
	return rs, nil
}

// Review runs a full review of the loan. The resolver is invoked with every
// unresolved variance, then again with the blocking ones for as long as
// finalizing is blocked, up to the configured number of rounds. The finalized
// patch and its audit record are persisted together.
func (r *Reviewer) Review(ctx context.Context, loanID int64, opts ReviewOptions) (*Result, error) {
	if r.resolver == nil {
		return nil, fmt.Errorf("%w: no resolver configured", common.ErrMissingConfig)
	}

	if opts.Document != nil {
		if _, err := r.Extract(ctx, loanID, opts.DocumentName, opts.Document); err != nil {
			return nil, err
		}
	}

	result, err := r.Preview(ctx, loanID)
	if err != nil {
		return nil, err
	}
	session := result.Session

	slog.Info("Starting review",
		"loan_id", loanID,
		"session_id", session.ID,
		"variances", len(session.Variances()))

	patch, err := r.resolve(ctx, session)
	if err != nil {
		return nil, err
	}

	sum := session.Summary()
	record := &model.ReconciliationRecord{
		SessionID:     session.ID,
		LoanID:        loanID,
		ExtractionID:  result.Extraction.ID,
		Operator:      r.operator,
		Outcomes:      session.Outcomes(),
		Patch:         patch,
		VarianceCount: sum.Total,
		CriticalCount: sum.Critical,
		FinalizedAt:   time.Now().UTC(),
	}
	if err := r.store.ApplyReconciliation(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}

	slog.Info("Review finalized",
		"loan_id", loanID,
		"session_id", session.ID,
		"variances", sum.Total,
		"patch_empty", patch.IsEmpty())

	result.Record = record
	return result, nil
}

func (r *Reviewer) resolve(ctx context.Context, session *reconcile.Session) (*model.LoanPatch, error) {
	pending := session.Unresolved()
	for round := 1; ; round++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if len(pending) > 0 {
			if err := r.resolver.ResolveVariances(ctx, session, pending); err != nil {
				return nil, err
			}
		}

		patch, err := session.Finalize()
		if err == nil {
			return patch, nil
		}

		var blocked *reconcile.BlockedError
		if !errors.As(err, &blocked) {
			return nil, err
		}
		if round >= r.maxRounds {
			return nil, fmt.Errorf("%w: %w", ErrReviewAborted, err)
		}

		slog.Warn("Review blocked", "session_id", session.ID, "blocking", len(blocked.Fields))
		pending = blockingVariances(session, blocked)
	}
}

func blockingVariances(session *reconcile.Session, blocked *reconcile.BlockedError) []model.Variance {
	out := make([]model.Variance, 0, len(blocked.Fields))
	for _, f := range blocked.Fields {
		if v, ok := session.Variance(f.Field); ok {
			out = append(out, v)
		}
	}
	return out
}

// addEvent records a timeline entry. Failures are logged, not returned; the
// timeline is informational.
func (r *Reviewer) addEvent(ctx context.Context, event *model.TimelineEvent) {
	if event.User == "" {
		event.User = r.operator
	}
	if err := r.store.AddTimelineEvent(ctx, event); err != nil {
		common.LogError(err, "Failed to add timeline event", common.Fields{
			"loan_id": event.LoanID,
			"type":    event.Type,
		})
	}
}
