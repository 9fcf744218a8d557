// Package service defines the interfaces for the collaborators of the reconciliation engine.
package service

import (
	"context"
	"io"
	"time"

	"github.com/Veraticus/loanrecon/internal/model"
)

// LoanFilter defines filtering options for loan queries.
type LoanFilter struct {
	Status model.LoanStatus
	Limit  int
	Offset int
}

// LoanStore persists loan records and everything recorded against them.
type LoanStore interface {
	// Loan operations
	SaveLoan(ctx context.Context, loan *model.LoanRecord) error
	GetLoan(ctx context.Context, id int64) (*model.LoanRecord, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]model.LoanRecord, error)
	UpdateLoanStatus(ctx context.Context, id int64, status model.LoanStatus) error

	// Extraction operations
	SaveExtraction(ctx context.Context, extraction *model.Extraction) error
	GetLatestExtraction(ctx context.Context, loanID int64) (*model.Extraction, error)

	// Reconciliation operations. ApplyReconciliation applies the record's patch
	// to the stored loan and stores the record in one transaction.
	ApplyReconciliation(ctx context.Context, record *model.ReconciliationRecord) error
	GetReconciliations(ctx context.Context, loanID int64) ([]model.ReconciliationRecord, error)

	// Timeline operations
	AddTimelineEvent(ctx context.Context, event *model.TimelineEvent) error
	GetTimeline(ctx context.Context, loanID int64) ([]model.TimelineEvent, error)
}

// RuleStore is the durable form of the validation rule configuration.
// It only offers get/set of the flat rule map.
type RuleStore interface {
	LoadRules(ctx context.Context) (map[string]model.Rule, error)
	SaveRules(ctx context.Context, rules map[string]model.Rule) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	LoanStore
	RuleStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Extractor reads a loan document and returns the structured record found in it.
type Extractor interface {
	Extract(ctx context.Context, documentName string, document io.Reader) (*model.Extraction, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
