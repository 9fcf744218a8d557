package engine

import (
	"context"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
	"github.com/Veraticus/loanrecon/internal/service"
)

// Store is the persistence the engine needs.
type Store interface {
	service.LoanStore
	service.RuleStore
}

// Resolver collects reviewer decisions for a session. It is called with the
// variances that still need attention and records its decisions through
// session.Resolve. Returning ErrReviewAborted ends the review without saving.
type Resolver interface {
	ResolveVariances(ctx context.Context, session *reconcile.Session, pending []model.Variance) error
}
