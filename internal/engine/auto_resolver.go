package engine

import (
	"context"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
)

// AutoResolver resolves every pending variance with the same decision.
// It backs non-interactive reviews.
type AutoResolver struct {
	decide func(model.Variance) reconcile.Action
}

// AcceptAllExtracted returns a resolver that adopts every extracted value.
// Variances whose values could not be read as numbers keep the original.
func AcceptAllExtracted() *AutoResolver {
	return &AutoResolver{decide: func(v model.Variance) reconcile.Action {
		if v.Unparsable {
			return reconcile.AcceptOriginal()
		}
		return reconcile.AcceptExtracted()
	}}
}

// KeepAllOriginal returns a resolver that keeps every application value.
func KeepAllOriginal() *AutoResolver {
	return &AutoResolver{decide: func(model.Variance) reconcile.Action {
		return reconcile.AcceptOriginal()
	}}
}

// ResolveVariances implements Resolver.
func (a *AutoResolver) ResolveVariances(ctx context.Context, session *reconcile.Session, pending []model.Variance) error {
	for _, v := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := session.Resolve(v.Field, a.decide(v)); err != nil {
			return err
		}
	}
	return nil
}

var _ Resolver = (*AutoResolver)(nil)
