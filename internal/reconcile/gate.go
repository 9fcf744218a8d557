package reconcile

import "github.com/Veraticus/loanrecon/internal/model"

// IsBlocked reports whether an unresolved critical variance whose rule sets
// BlockProgress remains. Resolved fields never block, whatever their severity.
func (s *Session) IsBlocked() bool {
	for _, e := range s.entries {
		if blocks(e) {
			return true
		}
	}
	return false
}

// BlockingFields lists the fields that currently block finalizing.
func (s *Session) BlockingFields() []BlockingField {
	var out []BlockingField
	for _, e := range s.entries {
		if blocks(e) {
			out = append(out, BlockingField{
				Field:    e.field.Path,
				Label:    e.field.Label,
				Severity: e.variance.Severity,
			})
		}
	}
	return out
}

func blocks(e *entry) bool {
	return e.resolution.Kind == model.Unresolved &&
		e.variance.Severity == model.SeverityCritical &&
		e.rule.BlockProgress
}
