package reconcile

import (
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/variance"
)

// Build assembles the partial update for every resolved field, shaped like
// the application record. Unresolved fields are omitted, as is any field
// whose effective value is the application value already stored.
func Build(application *model.LoanRecord, s *Session) *model.LoanPatch {
	patch := &model.LoanPatch{}
	borrowers := make(map[bool]*model.Borrower)

	for _, e := range s.entries {
		current := e.field.Lookup(application)
		value := effectiveValue(e.resolution, current)
		if value == nil || sameValue(current, value, e.field.ValueType) {
			continue
		}

		switch e.field.Context {
		case model.ContextLoan:
			(*model.LoanRecord)(patch).Set(e.field.Attribute, value)
		case model.ContextBorrower, model.ContextCoBorrower:
			co := e.field.Context == model.ContextCoBorrower
			b, ok := borrowers[co]
			if !ok {
				b = &model.Borrower{IsCoBorrower: co}
				borrowers[co] = b
			}
			b.Set(e.field.Attribute, value)
		case model.ContextVehicle:
			if patch.Vehicle == nil {
				patch.Vehicle = &model.VehicleDetails{}
			}
			patch.Vehicle.Set(e.field.Attribute, value)
		}
	}

	for _, co := range []bool{false, true} {
		if b, ok := borrowers[co]; ok {
			patch.Borrowers = append(patch.Borrowers, *b)
		}
	}
	return patch
}

func effectiveValue(res model.Resolution, current *model.Value) *model.Value {
	switch res.Kind {
	case model.Edited, model.AcceptedExtracted:
		return res.Value.Clone()
	case model.AcceptedOriginal:
		return current.Clone()
	default:
		return nil
	}
}

func sameValue(current, next *model.Value, vt model.ValueType) bool {
	if current == nil {
		return false
	}
	if vt.IsNumeric() {
		a, errA := variance.ParseNumber(current)
		b, errB := variance.ParseNumber(next)
		if errA == nil && errB == nil {
			return a.Equal(b)
		}
	}
	return current.Equal(next)
}
