// Package reconcile tracks a review of one application record against one
// extracted record: the variances found, the reviewer's decision for each,
// whether the review may complete, and the patch it produces.
package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/loanrecon/internal/catalog"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/rules"
	"github.com/Veraticus/loanrecon/internal/variance"
	"github.com/google/uuid"
)

type entry struct {
	variance   model.Variance
	field      model.FieldDescriptor
	rule       model.Rule
	resolution model.Resolution
}

// Session holds the variances between two records and the resolution of each.
// The records are treated as immutable snapshots for the session's lifetime.
// A Session is owned by a single workflow and is not safe for concurrent use.
type Session struct {
	application *model.LoanRecord
	extracted   *model.LoanRecord
	index       map[string]*entry
	ID          string
	entries     []*entry
}

// NewSession compares the two records under rs and returns a session with
// every variance unresolved.
func NewSession(application, extracted *model.LoanRecord, rs *rules.RuleSet) *Session {
	if rs == nil {
		rs = rules.New()
	}

	s := &Session{
		ID:          uuid.NewString(),
		application: application,
		extracted:   extracted,
		index:       make(map[string]*entry),
	}

	calc := variance.NewCalculator()
	for _, c := range catalog.Describe(application, extracted) {
		rule := rs.Lookup(c.Field.Path, c.Field.ValueType)
		v := calc.Compare(c.Application, c.Extracted, c.Field.ValueType, rule)
		if v == nil {
			continue
		}
		v.Field = c.Field.Path
		v.Label = c.Field.Label
		v.Context = c.Field.Context

		e := &entry{
			variance:   *v,
			field:      c.Field,
			rule:       rule,
			resolution: model.Resolution{Kind: model.Unresolved},
		}
		s.entries = append(s.entries, e)
		s.index[c.Field.Path] = e
	}

	slog.Debug("reconciliation session created", "session_id", s.ID, "variances", len(s.entries))
	return s
}

// Application returns the application record under review.
func (s *Session) Application() *model.LoanRecord {
	return s.application
}

// Extracted returns the extracted record under review.
func (s *Session) Extracted() *model.LoanRecord {
	return s.extracted
}

// Variances returns every variance in catalog order.
func (s *Session) Variances() []model.Variance {
	out := make([]model.Variance, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.variance)
	}
	return out
}

// Variance returns the variance for a field.
func (s *Session) Variance(field string) (model.Variance, bool) {
	e, ok := s.index[field]
	if !ok {
		return model.Variance{}, false
	}
	return e.variance, true
}

// Rule returns the effective rule the field was classified with.
func (s *Session) Rule(field string) (model.Rule, bool) {
	e, ok := s.index[field]
	if !ok {
		return model.Rule{}, false
	}
	return e.rule, true
}

// Resolution returns the current resolution for a field.
func (s *Session) Resolution(field string) (model.Resolution, bool) {
	e, ok := s.index[field]
	if !ok {
		return model.Resolution{}, false
	}
	return e.resolution, true
}

// Unresolved returns the variances still awaiting a decision.
func (s *Session) Unresolved() []model.Variance {
	var out []model.Variance
	for _, e := range s.entries {
		if e.resolution.Kind == model.Unresolved {
			out = append(out, e.variance)
		}
	}
	return out
}

// Resolve applies a reviewer decision to a field. Decisions may be replaced
// by later ones; repeating a decision leaves the session unchanged.
func (s *Session) Resolve(field string, a Action) error {
	e, ok := s.index[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	var res model.Resolution
	switch a.kind {
	case model.Edited:
		v, err := normalize(a.value, e.field)
		if err != nil {
			return err
		}
		res = model.Resolution{Kind: model.Edited, Value: v}
	case model.AcceptedExtracted:
		// An unparsable extracted value is adopted verbatim.
		v, err := normalize(e.variance.ExtractedValue, e.field)
		if err != nil {
			v = e.variance.ExtractedValue.Clone()
		}
		res = model.Resolution{Kind: model.AcceptedExtracted, Value: v}
	case model.AcceptedOriginal:
		res = model.Resolution{Kind: model.AcceptedOriginal}
	default:
		return fmt.Errorf("unsupported resolution %q for %s", a.kind, field)
	}

	e.resolution = res
	slog.Debug("variance resolved", "session_id", s.ID, "field", field, "resolution", res.Kind)
	return nil
}

// normalize checks a replacement value against the field's type. Numeric
// fields store a plain number; text fields store text.
func normalize(v *model.Value, f model.FieldDescriptor) (*model.Value, error) {
	if v == nil {
		return nil, fmt.Errorf("%w %s: value is required", ErrInvalidValue, f.Path)
	}
	if !f.ValueType.IsNumeric() {
		return model.Text(v.Literal()), nil
	}
	d, err := variance.ParseNumber(v)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %q is not a number", ErrInvalidValue, f.Path, v.Literal())
	}
	return model.NumberLiteral(d.String()), nil
}

// Outcomes lists every variance with its severity and resolution.
func (s *Session) Outcomes() []model.FieldOutcome {
	out := make([]model.FieldOutcome, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, model.FieldOutcome{
			Field:      e.field.Path,
			Severity:   e.variance.Severity,
			Resolution: e.resolution,
		})
	}
	return out
}

// Summary counts variances by severity and resolution.
type Summary struct {
	Total      int  `json:"total"`
	Critical   int  `json:"critical"`
	Warning    int  `json:"warning"`
	Info       int  `json:"info"`
	Resolved   int  `json:"resolved"`
	Unresolved int  `json:"unresolved"`
	Blocked    bool `json:"blocked"`
}

// Summary returns counts for the session's current state.
func (s *Session) Summary() Summary {
	sum := Summary{Total: len(s.entries), Blocked: s.IsBlocked()}
	for _, e := range s.entries {
		switch e.variance.Severity {
		case model.SeverityCritical:
			sum.Critical++
		case model.SeverityWarning:
			sum.Warning++
		default:
			sum.Info++
		}
		if e.resolution.Kind == model.Unresolved {
			sum.Unresolved++
		} else {
			sum.Resolved++
		}
	}
	return sum
}

// Finalize returns the merge patch for the session. While any blocking
// variance is unresolved it returns a *BlockedError and changes nothing.
func (s *Session) Finalize() (*model.LoanPatch, error) {
	if blocking := s.BlockingFields(); len(blocking) > 0 {
		return nil, &BlockedError{Fields: blocking}
	}
	return Build(s.application, s), nil
}
