// Package variance detects and classifies differences between a stored value
// and a document-extracted value.
package variance

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNotNumeric is returned when a value cannot be coerced to a number.
var ErrNotNumeric = errors.New("value is not numeric")

var (
	nonNumeric = regexp.MustCompile(`[^0-9.\-]+`)
	hundred    = decimal.NewFromInt(100)
)

// ParseNumber coerces a value to a decimal, stripping formatting characters
// such as currency symbols, thousands separators and percent signs.
func ParseNumber(v *model.Value) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, ErrNotNumeric
	}
	switch v.Kind() {
	case model.KindNumber:
		d, err := decimal.NewFromString(v.Literal())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, v.Literal())
		}
		return d, nil
	case model.KindText:
		cleaned := nonNumeric.ReplaceAllString(v.Literal(), "")
		if cleaned == "" {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, v.Literal())
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, v.Literal())
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, v.Literal())
	}
}

// Calculator compares pairs of values under a rule.
type Calculator struct {
	format *Formatter
	fold   cases.Caser
}

// NewCalculator returns a Calculator that formats values for English display.
func NewCalculator() *Calculator {
	return &Calculator{
		format: NewFormatter(language.English),
		fold:   cases.Fold(),
	}
}

// Compare returns the variance between the application and extracted values,
// or nil when there is none. An absent extracted value never yields a variance.
// The rule is used as given; callers resolve inheritance beforehand.
func (c *Calculator) Compare(application, extracted *model.Value, vt model.ValueType, rule model.Rule) *model.Variance {
	if extracted == nil {
		return nil
	}

	var v *model.Variance
	if vt.IsNumeric() {
		v = c.compareNumeric(application, extracted, rule)
	} else {
		v = c.compareText(application, extracted, rule)
	}
	if v == nil {
		return nil
	}

	v.ApplicationValue = application.Clone()
	v.ExtractedValue = extracted.Clone()
	v.ValueType = vt
	v.FormattedApplication = c.format.Value(application, vt)
	v.FormattedExtracted = c.format.Value(extracted, vt)
	return v
}

func (c *Calculator) compareNumeric(application, extracted *model.Value, rule model.Rule) *model.Variance {
	a, errA := ParseNumber(application)
	b, errB := ParseNumber(extracted)
	if errA != nil || errB != nil {
		return &model.Variance{Severity: mismatchSeverity(rule), Unparsable: true}
	}

	absolute := a.Sub(b).Abs()
	// Relative to the magnitude of the application value so a negative
	// base still yields a non-negative percentage.
	percentage := decimal.Zero
	if !a.IsZero() {
		percentage = absolute.Div(a.Abs()).Mul(hundred)
	}

	severity, ok := classify(absolute, percentage, rule)
	if !ok {
		return nil
	}
	return &model.Variance{
		Severity:           severity,
		VarianceAbsolute:   absolute.InexactFloat64(),
		VariancePercentage: percentage.InexactFloat64(),
	}
}

// classify applies the rule's thresholds, most severe first. Equal values
// never classify, whatever the thresholds.
func classify(absolute, percentage decimal.Decimal, rule model.Rule) (model.Severity, bool) {
	if absolute.IsZero() {
		return "", false
	}
	switch {
	case exceeds(percentage, rule.CriticalPercentage) || exceeds(absolute, rule.CriticalAbsolute):
		return model.SeverityCritical, true
	case exceeds(percentage, rule.WarningPercentage) || exceeds(absolute, rule.WarningAbsolute):
		return model.SeverityWarning, true
	default:
		return model.SeverityInfo, true
	}
}

// exceeds reports whether d reaches the threshold. A nil threshold never triggers.
func exceeds(d decimal.Decimal, threshold *float64) bool {
	if threshold == nil {
		return false
	}
	return d.GreaterThanOrEqual(decimal.NewFromFloat(*threshold))
}

func (c *Calculator) compareText(application, extracted *model.Value, rule model.Rule) *model.Variance {
	if c.normalize(application) == c.normalize(extracted) {
		return nil
	}
	return &model.Variance{Severity: mismatchSeverity(rule)}
}

func (c *Calculator) normalize(v *model.Value) string {
	return c.fold.String(strings.TrimSpace(v.Literal()))
}

func mismatchSeverity(rule model.Rule) model.Severity {
	if rule.MismatchSeverity.Valid() {
		return rule.MismatchSeverity
	}
	return model.SeverityWarning
}
