package model

// Severity ranks how significant a variance is.
type Severity string

// Severities, least to most severe.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank returns a comparable weight; higher is more severe. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Rule configures how a field's variance is classified.
// Numeric fields use the threshold pairs; text fields only use MismatchSeverity.
// Nil thresholds inherit from the type default rule.
type Rule struct {
	WarningPercentage  *float64 `json:"warning_percentage,omitempty" yaml:"warning_percentage,omitempty" validate:"omitempty,gte=0"`
	CriticalPercentage *float64 `json:"critical_percentage,omitempty" yaml:"critical_percentage,omitempty" validate:"omitempty,gte=0"`
	WarningAbsolute    *float64 `json:"warning_absolute,omitempty" yaml:"warning_absolute,omitempty" validate:"omitempty,gte=0"`
	CriticalAbsolute   *float64 `json:"critical_absolute,omitempty" yaml:"critical_absolute,omitempty" validate:"omitempty,gte=0"`
	MismatchSeverity   Severity `json:"mismatch_severity,omitempty" yaml:"mismatch_severity,omitempty" validate:"omitempty,oneof=info warning critical"`
	BlockProgress      bool     `json:"block_progress,omitempty" yaml:"block_progress,omitempty"`
}

// Float returns a pointer to f, for building rules in literals.
func Float(f float64) *float64 {
	return &f
}
