// Package rules holds the configurable severity rules used to classify variances.
package rules

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/loanrecon/internal/model"
)

// Type-default rule keys. These always exist in a RuleSet.
const (
	KeyDefaultCurrency   = "default_currency"
	KeyDefaultPercentage = "default_percentage"
	KeyDefaultNumber     = "default_number"
	KeyDefaultText       = "default_text"
)

// DefaultKeys lists the protected type-default keys.
var DefaultKeys = []string{KeyDefaultCurrency, KeyDefaultPercentage, KeyDefaultNumber, KeyDefaultText}

// Fallback is used when neither a field rule nor a type default supplies a setting.
var Fallback = model.Rule{
	WarningPercentage:  model.Float(10),
	CriticalPercentage: model.Float(20),
	WarningAbsolute:    model.Float(1000),
	CriticalAbsolute:   model.Float(5000),
	MismatchSeverity:   model.SeverityWarning,
}

// BuiltinDefaults returns fresh copies of the four built-in type-default rules.
func BuiltinDefaults() map[string]model.Rule {
	return map[string]model.Rule{
		KeyDefaultCurrency: {
			WarningPercentage:  model.Float(5),
			CriticalPercentage: model.Float(10),
			WarningAbsolute:    model.Float(500),
			CriticalAbsolute:   model.Float(2000),
			MismatchSeverity:   model.SeverityWarning,
		},
		KeyDefaultPercentage: {
			WarningPercentage:  model.Float(5),
			CriticalPercentage: model.Float(10),
			WarningAbsolute:    model.Float(0.25),
			CriticalAbsolute:   model.Float(1),
			MismatchSeverity:   model.SeverityWarning,
		},
		KeyDefaultNumber: {
			WarningPercentage:  model.Float(5),
			CriticalPercentage: model.Float(10),
			WarningAbsolute:    model.Float(10),
			CriticalAbsolute:   model.Float(50),
			MismatchSeverity:   model.SeverityWarning,
		},
		KeyDefaultText: {
			MismatchSeverity: model.SeverityInfo,
		},
	}
}

// DefaultKeyFor returns the type-default key for a value type.
func DefaultKeyFor(vt model.ValueType) string {
	switch vt {
	case model.TypeCurrency:
		return KeyDefaultCurrency
	case model.TypePercentage:
		return KeyDefaultPercentage
	case model.TypeNumber:
		return KeyDefaultNumber
	default:
		return KeyDefaultText
	}
}

// IsDefaultKey reports whether key names a protected type-default rule.
func IsDefaultKey(key string) bool {
	for _, k := range DefaultKeys {
		if k == key {
			return true
		}
	}
	return false
}

// RuleSet maps field paths and type-default keys to rules.
// A RuleSet is a plain value owned by whoever built it; it is not safe for
// concurrent mutation.
type RuleSet struct {
	rules map[string]model.Rule
}

// New returns a RuleSet holding only the built-in defaults.
func New() *RuleSet {
	return &RuleSet{rules: BuiltinDefaults()}
}

// FromMap builds a RuleSet from a flat configuration map. Missing default
// keys are filled with the built-in defaults; every rule is validated.
func FromMap(m map[string]model.Rule) (*RuleSet, error) {
	rs := New()
	for key, rule := range m {
		if err := Validate(key, rule); err != nil {
			return nil, err
		}
		rs.rules[key] = rule
	}
	return rs, nil
}

// Lookup resolves the effective rule for a field. The matched rule is the
// exact field-path entry, else the type default, else Fallback. Thresholds
// and mismatch severity the matched rule leaves unset are inherited from the
// type default and then from Fallback. BlockProgress comes from the matched
// rule only.
func (rs *RuleSet) Lookup(fieldPath string, vt model.ValueType) model.Rule {
	defaultKey := DefaultKeyFor(vt)
	typeDefault, hasDefault := rs.rules[defaultKey]

	var matched model.Rule
	switch {
	case rs.has(fieldPath) && !IsDefaultKey(fieldPath):
		matched = rs.rules[fieldPath]
	case hasDefault:
		matched = typeDefault
	default:
		slog.Debug("no type default rule, using fallback", "key", defaultKey)
		return Fallback
	}

	effective := matched
	if hasDefault {
		effective = inherit(effective, typeDefault)
	}
	return inherit(effective, Fallback)
}

func (rs *RuleSet) has(key string) bool {
	_, ok := rs.rules[key]
	return ok
}

func inherit(r, parent model.Rule) model.Rule {
	if r.WarningPercentage == nil {
		r.WarningPercentage = parent.WarningPercentage
	}
	if r.CriticalPercentage == nil {
		r.CriticalPercentage = parent.CriticalPercentage
	}
	if r.WarningAbsolute == nil {
		r.WarningAbsolute = parent.WarningAbsolute
	}
	if r.CriticalAbsolute == nil {
		r.CriticalAbsolute = parent.CriticalAbsolute
	}
	if r.MismatchSeverity == "" {
		r.MismatchSeverity = parent.MismatchSeverity
	}
	return r
}

// Get returns the rule stored under key, without inheritance.
func (rs *RuleSet) Get(key string) (model.Rule, bool) {
	r, ok := rs.rules[key]
	return r, ok
}

// Create adds a new field-specific rule. It fails with DuplicateRuleError
// if the key already exists.
func (rs *RuleSet) Create(fieldPath string, rule model.Rule) error {
	if rs.has(fieldPath) {
		return &DuplicateRuleError{Key: fieldPath}
	}
	return rs.Upsert(fieldPath, rule)
}

// Upsert adds or replaces the rule stored under key.
func (rs *RuleSet) Upsert(key string, rule model.Rule) error {
	if err := Validate(key, rule); err != nil {
		return err
	}
	rs.rules[key] = rule
	return nil
}

// Remove deletes a field-specific rule. Default keys are protected.
func (rs *RuleSet) Remove(fieldPath string) error {
	if IsDefaultKey(fieldPath) {
		return &ProtectedRuleError{Key: fieldPath}
	}
	if !rs.has(fieldPath) {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, fieldPath)
	}
	delete(rs.rules, fieldPath)
	return nil
}

// Reset restores the built-in defaults and discards every field-specific rule.
func (rs *RuleSet) Reset() {
	rs.rules = BuiltinDefaults()
}

// Keys returns all rule keys, defaults first, then field keys sorted.
func (rs *RuleSet) Keys() []string {
	keys := make([]string, 0, len(rs.rules))
	keys = append(keys, DefaultKeys...)
	var fields []string
	for k := range rs.rules {
		if !IsDefaultKey(k) {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return append(keys, fields...)
}

// Snapshot returns a copy of the flat configuration map.
func (rs *RuleSet) Snapshot() map[string]model.Rule {
	out := make(map[string]model.Rule, len(rs.rules))
	for k, v := range rs.rules {
		out[k] = v
	}
	return out
}

// Len returns the number of rules, defaults included.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}
