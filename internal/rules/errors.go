package rules

import (
	"errors"
	"fmt"
)

// Rule set errors.
var (
	ErrDuplicateRule = errors.New("rule already exists")
	ErrProtectedRule = errors.New("rule is protected")
	ErrRuleNotFound  = errors.New("rule not found")
	ErrInvalidRule   = errors.New("invalid rule")
)

// DuplicateRuleError is returned when creating a rule whose key is taken.
type DuplicateRuleError struct {
	Key string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q already exists", e.Key)
}

// Is implements errors.Is support.
func (e *DuplicateRuleError) Is(target error) bool {
	return target == ErrDuplicateRule
}

// ProtectedRuleError is returned when removing a type-default rule.
type ProtectedRuleError struct {
	Key string
}

func (e *ProtectedRuleError) Error() string {
	return fmt.Sprintf("rule %q is a type default and cannot be removed", e.Key)
}

// Is implements errors.Is support.
func (e *ProtectedRuleError) Is(target error) bool {
	return target == ErrProtectedRule
}

// ValidationError describes why a rule was rejected.
type ValidationError struct {
	Key     string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid rule %q: %s %s", e.Key, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid rule %q: %s", e.Key, e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRule
}
