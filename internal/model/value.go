package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies which JSON scalar a Value holds.
type ValueKind int

const (
	// KindText is a JSON string.
	KindText ValueKind = iota
	// KindNumber is a JSON number.
	KindNumber
	// KindBool is a JSON boolean.
	KindBool
)

// Value is a scalar record value as it appeared in JSON.
// The literal is preserved so that formatted strings such as "$44,500"
// can be coerced later by whoever knows the field's type.
type Value struct {
	literal string
	kind    ValueKind
}

// Text returns a string value.
func Text(s string) *Value {
	return &Value{kind: KindText, literal: s}
}

// Number returns a numeric value.
func Number(f float64) *Value {
	return &Value{kind: KindNumber, literal: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Int returns a numeric value from an integer.
func Int(i int64) *Value {
	return &Value{kind: KindNumber, literal: strconv.FormatInt(i, 10)}
}

// NumberLiteral returns a numeric value from an already formatted decimal literal.
func NumberLiteral(s string) *Value {
	return &Value{kind: KindNumber, literal: s}
}

// Bool returns a boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBool, literal: strconv.FormatBool(b)}
}

// Kind reports the JSON scalar kind.
func (v *Value) Kind() ValueKind {
	return v.kind
}

// IsNumber reports whether the value was a JSON number.
func (v *Value) IsNumber() bool {
	return v != nil && v.kind == KindNumber
}

// Literal returns the raw textual form of the value.
func (v *Value) Literal() string {
	if v == nil {
		return ""
	}
	return v.literal
}

// String implements fmt.Stringer.
func (v *Value) String() string {
	return v.Literal()
}

// Equal reports whether two values have the same kind and literal.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.kind == other.kind && v.literal == other.literal
}

// Clone returns a copy of the value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// MarshalJSON writes the value back as the JSON scalar it came from.
func (v *Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber, KindBool:
		return []byte(v.literal), nil
	default:
		return json.Marshal(v.literal)
	}
}

// UnmarshalJSON accepts any JSON scalar. Objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty value")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("invalid string value: %w", err)
		}
		v.kind = KindText
		v.literal = s
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("invalid boolean value: %w", err)
		}
		v.kind = KindBool
		v.literal = strconv.FormatBool(b)
	case 'n':
		// null leaves the value untouched; pointer fields stay nil.
		return nil
	case '{', '[':
		return fmt.Errorf("expected scalar value, got %q", trimmed[:1])
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("invalid number value: %w", err)
		}
		v.kind = KindNumber
		v.literal = n.String()
	}
	return nil
}
