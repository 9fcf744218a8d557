package model

// ValueType is the comparison semantics of a field.
type ValueType string

// Value types.
const (
	TypeCurrency   ValueType = "currency"
	TypePercentage ValueType = "percentage"
	TypeNumber     ValueType = "number"
	TypeText       ValueType = "text"
)

// IsNumeric reports whether values of this type are compared as numbers.
func (t ValueType) IsNumeric() bool {
	return t == TypeCurrency || t == TypePercentage || t == TypeNumber
}

// FieldContext tells where in the nested record a field lives.
type FieldContext string

// Field contexts.
const (
	ContextLoan       FieldContext = "loan"
	ContextBorrower   FieldContext = "borrower"
	ContextCoBorrower FieldContext = "coBorrower"
	ContextVehicle    FieldContext = "vehicle"
)

// FieldDescriptor describes one comparable field.
// Path is the field's unique key (also its rule key); Attribute is the
// JSON attribute within the sub-record named by Context.
type FieldDescriptor struct {
	Path      string       `json:"path"`
	Attribute string       `json:"attribute"`
	Label     string       `json:"label"`
	ValueType ValueType    `json:"value_type"`
	Context   FieldContext `json:"context"`
}

// Lookup returns the field's value in r, or nil when it or its sub-record is absent.
func (d FieldDescriptor) Lookup(r *LoanRecord) *Value {
	if r == nil {
		return nil
	}
	switch d.Context {
	case ContextLoan:
		return r.Get(d.Attribute)
	case ContextBorrower:
		if b := r.PrimaryBorrower(); b != nil {
			return b.Get(d.Attribute)
		}
	case ContextCoBorrower:
		if b := r.CoBorrower(); b != nil {
			return b.Get(d.Attribute)
		}
	case ContextVehicle:
		if r.Vehicle != nil {
			return r.Vehicle.Get(d.Attribute)
		}
	}
	return nil
}
