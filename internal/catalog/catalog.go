// Package catalog enumerates the comparable fields of a loan record.
package catalog

import (
	"github.com/Veraticus/loanrecon/internal/model"
)

var fields = buildFields()

func buildFields() []model.FieldDescriptor {
	out := []model.FieldDescriptor{
		loan(model.AttrLoanAmount, "Loan Amount", model.TypeCurrency),
		loan(model.AttrInterestRate, "Interest Rate", model.TypePercentage),
		loan(model.AttrLoanTermMonths, "Loan Term (months)", model.TypeNumber),
		loan(model.AttrMonthlyPayment, "Monthly Payment", model.TypeCurrency),
		loan(model.AttrDownPayment, "Down Payment", model.TypeCurrency),
		loan(model.AttrVehiclePrice, "Vehicle Price", model.TypeCurrency),
		loan(model.AttrLoanToValue, "Loan to Value", model.TypePercentage),

		vehicle(model.AttrMake, "make", "Vehicle Make", model.TypeText),
		vehicle(model.AttrModel, "model", "Vehicle Model", model.TypeText),
		vehicle(model.AttrYear, "year", "Vehicle Year", model.TypeNumber),
		vehicle(model.AttrVIN, "vin", "Vehicle VIN", model.TypeText),
		vehicle(model.AttrColor, "color", "Vehicle Color", model.TypeText),
		vehicle(model.AttrMileage, "mileage", "Vehicle Mileage", model.TypeNumber),
		vehicle(model.AttrCondition, "condition", "Vehicle Condition", model.TypeText),
		vehicle(model.AttrVehicleValue, "value", "Vehicle Value", model.TypeCurrency),
	}

	people := []struct {
		prefix  string
		label   string
		context model.FieldContext
	}{
		{prefix: "borrower_", label: "Borrower", context: model.ContextBorrower},
		{prefix: "coBorrower_", label: "Co-Borrower", context: model.ContextCoBorrower},
	}
	personal := []struct {
		attr  string
		label string
		vt    model.ValueType
	}{
		{model.AttrFullName, "Name", model.TypeText},
		{model.AttrPhone, "Phone", model.TypeText},
		{model.AttrEmail, "Email", model.TypeText},
		{model.AttrAnnualIncome, "Annual Income", model.TypeCurrency},
		{model.AttrCreditScore, "Credit Score", model.TypeNumber},
		{model.AttrEmploymentStatus, "Employment Status", model.TypeText},
		{model.AttrEmployer, "Employer", model.TypeText},
		{model.AttrYearsAtJob, "Years at Job", model.TypeNumber},
	}
	for _, p := range people {
		for _, f := range personal {
			out = append(out, model.FieldDescriptor{
				Path:      p.prefix + f.attr,
				Attribute: f.attr,
				Label:     p.label + " " + f.label,
				ValueType: f.vt,
				Context:   p.context,
			})
		}
	}
	return out
}

func loan(attr, label string, vt model.ValueType) model.FieldDescriptor {
	return model.FieldDescriptor{Path: attr, Attribute: attr, Label: label, ValueType: vt, Context: model.ContextLoan}
}

func vehicle(attr, key, label string, vt model.ValueType) model.FieldDescriptor {
	return model.FieldDescriptor{Path: "vehicle_" + key, Attribute: attr, Label: label, ValueType: vt, Context: model.ContextVehicle}
}

// Fields returns every comparable field in display order: loan, vehicle,
// borrower, then co-borrower.
func Fields() []model.FieldDescriptor {
	out := make([]model.FieldDescriptor, len(fields))
	copy(out, fields)
	return out
}

// Lookup returns the descriptor for a field path.
func Lookup(path string) (model.FieldDescriptor, bool) {
	for _, f := range fields {
		if f.Path == path {
			return f, true
		}
	}
	return model.FieldDescriptor{}, false
}

// Comparable pairs a field with its values in both records.
type Comparable struct {
	Application *model.Value
	Extracted   *model.Value
	Field       model.FieldDescriptor
}

// Describe returns the fields present in both records, with their values.
// A field missing from either side is skipped; absence is not a mismatch.
func Describe(application, extracted *model.LoanRecord) []Comparable {
	var out []Comparable
	for _, f := range fields {
		app := f.Lookup(application)
		ext := f.Lookup(extracted)
		if isAbsent(app) || isAbsent(ext) {
			continue
		}
		out = append(out, Comparable{Field: f, Application: app, Extracted: ext})
	}
	return out
}

// isAbsent treats an empty string like a missing value.
func isAbsent(v *model.Value) bool {
	return v == nil || (v.Kind() == model.KindText && v.Literal() == "")
}
