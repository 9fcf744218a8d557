package testutil

import "github.com/Veraticus/loanrecon/internal/model"

// LoanBuilder assembles loan records for tests.
//
// Example:
//
//	app := testutil.NewLoan().
//		WithAmount(40000).
//		WithBorrower("John Doe", 720).
//		Build()
type LoanBuilder struct {
	record model.LoanRecord
}

// NewLoan starts an empty pending loan record.
func NewLoan() *LoanBuilder {
	return &LoanBuilder{record: model.LoanRecord{Status: model.LoanPending}}
}

// WithApplicationNumber sets the application number.
func (b *LoanBuilder) WithApplicationNumber(n string) *LoanBuilder {
	b.record.ApplicationNumber = n
	return b
}

// WithAmount sets the loan amount as a number.
func (b *LoanBuilder) WithAmount(amount float64) *LoanBuilder {
	b.record.LoanAmount = model.Number(amount)
	return b
}

// WithAmountText sets the loan amount as a formatted string, the way
// extracted records often carry it.
func (b *LoanBuilder) WithAmountText(amount string) *LoanBuilder {
	b.record.LoanAmount = model.Text(amount)
	return b
}

// WithRate sets the interest rate.
func (b *LoanBuilder) WithRate(rate float64) *LoanBuilder {
	b.record.InterestRate = model.Number(rate)
	return b
}

// WithTerm sets the loan term in months.
func (b *LoanBuilder) WithTerm(months int64) *LoanBuilder {
	b.record.LoanTermMonths = model.Int(months)
	return b
}

// WithBorrower adds a primary borrower.
func (b *LoanBuilder) WithBorrower(name string, creditScore int64) *LoanBuilder {
	b.record.Borrowers = append(b.record.Borrowers, model.Borrower{
		FullName:    model.Text(name),
		CreditScore: model.Int(creditScore),
	})
	return b
}

// WithCoBorrower adds a co-borrower.
func (b *LoanBuilder) WithCoBorrower(name string, income float64) *LoanBuilder {
	b.record.Borrowers = append(b.record.Borrowers, model.Borrower{
		FullName:     model.Text(name),
		AnnualIncome: model.Number(income),
		IsCoBorrower: true,
	})
	return b
}

// WithVehicle sets the vehicle make and year.
func (b *LoanBuilder) WithVehicle(make string, year int64) *LoanBuilder {
	b.record.Vehicle = &model.VehicleDetails{
		Make: model.Text(make),
		Year: model.Int(year),
	}
	return b
}

// Build returns the assembled record.
func (b *LoanBuilder) Build() *model.LoanRecord {
	r := b.record
	r.Borrowers = append([]model.Borrower(nil), b.record.Borrowers...)
	if b.record.Vehicle != nil {
		v := *b.record.Vehicle
		r.Vehicle = &v
	}
	return &r
}

// SampleApplication is a stored application with a borrower, co-borrower and vehicle.
func SampleApplication() *model.LoanRecord {
	return NewLoan().
		WithApplicationNumber("APP-1001").
		WithAmount(40000).
		WithRate(5.9).
		WithTerm(60).
		WithBorrower("John Doe", 720).
		WithCoBorrower("Mary Doe", 52000).
		WithVehicle("Honda", 2022).
		Build()
}

// SampleExtraction is a record extracted from SampleApplication's document.
// Under the built-in rules it yields five variances against SampleApplication:
// loan_amount (critical), coBorrower_annual_income (warning), and
// vehicle_make, borrower_full_name and borrower_credit_score (info).
func SampleExtraction() *model.LoanRecord {
	r := NewLoan().
		WithAmountText("$44,500").
		WithTerm(60).
		WithBorrower("John Smith", 725).
		WithVehicle("Toyota", 2022).
		Build()
	r.Status = ""
	r.InterestRate = model.Text("5.9%")
	r.Borrowers = append(r.Borrowers, model.Borrower{
		FullName:     model.Text("mary doe"),
		AnnualIncome: model.Text("$52,600"),
		IsCoBorrower: true,
	})
	return r
}

// MatchingExtraction is a record that agrees with SampleApplication everywhere.
func MatchingExtraction() *model.LoanRecord {
	r := SampleApplication()
	r.Status = ""
	r.ApplicationNumber = ""
	return r
}
