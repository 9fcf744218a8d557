// Package model defines the core data structures for loan reconciliation.
package model

// LoanStatus is the lifecycle state of a loan application.
type LoanStatus string

// Loan statuses.
const (
	LoanPending  LoanStatus = "pending"
	LoanInReview LoanStatus = "in_review"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
	LoanFunded   LoanStatus = "funded"
	LoanClosed   LoanStatus = "closed"
)

// Loan-level attribute names.
const (
	AttrLoanAmount     = "loan_amount"
	AttrInterestRate   = "interest_rate"
	AttrLoanTermMonths = "loan_term_months"
	AttrMonthlyPayment = "monthly_payment"
	AttrDownPayment    = "down_payment"
	AttrVehiclePrice   = "vehicle_price"
	AttrLoanToValue    = "loan_to_value"
)

// Borrower attribute names.
const (
	AttrFullName         = "full_name"
	AttrEmail            = "email"
	AttrPhone            = "phone"
	AttrAnnualIncome     = "annual_income"
	AttrCreditScore      = "credit_score"
	AttrEmploymentStatus = "employment_status"
	AttrEmployer         = "employer"
	AttrYearsAtJob       = "years_at_job"
)

// Vehicle attribute names.
const (
	AttrMake         = "make"
	AttrModel        = "model"
	AttrYear         = "year"
	AttrVIN          = "vin"
	AttrColor        = "color"
	AttrMileage      = "mileage"
	AttrCondition    = "condition"
	AttrVehicleValue = "vehicle_value"
)

// LoanRecord is a loan application as stored by the persistence layer.
// The same shape is used for records produced by the extraction service,
// where any field may be absent.
type LoanRecord struct {
	LoanAmount        *Value          `json:"loan_amount,omitempty"`
	InterestRate      *Value          `json:"interest_rate,omitempty"`
	LoanTermMonths    *Value          `json:"loan_term_months,omitempty"`
	MonthlyPayment    *Value          `json:"monthly_payment,omitempty"`
	DownPayment       *Value          `json:"down_payment,omitempty"`
	VehiclePrice      *Value          `json:"vehicle_price,omitempty"`
	LoanToValue       *Value          `json:"loan_to_value,omitempty"`
	Vehicle           *VehicleDetails `json:"vehicle_details,omitempty"`
	ApplicationNumber string          `json:"application_number,omitempty"`
	Status            LoanStatus      `json:"status,omitempty"`
	Borrowers         []Borrower      `json:"borrowers,omitempty"`
	ID                int64           `json:"id,omitempty"`
}

// Borrower is a person on a loan. At most one primary and one co-borrower are expected.
type Borrower struct {
	FullName         *Value `json:"full_name,omitempty"`
	Email            *Value `json:"email,omitempty"`
	Phone            *Value `json:"phone,omitempty"`
	AnnualIncome     *Value `json:"annual_income,omitempty"`
	CreditScore      *Value `json:"credit_score,omitempty"`
	EmploymentStatus *Value `json:"employment_status,omitempty"`
	Employer         *Value `json:"employer,omitempty"`
	YearsAtJob       *Value `json:"years_at_job,omitempty"`
	IsCoBorrower     bool   `json:"is_co_borrower"`
}

// VehicleDetails describes the financed vehicle.
type VehicleDetails struct {
	Make         *Value `json:"make,omitempty"`
	Model        *Value `json:"model,omitempty"`
	Year         *Value `json:"year,omitempty"`
	VIN          *Value `json:"vin,omitempty"`
	Color        *Value `json:"color,omitempty"`
	Mileage      *Value `json:"mileage,omitempty"`
	Condition    *Value `json:"condition,omitempty"`
	VehicleValue *Value `json:"vehicle_value,omitempty"`
}

// Get returns the loan-level attribute, or nil if it is absent or unknown.
func (r *LoanRecord) Get(attr string) *Value {
	if p := r.slot(attr); p != nil {
		return *p
	}
	return nil
}

// Set assigns a loan-level attribute. It reports false for unknown attributes.
func (r *LoanRecord) Set(attr string, v *Value) bool {
	p := r.slot(attr)
	if p == nil {
		return false
	}
	*p = v
	return true
}

func (r *LoanRecord) slot(attr string) **Value {
	switch attr {
	case AttrLoanAmount:
		return &r.LoanAmount
	case AttrInterestRate:
		return &r.InterestRate
	case AttrLoanTermMonths:
		return &r.LoanTermMonths
	case AttrMonthlyPayment:
		return &r.MonthlyPayment
	case AttrDownPayment:
		return &r.DownPayment
	case AttrVehiclePrice:
		return &r.VehiclePrice
	case AttrLoanToValue:
		return &r.LoanToValue
	}
	return nil
}

// PrimaryBorrower returns the first borrower not flagged as co-borrower.
func (r *LoanRecord) PrimaryBorrower() *Borrower {
	return r.borrowerByRole(false)
}

// CoBorrower returns the first borrower flagged as co-borrower.
func (r *LoanRecord) CoBorrower() *Borrower {
	return r.borrowerByRole(true)
}

func (r *LoanRecord) borrowerByRole(co bool) *Borrower {
	if r == nil {
		return nil
	}
	for i := range r.Borrowers {
		if r.Borrowers[i].IsCoBorrower == co {
			return &r.Borrowers[i]
		}
	}
	return nil
}

// Get returns the borrower attribute, or nil if it is absent or unknown.
func (b *Borrower) Get(attr string) *Value {
	if p := b.slot(attr); p != nil {
		return *p
	}
	return nil
}

// Set assigns a borrower attribute. It reports false for unknown attributes.
func (b *Borrower) Set(attr string, v *Value) bool {
	p := b.slot(attr)
	if p == nil {
		return false
	}
	*p = v
	return true
}

func (b *Borrower) slot(attr string) **Value {
	switch attr {
	case AttrFullName:
		return &b.FullName
	case AttrEmail:
		return &b.Email
	case AttrPhone:
		return &b.Phone
	case AttrAnnualIncome:
		return &b.AnnualIncome
	case AttrCreditScore:
		return &b.CreditScore
	case AttrEmploymentStatus:
		return &b.EmploymentStatus
	case AttrEmployer:
		return &b.Employer
	case AttrYearsAtJob:
		return &b.YearsAtJob
	}
	return nil
}

// Get returns the vehicle attribute, or nil if it is absent or unknown.
func (v *VehicleDetails) Get(attr string) *Value {
	if p := v.slot(attr); p != nil {
		return *p
	}
	return nil
}

// Set assigns a vehicle attribute. It reports false for unknown attributes.
func (v *VehicleDetails) Set(attr string, val *Value) bool {
	p := v.slot(attr)
	if p == nil {
		return false
	}
	*p = val
	return true
}

func (v *VehicleDetails) slot(attr string) **Value {
	switch attr {
	case AttrMake:
		return &v.Make
	case AttrModel:
		return &v.Model
	case AttrYear:
		return &v.Year
	case AttrVIN:
		return &v.VIN
	case AttrColor:
		return &v.Color
	case AttrMileage:
		return &v.Mileage
	case AttrCondition:
		return &v.Condition
	case AttrVehicleValue:
		return &v.VehicleValue
	}
	return nil
}
