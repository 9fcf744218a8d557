package model

// LoanPatch is a partial LoanRecord. Nil fields are left untouched when the
// patch is applied; borrowers are matched by role, not by position.
type LoanPatch LoanRecord

// IsEmpty reports whether applying the patch would change nothing.
func (p *LoanPatch) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, attr := range LoanAttributes {
		if (*LoanRecord)(p).Get(attr) != nil {
			return false
		}
	}
	for i := range p.Borrowers {
		for _, attr := range BorrowerAttributes {
			if p.Borrowers[i].Get(attr) != nil {
				return false
			}
		}
	}
	if p.Vehicle != nil {
		for _, attr := range VehicleAttributes {
			if p.Vehicle.Get(attr) != nil {
				return false
			}
		}
	}
	return true
}

// LoanAttributes lists the comparable loan-level attributes in display order.
var LoanAttributes = []string{
	AttrLoanAmount, AttrInterestRate, AttrLoanTermMonths, AttrMonthlyPayment,
	AttrDownPayment, AttrVehiclePrice, AttrLoanToValue,
}

// BorrowerAttributes lists the comparable borrower attributes in display order.
var BorrowerAttributes = []string{
	AttrFullName, AttrPhone, AttrEmail, AttrAnnualIncome, AttrCreditScore,
	AttrEmploymentStatus, AttrEmployer, AttrYearsAtJob,
}

// VehicleAttributes lists the comparable vehicle attributes in display order.
var VehicleAttributes = []string{
	AttrMake, AttrModel, AttrYear, AttrVIN, AttrColor, AttrMileage,
	AttrCondition, AttrVehicleValue,
}

// Apply merges the patch into the record in place.
// A borrower entry in the patch updates the record's borrower with the same
// role, or is appended when the record has none.
func (r *LoanRecord) Apply(p *LoanPatch) {
	if p == nil {
		return
	}

	for _, attr := range LoanAttributes {
		if v := (*LoanRecord)(p).Get(attr); v != nil {
			r.Set(attr, v.Clone())
		}
	}

	for i := range p.Borrowers {
		update := &p.Borrowers[i]
		target := r.borrowerByRole(update.IsCoBorrower)
		if target == nil {
			r.Borrowers = append(r.Borrowers, Borrower{IsCoBorrower: update.IsCoBorrower})
			target = &r.Borrowers[len(r.Borrowers)-1]
		}
		for _, attr := range BorrowerAttributes {
			if v := update.Get(attr); v != nil {
				target.Set(attr, v.Clone())
			}
		}
	}

	if p.Vehicle != nil {
		if r.Vehicle == nil {
			r.Vehicle = &VehicleDetails{}
		}
		for _, attr := range VehicleAttributes {
			if v := p.Vehicle.Get(attr); v != nil {
				r.Vehicle.Set(attr, v.Clone())
			}
		}
	}
}
