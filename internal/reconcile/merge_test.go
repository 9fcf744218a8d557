package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_AllAcceptedOriginalIsEmpty(t *testing.T) {
	s := NewSession(applicationRecord(), extractedRecord(), blockingRules(t))
	for _, v := range s.Variances() {
		require.NoError(t, s.Resolve(v.Field, AcceptOriginal()))
	}

	patch, err := s.Finalize()
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())

	data, err := json.Marshal(patch)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestBuild_UnresolvedOmitted(t *testing.T) {
	s := NewSession(applicationRecord(), extractedRecord(), nil)
	assert.True(t, Build(s.Application(), s).IsEmpty())
}

func TestBuild_RoutesByContext(t *testing.T) {
	app := applicationRecord()
	s := NewSession(app, extractedRecord(), blockingRules(t))

	require.NoError(t, s.Resolve("loan_amount", AcceptExtracted()))
	require.NoError(t, s.Resolve("vehicle_make", Edit(model.Text("Toyota"))))
	require.NoError(t, s.Resolve("borrower_full_name", Edit(model.Text("John Q. Smith"))))
	require.NoError(t, s.Resolve("borrower_credit_score", AcceptOriginal()))
	require.NoError(t, s.Resolve("coBorrower_annual_income", AcceptExtracted()))

	patch, err := s.Finalize()
	require.NoError(t, err)

	data, err := json.Marshal(patch)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"loan_amount": 44500,
		"vehicle_details": {"make": "Toyota"},
		"borrowers": [
			{"full_name": "John Q. Smith", "is_co_borrower": false},
			{"annual_income": 52600, "is_co_borrower": true}
		]
	}`, string(data))
}

func TestBuild_EditBackToOriginalOmitted(t *testing.T) {
	s := NewSession(applicationRecord(), extractedRecord(), nil)
	require.NoError(t, s.Resolve("loan_amount", Edit(model.Text("$40,000.00"))))
	assert.True(t, Build(s.Application(), s).IsEmpty())
}

func TestBuild_PatchAppliesToRecord(t *testing.T) {
	app := applicationRecord()
	s := NewSession(app, extractedRecord(), blockingRules(t))
	require.NoError(t, s.Resolve("borrower_full_name", AcceptExtracted()))
	require.NoError(t, s.Resolve("coBorrower_annual_income", Edit(model.Number(53000))))
	require.NoError(t, s.Resolve("vehicle_make", AcceptExtracted()))

	patch, err := s.Finalize()
	require.NoError(t, err)

	updated := applicationRecord()
	updated.Apply(patch)

	assert.Equal(t, "John Smith", updated.PrimaryBorrower().FullName.Literal())
	assert.Equal(t, "53000", updated.CoBorrower().AnnualIncome.Literal())
	assert.Equal(t, "Mary Doe", updated.CoBorrower().FullName.Literal())
	assert.Equal(t, "Toyota", updated.Vehicle.Make.Literal())
	assert.Equal(t, "2022", updated.Vehicle.Year.Literal())
	assert.Equal(t, "40000", updated.LoanAmount.Literal())
	assert.Len(t, updated.Borrowers, 2)
}
