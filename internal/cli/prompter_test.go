package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanrecon/internal/engine"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
	"github.com/Veraticus/loanrecon/internal/rules"
	"github.com/Veraticus/loanrecon/internal/testutil"
)

func sampleSession(t *testing.T, rs *rules.RuleSet) *reconcile.Session {
	t.Helper()
	s := reconcile.NewSession(testutil.SampleApplication(), testutil.SampleExtraction(), rs)
	require.Len(t, s.Variances(), 5)
	return s
}

func TestPrompter_ResolveVariances(t *testing.T) {
	session := sampleSession(t, nil)
	input := strings.Join([]string{
		"x", // loan_amount
		"o", // vehicle_make
		"e", // borrower_full_name
		"John A. Doe",
		"s", // borrower_credit_score
		"X", // coBorrower_annual_income
	}, "\n") + "\n"

	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader(input), &output)

	err := p.ResolveVariances(context.Background(), session, session.Unresolved())
	require.NoError(t, err)

	tests := []struct {
		field string
		kind  model.ResolutionKind
		value string
	}{
		{field: "loan_amount", kind: model.AcceptedExtracted, value: "44500"},
		{field: "vehicle_make", kind: model.AcceptedOriginal},
		{field: "borrower_full_name", kind: model.Edited, value: "John A. Doe"},
		{field: "borrower_credit_score", kind: model.Unresolved},
		{field: "coBorrower_annual_income", kind: model.AcceptedExtracted, value: "52600"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			res, ok := session.Resolution(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.value, res.Value.Literal())
		})
	}

	stats := p.GetReviewStats()
	assert.Equal(t, 5, stats.Presented)
	assert.Equal(t, 1, stats.Edited)
	assert.Equal(t, 2, stats.AcceptedExtracted)
	assert.Equal(t, 1, stats.KeptOriginal)
	assert.Equal(t, 1, stats.Skipped)

	out := output.String()
	assert.Contains(t, out, "Loan Amount")
	assert.Contains(t, out, "$40,000")
	assert.Contains(t, out, "$44,500")
	assert.Contains(t, out, "$4,500 (11.25%)")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "Updated Borrower Name to John A. Doe")
	assert.Contains(t, out, "4 resolved")
	assert.NotContains(t, out, "Finalizing is blocked")
}

func TestPrompter_InvalidInput(t *testing.T) {
	session := sampleSession(t, nil)
	amount, ok := session.Variance("loan_amount")
	require.True(t, ok)

	input := "z\ne\n\nabc\n$41,000\n"
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader(input), &output)

	err := p.ResolveVariances(context.Background(), session, []model.Variance{amount})
	require.NoError(t, err)

	res, _ := session.Resolution("loan_amount")
	assert.Equal(t, model.Edited, res.Kind)
	assert.Equal(t, "41000", res.Value.Literal())
	assert.True(t, res.Value.IsNumber())

	out := output.String()
	assert.Contains(t, out, "Invalid choice")
	assert.Contains(t, out, "Value cannot be empty")
	assert.Contains(t, out, `"abc" is not a valid number`)
}

func TestPrompter_Abort(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "quit", input: "x\nq\n"},
		{name: "input ends", input: "x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := sampleSession(t, nil)
			p := NewCLIPrompter(strings.NewReader(tt.input), &bytes.Buffer{})

			err := p.ResolveVariances(context.Background(), session, session.Unresolved())
			assert.ErrorIs(t, err, engine.ErrReviewAborted)

			res, _ := session.Resolution("loan_amount")
			assert.Equal(t, model.AcceptedExtracted, res.Kind)
		})
	}
}

func TestPrompter_CanceledContext(t *testing.T) {
	session := sampleSession(t, nil)
	p := NewCLIPrompter(strings.NewReader("x\n"), &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.ResolveVariances(ctx, session, session.Unresolved())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrompter_BlockedRound(t *testing.T) {
	rs := rules.New()
	require.NoError(t, rs.Create("borrower_full_name", model.Rule{
		MismatchSeverity: model.SeverityCritical,
		BlockProgress:    true,
	}))
	session := sampleSession(t, rs)

	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("s\ns\ns\ns\ns\no\n"), &output)
	ctx := context.Background()

	require.NoError(t, p.ResolveVariances(ctx, session, session.Unresolved()))
	assert.True(t, session.IsBlocked())
	assert.Contains(t, output.String(), "Must be resolved before the review can be finalized")

	name, _ := session.Variance("borrower_full_name")
	require.NoError(t, p.ResolveVariances(ctx, session, []model.Variance{name}))
	assert.False(t, session.IsBlocked())
	assert.Contains(t, output.String(), "Finalizing is blocked by 1 critical variance(s)")
}

func TestPrompter_EmptyPending(t *testing.T) {
	session := sampleSession(t, nil)
	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader(""), &output)

	require.NoError(t, p.ResolveVariances(context.Background(), session, nil))
	assert.Empty(t, output.String())
}

func TestPrompter_ShowCompletion(t *testing.T) {
	session := sampleSession(t, nil)
	require.NoError(t, engine.KeepAllOriginal().ResolveVariances(context.Background(), session, session.Unresolved()))
	patch, err := session.Finalize()
	require.NoError(t, err)

	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader(""), &output)
	p.ShowCompletion(&engine.Result{
		Loan:    &model.LoanRecord{ID: 12},
		Session: session,
		Record:  &model.ReconciliationRecord{Patch: patch},
	})

	out := output.String()
	assert.Contains(t, out, "Review Complete: loan 12")
	assert.Contains(t, out, "Variances: 5 (1 critical)")
	assert.Contains(t, out, "Fields updated: none")
	assert.Contains(t, out, session.ID)

	output.Reset()
	p.ShowCompletion(&engine.Result{Session: session})
	assert.Empty(t, output.String())
}

func TestDescribeRule(t *testing.T) {
	rs := rules.New()
	tests := []struct {
		name string
		vt   model.ValueType
		want string
	}{
		{
			name: "currency",
			vt:   model.TypeCurrency,
			want: "warning at 5% or $500; critical at 10% or $2,000",
		},
		{
			name: "text",
			vt:   model.TypeText,
			want: "mismatch is info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeRule(tt.vt, rs.Lookup("x", tt.vt)))
		})
	}
}

func TestPrompter_AcceptUnparsableExtracted(t *testing.T) {
	ext := testutil.SampleExtraction()
	ext.LoanAmount = model.Text("N/A")
	session := reconcile.NewSession(testutil.SampleApplication(), ext, nil)
	amount, ok := session.Variance("loan_amount")
	require.True(t, ok)
	require.True(t, amount.Unparsable)

	var output bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("x\n"), &output)
	require.NoError(t, p.ResolveVariances(context.Background(), session, []model.Variance{amount}))

	res, _ := session.Resolution("loan_amount")
	assert.Equal(t, model.AcceptedExtracted, res.Kind)
	assert.Equal(t, "N/A", res.Value.Literal())
	assert.Equal(t, 1, p.GetReviewStats().AcceptedExtracted)
}
