package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
)

func TestDifference(t *testing.T) {
	tests := []struct {
		name string
		want string
		v    model.Variance
	}{
		{
			name: "currency",
			v:    model.Variance{ValueType: model.TypeCurrency, VarianceAbsolute: 4500, VariancePercentage: 11.25},
			want: "$4,500 (11.25%)",
		},
		{
			name: "number",
			v:    model.Variance{ValueType: model.TypeNumber, VarianceAbsolute: 5, VariancePercentage: 0.5},
			want: "5 (0.5%)",
		},
		{
			name: "text",
			v:    model.Variance{ValueType: model.TypeText},
			want: "mismatch",
		},
		{
			name: "unparsable",
			v:    model.Variance{ValueType: model.TypeCurrency, Unparsable: true},
			want: "unparsable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Difference(tt.v))
		})
	}
}

func TestResolutionLabel(t *testing.T) {
	assert.Equal(t, "unresolved", ResolutionLabel(model.Resolution{Kind: model.Unresolved}))
	assert.Equal(t, "kept original", ResolutionLabel(model.Resolution{Kind: model.AcceptedOriginal}))
	assert.Equal(t, "accepted extracted", ResolutionLabel(model.Resolution{Kind: model.AcceptedExtracted}))
	assert.Equal(t, "edited → 41000", ResolutionLabel(model.Resolution{Kind: model.Edited, Value: model.Int(41000)}))
}

func TestVarianceTable(t *testing.T) {
	assert.Contains(t, VarianceTable(nil), "No variances")

	out := VarianceTable([]model.Variance{
		{
			Label:                "Loan Amount",
			ValueType:            model.TypeCurrency,
			FormattedApplication: "$40,000",
			FormattedExtracted:   "$44,500",
			VarianceAbsolute:     4500,
			VariancePercentage:   11.25,
			Severity:             model.SeverityCritical,
		},
		{
			Label:                "Vehicle Make",
			ValueType:            model.TypeText,
			FormattedApplication: "Honda",
			FormattedExtracted:   "Toyota",
			Severity:             model.SeverityInfo,
		},
	})

	for _, want := range []string{"Field", "Severity", "Loan Amount", "$44,500", "CRITICAL", "Vehicle Make", "Toyota", "INFO", "mismatch"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Status")
}

func TestSessionTable(t *testing.T) {
	session := sampleSession(t, nil)
	assert.NoError(t, session.Resolve("vehicle_make", reconcile.AcceptOriginal()))

	out := SessionTable(session)
	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "kept original")
	assert.Contains(t, out, "unresolved")
}

func TestSummaryLine(t *testing.T) {
	line := SummaryLine(reconcile.Summary{Total: 5, Critical: 1, Warning: 1, Info: 3, Resolved: 2, Blocked: true})
	assert.Contains(t, line, "5 variances")
	assert.Contains(t, line, "1 critical")
	assert.Contains(t, line, "3 info")
	assert.Contains(t, line, "2 resolved")
	assert.Contains(t, line, "blocked")
}

func TestSeverityBadge(t *testing.T) {
	assert.Contains(t, SeverityBadge(model.SeverityCritical), "CRITICAL")
	assert.Contains(t, SeverityBadge(model.SeverityWarning), "WARNING")
	assert.Contains(t, SeverityBadge(model.SeverityInfo), "INFO")
}

func TestTable(t *testing.T) {
	out := Table([]string{"ID", "Application"}, [][]string{{"1", "APP-1001"}, {"2", "APP-1002"}})
	for _, want := range []string{"ID", "Application", "APP-1001", "APP-1002"} {
		assert.Contains(t, out, want)
	}
}
