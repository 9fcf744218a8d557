package variance

import (
	"testing"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currencyRule() model.Rule {
	return model.Rule{
		WarningPercentage:  model.Float(5),
		CriticalPercentage: model.Float(10),
		WarningAbsolute:    model.Float(500),
		CriticalAbsolute:   model.Float(2000),
		MismatchSeverity:   model.SeverityWarning,
	}
}

func numberRule() model.Rule {
	return model.Rule{
		WarningPercentage:  model.Float(5),
		CriticalPercentage: model.Float(10),
		WarningAbsolute:    model.Float(10),
		CriticalAbsolute:   model.Float(50),
		MismatchSeverity:   model.SeverityWarning,
	}
}

func TestCompare_Numeric(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name         string
		app          *model.Value
		ext          *model.Value
		rule         model.Rule
		vt           model.ValueType
		wantNil      bool
		wantSeverity model.Severity
		wantAbs      float64
		wantPct      float64
	}{
		{
			name:         "loan amount over both critical thresholds",
			app:          model.Number(40000),
			ext:          model.Number(44500),
			rule:         currencyRule(),
			vt:           model.TypeCurrency,
			wantSeverity: model.SeverityCritical,
			wantAbs:      4500,
			wantPct:      11.25,
		},
		{
			name:         "credit score under warning thresholds",
			app:          model.Int(720),
			ext:          model.Int(725),
			rule:         numberRule(),
			vt:           model.TypeNumber,
			wantSeverity: model.SeverityInfo,
			wantAbs:      5,
			wantPct:      5.0 / 720 * 100,
		},
		{
			name:         "absolute warning only",
			app:          model.Number(100000),
			ext:          model.Number(100600),
			rule:         currencyRule(),
			vt:           model.TypeCurrency,
			wantSeverity: model.SeverityWarning,
			wantAbs:      600,
			wantPct:      0.6,
		},
		{
			name:         "formatted text coerced",
			app:          model.Number(40000),
			ext:          model.Text("$44,500.00"),
			rule:         currencyRule(),
			vt:           model.TypeCurrency,
			wantSeverity: model.SeverityCritical,
			wantAbs:      4500,
			wantPct:      11.25,
		},
		{
			name:         "zero application value uses absolute thresholds only",
			app:          model.Number(0),
			ext:          model.Number(300),
			rule:         currencyRule(),
			vt:           model.TypeCurrency,
			wantSeverity: model.SeverityInfo,
			wantAbs:      300,
			wantPct:      0,
		},
		{
			name: "zero application value meets a zero percentage threshold",
			app:  model.Number(0),
			ext:  model.Number(300),
			rule: model.Rule{
				CriticalPercentage: model.Float(0),
				CriticalAbsolute:   model.Float(2000),
			},
			vt:           model.TypeCurrency,
			wantSeverity: model.SeverityCritical,
			wantAbs:      300,
			wantPct:      0,
		},
		{
			name:         "negative application value keeps percentage positive",
			app:          model.Number(-200),
			ext:          model.Number(-220),
			rule:         numberRule(),
			vt:           model.TypeNumber,
			wantSeverity: model.SeverityCritical,
			wantAbs:      20,
			wantPct:      10,
		},
		{
			name:    "equal values",
			app:     model.Number(5.9),
			ext:     model.Text("5.90%"),
			rule:    currencyRule(),
			vt:      model.TypePercentage,
			wantNil: true,
		},
		{
			name:    "absent extracted value",
			app:     model.Number(40000),
			rule:    currencyRule(),
			vt:      model.TypeCurrency,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Compare(tt.app, tt.ext, tt.vt, tt.rule)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantSeverity, got.Severity)
			assert.InDelta(t, tt.wantAbs, got.VarianceAbsolute, 1e-9)
			assert.InDelta(t, tt.wantPct, got.VariancePercentage, 1e-9)
			assert.False(t, got.Unparsable)
		})
	}
}

func TestCompare_Unparsable(t *testing.T) {
	calc := NewCalculator()

	t.Run("uses mismatch severity", func(t *testing.T) {
		rule := currencyRule()
		rule.MismatchSeverity = model.SeverityCritical

		got := calc.Compare(model.Number(40000), model.Text("forty thousand"), model.TypeCurrency, rule)
		require.NotNil(t, got)
		assert.True(t, got.Unparsable)
		assert.Equal(t, model.SeverityCritical, got.Severity)
		assert.Zero(t, got.VarianceAbsolute)
		assert.Zero(t, got.VariancePercentage)
		assert.Equal(t, "forty thousand", got.FormattedExtracted)
	})

	t.Run("defaults to warning", func(t *testing.T) {
		got := calc.Compare(model.Bool(true), model.Number(1), model.TypeNumber, model.Rule{})
		require.NotNil(t, got)
		assert.Equal(t, model.SeverityWarning, got.Severity)
	})
}

func TestCompare_Text(t *testing.T) {
	calc := NewCalculator()

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		got := calc.Compare(model.Text("Jane Doe"), model.Text("  jane doe "), model.TypeText,
			model.Rule{MismatchSeverity: model.SeverityInfo})
		assert.Nil(t, got)
	})

	t.Run("mismatch uses rule severity", func(t *testing.T) {
		got := calc.Compare(model.Text("John Doe"), model.Text("John Smith"), model.TypeText,
			model.Rule{MismatchSeverity: model.SeverityCritical, BlockProgress: true})
		require.NotNil(t, got)
		assert.Equal(t, model.SeverityCritical, got.Severity)
		assert.Equal(t, "John Doe", got.FormattedApplication)
		assert.Equal(t, "John Smith", got.FormattedExtracted)
	})

	t.Run("numbers compared as text", func(t *testing.T) {
		assert.Nil(t, calc.Compare(model.Int(2022), model.Text("2022"), model.TypeText, model.Rule{}))
	})
}

func TestCompare_Deterministic(t *testing.T) {
	calc := NewCalculator()
	first := calc.Compare(model.Number(40000), model.Number(44500), model.TypeCurrency, currencyRule())
	second := calc.Compare(model.Number(40000), model.Number(44500), model.TypeCurrency, currencyRule())
	assert.Equal(t, first, second)
}

func TestCompare_EqualNumericNeverVaries(t *testing.T) {
	calc := NewCalculator()
	for _, vt := range []model.ValueType{model.TypeCurrency, model.TypePercentage, model.TypeNumber} {
		for _, n := range []float64{0, 1, 720, 40000, 5.9, -12.5} {
			assert.Nil(t, calc.Compare(model.Number(n), model.Number(n), vt, model.Rule{
				WarningPercentage: model.Float(0),
				WarningAbsolute:   model.Float(0),
			}), "%s %v", vt, n)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      *model.Value
		want    string
		wantErr bool
	}{
		{in: model.Number(44500), want: "44500"},
		{in: model.Text("$44,500.25"), want: "44500.25"},
		{in: model.Text("5.9%"), want: "5.9"},
		{in: model.Text("-1,000"), want: "-1000"},
		{in: model.Text("n/a"), wantErr: true},
		{in: model.Text("1.2.3"), wantErr: true},
		{in: model.Bool(false), wantErr: true},
		{in: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in.Literal(), func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotNumeric)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
