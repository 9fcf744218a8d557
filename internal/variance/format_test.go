package variance

import (
	"testing"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatter_Value(t *testing.T) {
	f := NewFormatter(language.English)

	tests := []struct {
		name string
		v    *model.Value
		vt   model.ValueType
		want string
	}{
		{"whole currency", model.Number(40000), model.TypeCurrency, "$40,000"},
		{"fractional currency", model.Number(1234.5), model.TypeCurrency, "$1,234.50"},
		{"negative currency", model.Number(-250), model.TypeCurrency, "-$250"},
		{"currency from text", model.Text("$44,500"), model.TypeCurrency, "$44,500"},
		{"percentage", model.Number(5.9), model.TypePercentage, "5.9%"},
		{"percentage trailing zero", model.Text("6.50"), model.TypePercentage, "6.5%"},
		{"grouped number", model.Int(12000), model.TypeNumber, "12,000"},
		{"text", model.Text("Honda"), model.TypeText, "Honda"},
		{"unparsable numeric", model.Text("unknown"), model.TypeCurrency, "unknown"},
		{"absent", nil, model.TypeCurrency, NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Value(tt.v, tt.vt))
		})
	}
}

func TestFormatter_Magnitude(t *testing.T) {
	f := NewFormatter(language.English)
	assert.Equal(t, "$4,500", f.Magnitude(4500, model.TypeCurrency))
	assert.Equal(t, "0.25%", f.Magnitude(0.25, model.TypePercentage))
	assert.Equal(t, "11.25%", f.Percent(11.25))
}
