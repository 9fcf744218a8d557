package variance

import (
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NotAvailable is shown for absent values.
const NotAvailable = "N/A"

// Formatter renders values for display according to their field type.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a formatter using the digit grouping of tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Value formats a record value. Numeric fields whose value cannot be parsed
// are shown as they were received.
func (f *Formatter) Value(v *model.Value, vt model.ValueType) string {
	if v == nil {
		return NotAvailable
	}
	if !vt.IsNumeric() {
		return v.Literal()
	}
	d, err := ParseNumber(v)
	if err != nil {
		return v.Literal()
	}
	return f.Decimal(d, vt)
}

// Magnitude formats an absolute variance in the units of the field.
func (f *Formatter) Magnitude(amount float64, vt model.ValueType) string {
	return f.Decimal(decimal.NewFromFloat(amount), vt)
}

// Percent formats a variance percentage.
func (f *Formatter) Percent(p float64) string {
	return f.printer.Sprint(number.Decimal(p, number.MaxFractionDigits(2))) + "%"
}

// Decimal formats a number as currency, percentage or a grouped number.
func (f *Formatter) Decimal(d decimal.Decimal, vt model.ValueType) string {
	switch vt {
	case model.TypeCurrency:
		sign := ""
		if d.IsNegative() {
			sign = "-"
			d = d.Abs()
		}
		if d.Equal(d.Truncate(0)) {
			return sign + "$" + f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(0)))
		}
		return sign + "$" + f.printer.Sprint(number.Decimal(d.InexactFloat64(),
			number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	case model.TypePercentage:
		return d.String() + "%"
	default:
		return f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(4)))
	}
}
