package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
	"github.com/Veraticus/loanrecon/internal/variance"
)

var displayFormat = variance.NewFormatter(language.English)

const severityColumn = 4

// Difference describes a variance's size for display: the absolute and
// percentage difference for numbers, "mismatch" for text.
func Difference(v model.Variance) string {
	switch {
	case v.Unparsable:
		return "unparsable"
	case !v.ValueType.IsNumeric():
		return "mismatch"
	default:
		return fmt.Sprintf("%s (%s)",
			displayFormat.Magnitude(v.VarianceAbsolute, v.ValueType),
			displayFormat.Percent(v.VariancePercentage))
	}
}

// ResolutionLabel is the short form of a resolution shown in tables.
func ResolutionLabel(r model.Resolution) string {
	switch r.Kind {
	case model.Edited:
		return "edited → " + r.Value.Literal()
	case model.AcceptedExtracted:
		return "accepted extracted"
	case model.AcceptedOriginal:
		return "kept original"
	default:
		return "unresolved"
	}
}

// VarianceTable renders variances as a table.
func VarianceTable(variances []model.Variance) string {
	return renderTable(variances, nil)
}

// SessionTable renders a session's variances with their current resolution.
// Unresolved blocking variances are marked with a lock.
func SessionTable(s *reconcile.Session) string {
	blocking := make(map[string]bool)
	for _, f := range s.BlockingFields() {
		blocking[f.Field] = true
	}
	return renderTable(s.Variances(), func(v model.Variance) string {
		res, _ := s.Resolution(v.Field)
		label := ResolutionLabel(res)
		if blocking[v.Field] {
			label = LockIcon + " " + label
		}
		return label
	})
}

func renderTable(variances []model.Variance, status func(model.Variance) string) string {
	if len(variances) == 0 {
		return FormatSuccess("No variances: the extracted record matches the application.")
	}

	headers := []string{"Field", "Application", "Extracted", "Difference", "Severity"}
	if status != nil {
		headers = append(headers, "Status")
	}

	rows := make([][]string, 0, len(variances))
	for _, v := range variances {
		row := []string{
			v.Label,
			v.FormattedApplication,
			v.FormattedExtracted,
			Difference(v),
			strings.ToUpper(string(v.Severity)),
		}
		if status != nil {
			row = append(row, status(v))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if col == severityColumn && row >= 0 && row < len(variances) {
				return SeverityStyle(variances[row].Severity).Padding(0, 1)
			}
			return TableCellStyle
		})

	return t.String()
}

// SummaryLine renders a one-line count of a session's variances.
func SummaryLine(sum reconcile.Summary) string {
	parts := []string{
		fmt.Sprintf("%d variances", sum.Total),
		ErrorStyle.Render(fmt.Sprintf("%d critical", sum.Critical)),
		WarningStyle.Render(fmt.Sprintf("%d warning", sum.Warning)),
		InfoStyle.Render(fmt.Sprintf("%d info", sum.Info)),
	}
	line := strings.Join(parts, " · ")
	if sum.Resolved > 0 {
		line += fmt.Sprintf(" · %d resolved", sum.Resolved)
	}
	if sum.Blocked {
		line += " · " + ErrorStyle.Render(LockIcon+" blocked")
	}
	return line
}

// Table renders plain rows with the same look as the variance tables.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		String()
}
