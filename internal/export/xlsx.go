// Package export writes variance reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
)

// Sheet names.
const (
	SummarySheet   = "Summary"
	VariancesSheet = "Variances"
)

var (
	summaryHeadings = []string{
		"Loan ID", "Application Number", "Document", "Variances",
		"Critical", "Warning", "Info", "Unresolved", "Blocked",
	}
	varianceHeadings = []string{
		"Loan ID", "Field", "Label", "Application", "Extracted",
		"Absolute Variance", "Variance %", "Severity", "Resolution",
	}
)

// LoanVariances is one loan's reconciliation session in a report.
type LoanVariances struct {
	Session           *reconcile.Session
	ApplicationNumber string
	DocumentName      string
	LoanID            int64
}

// Workbook builds a report with a summary row per loan and a row per variance.
func Workbook(loans []LoanVariances) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(VariancesSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create variances sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	summary := &sheetWriter{f: f, sheet: SummarySheet}
	details := &sheetWriter{f: f, sheet: VariancesSheet}
	summary.row(styles.header, toCells(summaryHeadings)...)
	details.row(styles.header, toCells(varianceHeadings)...)

	for _, l := range loans {
		if l.Session == nil {
			continue
		}
		sum := l.Session.Summary()
		summary.row(0, l.LoanID, l.ApplicationNumber, l.DocumentName, sum.Total,
			sum.Critical, sum.Warning, sum.Info, sum.Unresolved, yesNo(sum.Blocked))

		for _, v := range l.Session.Variances() {
			res, _ := l.Session.Resolution(v.Field)
			var absolute, percentage any
			if v.ValueType.IsNumeric() && !v.Unparsable {
				absolute, percentage = v.VarianceAbsolute, v.VariancePercentage
			}
			details.row(styles.severity[v.Severity], l.LoanID, v.Field, v.Label,
				v.FormattedApplication, v.FormattedExtracted, absolute, percentage,
				strings.ToUpper(string(v.Severity)), string(res.Kind))
		}
	}

	for _, w := range []*sheetWriter{summary, details} {
		w.finish()
		if w.err != nil {
			_ = f.Close()
			return nil, w.err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the report workbook to w.
func Write(w io.Writer, loans []LoanVariances) error {
	f, err := Workbook(loans)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save writes the report workbook to path.
func Save(path string, loans []LoanVariances) error {
	f, err := Workbook(loans)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

type styles struct {
	severity map[model.Severity]int
	header   int
}

func newStyles(f *excelize.File) (*styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	s := &styles{header: header, severity: make(map[model.Severity]int)}
	for sev, color := range map[model.Severity]string{
		model.SeverityCritical: "#F8CBAD",
		model.SeverityWarning:  "#FFE699",
	} {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", sev, err)
		}
		s.severity[sev] = id
	}
	return s, nil
}

// sheetWriter appends rows to a sheet and keeps the first error.
type sheetWriter struct {
	err    error
	f      *excelize.File
	sheet  string
	next   int
	widest int
}

func (w *sheetWriter) row(style int, values ...any) {
	if w.err != nil {
		return
	}
	w.next++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.next)
		if err != nil {
			w.err = err
			return
		}
		if v != nil {
			if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
				w.err = fmt.Errorf("failed to set %s!%s: %w", w.sheet, cell, err)
				return
			}
		}
	}
	if len(values) > w.widest {
		w.widest = len(values)
	}
	if style == 0 || len(values) == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, w.next)
	last, _ := excelize.CoordinatesToCellName(len(values), w.next)
	if err := w.f.SetCellStyle(w.sheet, first, last, style); err != nil {
		w.err = fmt.Errorf("failed to style %s row %d: %w", w.sheet, w.next, err)
	}
}

// finish freezes the heading row and widens the used columns.
func (w *sheetWriter) finish() {
	if w.err != nil || w.widest == 0 {
		return
	}
	lastCol, err := excelize.ColumnNumberToName(w.widest)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetColWidth(w.sheet, "A", lastCol, 18); err != nil {
		w.err = fmt.Errorf("failed to size %s columns: %w", w.sheet, err)
		return
	}
	if err := w.f.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		w.err = fmt.Errorf("failed to freeze %s heading: %w", w.sheet, err)
	}
}

func toCells(headings []string) []any {
	out := make([]any, len(headings))
	for i, h := range headings {
		out[i] = h
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
