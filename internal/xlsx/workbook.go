// Package xlsx renders report layouts as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/hours-proxy/internal/report"
	"github.com/xuri/excelize/v2"
)

const maxSheetNameLength = 31

var columnWidths = [report.ColumnCount]float64{30, 18, 22, 22, 36, 10, 16, 18, 13, 14}

// Renderer writes layouts as xlsx workbooks. The zero value is ready to use.
type Renderer struct{}

// Write renders the layout and streams the workbook to w.
func (Renderer) Write(w io.Writer, layout report.Layout, title, dateRange string) error {
	f, err := Render(layout, title, dateRange)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Render builds a single-sheet workbook with the same header block and row
// layout the spreadsheet publisher writes.
func Render(layout report.Layout, title, dateRange string) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := SheetName(title)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	if err := render(f, sheet, layout, title, dateRange); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func render(f *excelize.File, sheet string, layout report.Layout, title, dateRange string) error {
	for i, row := range report.HeaderBlock(title, dateRange, layout.Totals) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing header row %d: %w", i+1, err)
		}
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return err
	}

	if err := applyRowStyle(f, sheet, 1, styles.title); err != nil {
		return err
	}
	if err := applyRowStyle(f, sheet, report.HeaderBlockRows, styles.columns); err != nil {
		return err
	}

	for i, row := range layout.Rows {
		rowNum := report.HeaderBlockRows + 1 + i
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		values := cellValues(row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", rowNum, err)
		}

		var rowStyles [report.ColumnCount]int
		switch row.Kind {
		case report.RowHeader:
			rowStyles = styles.header
		case report.RowTotal:
			rowStyles = styles.total
		default:
			rowStyles = styles.detail
		}
		if err := applyColumnStyles(f, sheet, rowNum, rowStyles); err != nil {
			return err
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      report.HeaderBlockRows,
		TopLeftCell: fmt.Sprintf("A%d", report.HeaderBlockRows+1),
		ActivePane:  "bottomLeft",
	})
}

// cellValues keeps text columns as text and writes the aggregate columns as
// numbers rounded to two decimals.
func cellValues(row report.Row) []any {
	values := row.Cells()
	values[report.ColBillableAmount] = row.BillableAmount.Decimal().Round(2).InexactFloat64()
	values[report.ColLaborHours] = row.LaborHours.Decimal().Round(2).InexactFloat64()
	values[report.ColBillableHours] = row.BillableHours.Decimal().Round(2).InexactFloat64()
	return values
}

// SheetName makes title usable as a worksheet name.
func SheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")

	if runes := []rune(name); len(runes) > maxSheetNameLength {
		name = string(runes[:maxSheetNameLength])
	}
	if name == "" {
		return "Report"
	}
	return name
}

type styleSet struct {
	detail  [report.ColumnCount]int
	header  [report.ColumnCount]int
	total   [report.ColumnCount]int
	title   int
	columns int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	var set styleSet
	var err error

	if set.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return nil, fmt.Errorf("creating title style: %w", err)
	}
	if set.columns, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	}); err != nil {
		return nil, fmt.Errorf("creating column header style: %w", err)
	}

	if set.detail, err = columnStyles(f, false, ""); err != nil {
		return nil, err
	}
	if set.header, err = columnStyles(f, true, "D9EBFA"); err != nil {
		return nil, err
	}
	if set.total, err = columnStyles(f, true, "B8D6F2"); err != nil {
		return nil, err
	}
	return &set, nil
}

// columnStyles returns one style per column: currency for the amount
// column, two-decimal numbers for the hour columns, plain elsewhere.
func columnStyles(f *excelize.File, bold bool, fill string) ([report.ColumnCount]int, error) {
	var ids [report.ColumnCount]int

	currency := "$#,##0.00"
	hours := "0.00"

	base := func(numFmt *string) *excelize.Style {
		style := &excelize.Style{CustomNumFmt: numFmt}
		if bold {
			style.Font = &excelize.Font{Bold: true}
		}
		if fill != "" {
			style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}}
		}
		return style
	}

	plain, err := f.NewStyle(base(nil))
	if err != nil {
		return ids, fmt.Errorf("creating style: %w", err)
	}
	money, err := f.NewStyle(base(&currency))
	if err != nil {
		return ids, fmt.Errorf("creating currency style: %w", err)
	}
	number, err := f.NewStyle(base(&hours))
	if err != nil {
		return ids, fmt.Errorf("creating number style: %w", err)
	}

	for i := range ids {
		ids[i] = plain
	}
	ids[report.ColBillableAmount] = money
	ids[report.ColLaborHours] = number
	ids[report.ColBillableHours] = number
	return ids, nil
}

func applyRowStyle(f *excelize.File, sheet string, row, style int) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(report.ColumnCount, row)
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("styling row %d: %w", row, err)
	}
	return nil
}

func applyColumnStyles(f *excelize.File, sheet string, row int, styles [report.ColumnCount]int) error {
	for col, style := range styles {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("styling %s: %w", cell, err)
		}
	}
	return nil
}
