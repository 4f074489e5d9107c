// Package report turns a flat list of time-log entries into the grouped,
// totaled row layout published as the Detailed Report.
package report

import (
	"github.com/Veraticus/hours-proxy/internal/model"
)

// ColumnCount is the fixed width of every report row (columns A..J).
const ColumnCount = 10

// Column positions within a row.
const (
	ColDate = iota
	ColUser
	ColClient
	ColProject
	ColTask
	ColBillable
	ColBillableAmount
	ColStartFinish
	ColLaborHours
	ColBillableHours
)

// TotalLabel is the column A value of the total row.
const TotalLabel = "TOTAL"

// ColumnHeaders are the labels written above the data region.
var ColumnHeaders = [ColumnCount]string{
	"Date",
	"User",
	"Client",
	"Project",
	"Task",
	"Billable",
	"Billable Amount",
	"Start / Finish",
	"Labor Hours",
	"Billable Hours",
}

// RowKind tags a row as a group header, a detail row or the total row.
type RowKind int

// Row kinds.
const (
	RowDetail RowKind = iota
	RowHeader
	RowTotal
)

func (k RowKind) String() string {
	switch k {
	case RowHeader:
		return "header"
	case RowTotal:
		return "total"
	default:
		return "detail"
	}
}

// Row is one output row with named fields. Cells flattens it to the
// positional tuple written to the sheet.
type Row struct {
	Date           string
	User           string
	Client         string
	Project        string
	Task           string
	Billable       string
	StartFinish    string
	BillableAmount model.Number
	LaborHours     model.Number
	BillableHours  model.Number
	Kind           RowKind
}

// Cells renders the row as ColumnCount display values. Aggregate columns are
// rounded to two decimals here and nowhere else.
func (r Row) Cells() []any {
	cells := make([]any, ColumnCount)
	cells[ColDate] = r.Date
	cells[ColUser] = r.User
	cells[ColClient] = r.Client
	cells[ColProject] = r.Project
	cells[ColTask] = r.Task
	cells[ColBillable] = r.Billable
	cells[ColBillableAmount] = r.BillableAmount.Fixed()
	cells[ColStartFinish] = r.StartFinish
	cells[ColLaborHours] = r.LaborHours.Fixed()
	cells[ColBillableHours] = r.BillableHours.Fixed()
	return cells
}

// DateGroup holds the entries of one calendar date and their sums.
type DateGroup struct {
	Key     string
	Label   string
	Entries []model.TimeLogEntry
	Totals  model.Totals
}

// Layout is the aggregator output. HeaderRows and TotalRow index into Rows.
type Layout struct {
	Rows       []Row
	Groups     []DateGroup
	HeaderRows []int
	Totals     model.Totals
	TotalRow   int
}

// Values flattens every row for a single range write.
func (l Layout) Values() [][]any {
	values := make([][]any, 0, len(l.Rows))
	for _, row := range l.Rows {
		values = append(values, row.Cells())
	}
	return values
}
