package report

import "github.com/Veraticus/hours-proxy/internal/model"

// HeaderBlockRows is the number of fixed rows above the data region:
// title, date range, totals, spacer and column headers.
const HeaderBlockRows = 5

// HeaderBlock builds the fixed rows written above the layout. Every row is
// padded to full width so stale cells from an earlier write are overwritten.
func HeaderBlock(title, dateRange string, totals model.Totals) [][]any {
	columns := make([]any, 0, ColumnCount)
	for _, label := range ColumnHeaders {
		columns = append(columns, label)
	}

	rows := [][]any{
		{title},
		{"Date Range:", dateRange},
		{
			"Total Billable Amount:", totals.BillableAmount.Fixed(),
			"Total Labor Hours:", totals.LaborHours.Fixed(),
			"Total Billable Hours:", totals.BillableHours.Fixed(),
		},
		{},
		columns,
	}

	for i, row := range rows {
		for len(row) < ColumnCount {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows
}
