package report

import (
	"testing"

	"github.com/Veraticus/hours-proxy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderBlock(t *testing.T) {
	totals := model.Totals{
		BillableAmount: model.ParseNumber("1234.5"),
		LaborHours:     model.ParseNumber("7.25"),
		BillableHours:  model.ParseNumber("6"),
	}

	rows := HeaderBlock("Detailed Report", "2024-01-01 to 2024-01-31", totals)

	require.Len(t, rows, HeaderBlockRows)
	for _, row := range rows {
		assert.Len(t, row, ColumnCount)
	}
	assert.Equal(t, "Detailed Report", rows[0][0])
	assert.Equal(t, "2024-01-01 to 2024-01-31", rows[1][1])
	assert.Equal(t, []any{
		"Total Billable Amount:", "1234.50",
		"Total Labor Hours:", "7.25",
		"Total Billable Hours:", "6.00",
		"", "", "", "",
	}, rows[2])
	assert.Equal(t, []any{"", "", "", "", "", "", "", "", "", ""}, rows[3])
	assert.Equal(t, "Date", rows[4][ColDate])
	assert.Equal(t, "Billable Hours", rows[4][ColBillableHours])
}
