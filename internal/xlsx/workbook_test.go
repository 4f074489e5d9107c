package xlsx

import (
	"bytes"
	"testing"

	"github.com/Veraticus/hours-proxy/internal/model"
	"github.com/Veraticus/hours-proxy/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleLayout() report.Layout {
	return report.BuildLayout([]model.TimeLogEntry{
		{Date: "2024-01-02", UserName: "Ann", TaskName: "Design", BillableAmount: model.NewNumber(10), LaborHours: model.NewNumber(2), BillableHours: model.NewNumber(2)},
		{Date: "2024-01-01", UserName: "Bob", TaskName: "Review", BillableAmount: model.NewNumber(5), LaborHours: model.NewNumber(1), BillableHours: model.NewNumber(1)},
	})
}

func TestRenderer_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Renderer{}.Write(&buf, sampleLayout(), "Detailed Report", "Jan 1 - Jan 2"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Detailed Report"}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	cell := func(ref string) string {
		t.Helper()
		v, err := f.GetCellValue("Detailed Report", ref, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Detailed Report", cell("A1"))
	assert.Equal(t, "Jan 1 - Jan 2", cell("B2"))
	assert.Equal(t, "15.00", cell("B3"))
	assert.Equal(t, "Date", cell("A5"))
	assert.Equal(t, "Billable Hours", cell("J5"))

	assert.Equal(t, "Monday, January 1, 2024", cell("A6"))
	assert.Equal(t, "5", cell("G6"))
	assert.Equal(t, "Bob", cell("B7"))
	assert.Equal(t, "Tuesday, January 2, 2024", cell("A8"))
	assert.Equal(t, "Ann", cell("B9"))
	assert.Equal(t, "TOTAL", cell("A10"))
	assert.Equal(t, "15", cell("G10"))
	assert.Equal(t, "3", cell("I10"))
}

func TestRender_StylesHeaderAndTotalRows(t *testing.T) {
	f, err := Render(sampleLayout(), "Detailed Report", "")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	headerStyle, err := f.GetCellStyle("Detailed Report", "A6")
	require.NoError(t, err)
	detailStyle, err := f.GetCellStyle("Detailed Report", "A7")
	require.NoError(t, err)
	totalStyle, err := f.GetCellStyle("Detailed Report", "A10")
	require.NoError(t, err)

	assert.NotEqual(t, headerStyle, detailStyle)
	assert.NotEqual(t, totalStyle, detailStyle)
	assert.NotEqual(t, headerStyle, totalStyle)

	style, err := f.GetStyle(headerStyle)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestRender_EmptyLayout(t *testing.T) {
	f, err := Render(report.BuildLayout(nil), "Detailed Report", "")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	v, err := f.GetCellValue("Detailed Report", "A6")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", v)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Detailed Report", SheetName("Detailed Report"))
	assert.Equal(t, "Hours 2024-01-01", SheetName("Hours 2024/01/01"))
	assert.Equal(t, "Report", SheetName("   "))
	assert.Equal(t, "Quoted", SheetName("'Quoted'"))
	assert.Len(t, []rune(SheetName("An extremely long report title that keeps going")), 31)
}
