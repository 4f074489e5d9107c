package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/Veraticus/hours-proxy/internal/xlsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseRenderInput(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantTitle     string
		wantDateRange string
		wantEntries   int
		wantErr       bool
	}{
		{
			name:        "bare array",
			input:       ` [{"date": "2024-01-01"}, {"date": "2024-01-02"}]`,
			wantEntries: 2,
		},
		{
			name:          "request body",
			input:         `{"entries": [{"date": "2024-01-01"}], "dateRange": "January", "sheetName": "Hours"}`,
			wantTitle:     "Hours",
			wantDateRange: "January",
			wantEntries:   1,
		},
		{
			name:    "object without entries",
			input:   `{"dateRange": "January"}`,
			wantErr: true,
		},
		{
			name:    "array of scalars",
			input:   `[1, 2]`,
			wantErr: true,
		},
		{
			name:    "not json",
			input:   `date,hours`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRenderInput([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.title)
			assert.Equal(t, tt.wantDateRange, got.dateRange)
			assert.Len(t, got.entries, tt.wantEntries)
		})
	}
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "entries.json")
	output := filepath.Join(dir, "report.xlsx")
	require.NoError(t, os.WriteFile(input, []byte(`{
		"entries": [
			{"date": "2024-01-02", "userName": "Ann", "billableAmount": 10, "laborHours": 2, "billableHours": 2},
			{"date": "2024-01-01", "userName": "Bob", "billableAmount": 5, "laborHours": 1, "billableHours": 1}
		],
		"dateRange": "Jan 1 - Jan 2"
	}`), 0o600))

	err := runRender(renderOptions{input: input, output: output, title: "Team Hours"})
	require.NoError(t, err)

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheet := xlsx.SheetName("Team Hours")
	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Team Hours", title)

	label, err := f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Jan 1 - Jan 2", label)

	firstDetail, err := f.GetCellValue(sheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "Bob", firstDetail)

	total, err := f.GetCellValue(sheet, "A10")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", total)
}

func TestRunRender_MissingInput(t *testing.T) {
	err := runRender(renderOptions{input: filepath.Join(t.TempDir(), "missing.json"), output: "unused.xlsx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input")
}
