package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/Veraticus/hours-proxy/internal/model"
	"github.com/Veraticus/hours-proxy/internal/report"
	"github.com/Veraticus/hours-proxy/internal/sheets"
	"github.com/Veraticus/hours-proxy/internal/xlsx"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	input     string
	output    string
	title     string
	dateRange string
}

func renderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a Detailed Report workbook from a JSON file",
		Long: `Render builds the Detailed Report layout offline and saves it as an xlsx
workbook. The input is either a JSON array of time-log entries or a
/write-to-sheet request body ({"entries": [...], "dateRange": "..."}).`,
		Example: `  hours-proxy render --input entries.json --out report.xlsx
  hours-proxy render -i request.json -o january.xlsx --date-range "January 2024"`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRender(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "JSON input file (required)")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "report.xlsx", "output workbook path")
	cmd.Flags().StringVar(&opts.title, "title", "", "report title (default: input sheetName or \"Detailed Report\")")
	cmd.Flags().StringVar(&opts.dateRange, "date-range", "", "date range label (default: input dateRange)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runRender(opts renderOptions) error {
	data, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	input, err := parseRenderInput(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.input, err)
	}

	title := firstNonEmpty(opts.title, input.title, sheets.DefaultSheetName)
	dateRange := firstNonEmpty(opts.dateRange, input.dateRange)

	layout := report.BuildLayout(input.entries)
	f, err := xlsx.Render(layout, title, dateRange)
	if err != nil {
		return fmt.Errorf("failed to render workbook: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close workbook", "error", closeErr)
		}
	}()

	if err := f.SaveAs(opts.output); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("Rendered workbook",
		"path", opts.output,
		"entries", len(input.entries),
		"days", len(layout.Groups),
		"billable_amount", layout.Totals.BillableAmount.Fixed())
	return nil
}

type renderInput struct {
	title     string
	dateRange string
	entries   []model.TimeLogEntry
}

// parseRenderInput accepts a bare entries array or a request body object.
func parseRenderInput(data []byte) (*renderInput, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		entries, err := report.DecodeEntries(data)
		if err != nil {
			return nil, err
		}
		return &renderInput{entries: entries}, nil
	}

	var body struct {
		Entries   json.RawMessage `json:"entries"`
		DateRange string          `json:"dateRange"`
		SheetName string          `json:"sheetName"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, common.InvalidInput("input must be a JSON array or object: %v", err)
	}
	if len(body.Entries) == 0 {
		return nil, common.InvalidInput("entries are required")
	}

	entries, err := report.DecodeEntries(body.Entries)
	if err != nil {
		return nil, err
	}
	return &renderInput{
		title:     body.SheetName,
		dateRange: body.DateRange,
		entries:   entries,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
