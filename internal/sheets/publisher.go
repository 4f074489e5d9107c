package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/Veraticus/hours-proxy/internal/model"
	"github.com/Veraticus/hours-proxy/internal/report"
	"google.golang.org/api/sheets/v4"
)

// HeaderBlockRows is the number of fixed rows above the data region.
const HeaderBlockRows = report.HeaderBlockRows

const lastColumn = "J"

var (
	headerRowColor = &sheets.Color{Red: 0.85, Green: 0.92, Blue: 0.98}
	totalRowColor  = &sheets.Color{Red: 0.72, Green: 0.84, Blue: 0.95}
	labelRowColor  = &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9}

	columnWidths = [report.ColumnCount]int64{220, 140, 160, 160, 260, 80, 130, 130, 100, 110}
)

// Request describes one publish call.
type Request struct {
	// GrandTotals are the totals the caller computed, if any. They are only
	// compared against the layout; the layout's own totals are written.
	GrandTotals    *model.Totals
	SheetName      string
	DateRangeLabel string
}

// Result reports where the layout was written.
type Result struct {
	SpreadsheetID string
	SheetName     string
	Range         string
	SheetID       int64
	StartRow      int
	EndRow        int
	Created       bool
}

// Publisher writes report layouts into the target sheet.
type Publisher struct {
	service Service
	logger  *slog.Logger
	config  Config
}

// NewPublisher creates a publisher bound to one spreadsheet.
func NewPublisher(service Service, config Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	if config.SheetName == "" {
		config.SheetName = DefaultSheetName
	}
	return &Publisher{
		service: service,
		config:  config,
		logger:  logger,
	}
}

// Publish resolves or creates the sheet, clears the old data region, writes
// the layout and applies formatting. The steps are not atomic: a failure
// after the clear leaves the sheet partially updated.
func (p *Publisher) Publish(ctx context.Context, layout report.Layout, req Request) (*Result, error) {
	sheetName := req.SheetName
	if sheetName == "" {
		sheetName = p.config.SheetName
	}
	spreadsheetID := p.config.SpreadsheetID

	p.logger.Info("publishing report",
		"sheet", sheetName,
		"rows", len(layout.Rows),
		"groups", len(layout.Groups),
		"date_range", req.DateRangeLabel)

	if req.GrandTotals != nil && !sameDisplayTotals(*req.GrandTotals, layout.Totals) {
		p.logger.Warn("request totals differ from computed totals",
			"request_billable_amount", req.GrandTotals.BillableAmount.Fixed(),
			"computed_billable_amount", layout.Totals.BillableAmount.Fixed(),
			"request_labor_hours", req.GrandTotals.LaborHours.Fixed(),
			"computed_labor_hours", layout.Totals.LaborHours.Fixed())
	}

	sheet, created, err := p.resolveSheet(ctx, spreadsheetID, sheetName)
	if err != nil {
		return nil, publishErr("resolve sheet", err)
	}

	quoted := quoteSheetName(sheetName)
	firstRow := HeaderBlockRows + 1
	lastRow := HeaderBlockRows + len(layout.Rows)

	if !created {
		dataRegion := fmt.Sprintf("%s!A%d:%s", quoted, firstRow, lastColumn)
		if clearErr := p.service.ClearValues(ctx, spreadsheetID, dataRegion); clearErr != nil {
			return nil, publishErr("clear data region", clearErr)
		}
	}

	dataRange := fmt.Sprintf("%s!A%d:%s%d", quoted, firstRow, lastColumn, lastRow)
	data := []*sheets.ValueRange{
		{
			Range:  fmt.Sprintf("%s!A1:%s%d", quoted, lastColumn, HeaderBlockRows),
			Values: report.HeaderBlock(sheetName, req.DateRangeLabel, layout.Totals),
		},
		{
			Range:  dataRange,
			Values: layout.Values(),
		},
	}
	if writeErr := p.service.UpdateValues(ctx, spreadsheetID, data); writeErr != nil {
		return nil, publishErr("write values", writeErr)
	}

	if p.config.EnableFormatting {
		var requests []*sheets.Request
		if created {
			requests = append(requests, setupRequests(sheet.ID)...)
		} else {
			requests = append(requests, resetDataFormatRequest(sheet.ID))
		}
		requests = append(requests, layoutRequests(sheet.ID, layout)...)

		if fmtErr := p.service.BatchUpdate(ctx, spreadsheetID, requests); fmtErr != nil {
			return nil, publishErr("apply formatting", fmtErr)
		}
	}

	p.logger.Info("report published",
		"spreadsheet_id", spreadsheetID,
		"sheet_id", sheet.ID,
		"created", created,
		"range", dataRange)

	return &Result{
		SpreadsheetID: spreadsheetID,
		SheetID:       sheet.ID,
		SheetName:     sheetName,
		Created:       created,
		StartRow:      firstRow,
		EndRow:        lastRow,
		Range:         dataRange,
	}, nil
}

// resolveSheet finds the target tab or creates it. Two requests publishing
// to a missing tab at the same time both try to create it; the second
// AddSheet is rejected by the backend and that publish fails.
func (p *Publisher) resolveSheet(ctx context.Context, spreadsheetID, name string) (*SheetInfo, bool, error) {
	sheet, err := p.service.FindSheet(ctx, spreadsheetID, name)
	if err != nil {
		return nil, false, err
	}
	if sheet != nil {
		return sheet, false, nil
	}

	sheet, err = p.service.AddSheet(ctx, spreadsheetID, name)
	if err != nil {
		return nil, false, err
	}

	p.logger.Info("created sheet", "sheet", name, "sheet_id", sheet.ID)
	return sheet, true, nil
}

func publishErr(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrPublishFailed, step, err)
}

func sameDisplayTotals(a, b model.Totals) bool {
	return a.BillableAmount.Fixed() == b.BillableAmount.Fixed() &&
		a.LaborHours.Fixed() == b.LaborHours.Fixed() &&
		a.BillableHours.Fixed() == b.BillableHours.Fixed()
}

// quoteSheetName quotes a tab title for use in A1 notation.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func rowRange(sheetID int64, startRow, endRow int64) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    startRow,
		EndRowIndex:      endRow,
		StartColumnIndex: 0,
		EndColumnIndex:   report.ColumnCount,
	}
}

func columnRange(sheetID int64, startRow, endRow int64, startCol, endCol int64) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    startRow,
		EndRowIndex:      endRow,
		StartColumnIndex: startCol,
		EndColumnIndex:   endCol,
	}
}

func styleRow(sheetID int64, row int64, color *sheets.Color) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: rowRange(sheetID, row, row+1),
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					BackgroundColor: color,
					TextFormat:      &sheets.TextFormat{Bold: true},
				},
			},
			Fields: "userEnteredFormat(backgroundColor,textFormat)",
		},
	}
}

func numberFormat(gridRange *sheets.GridRange, format *sheets.NumberFormat) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: gridRange,
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{NumberFormat: format},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}

// resetDataFormatRequest drops formatting left in the data region by the
// previous publish, whose header rows may sit at different positions.
func resetDataFormatRequest(sheetID int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    HeaderBlockRows,
				StartColumnIndex: 0,
				EndColumnIndex:   report.ColumnCount,
			},
			Cell:   &sheets.CellData{},
			Fields: "userEnteredFormat",
		},
	}
}

// layoutRequests derives the per-publish directives from the layout indices.
func layoutRequests(sheetID int64, layout report.Layout) []*sheets.Request {
	start := int64(HeaderBlockRows)
	end := start + int64(len(layout.Rows))

	requests := []*sheets.Request{
		numberFormat(
			columnRange(sheetID, start, end, report.ColBillableAmount, report.ColBillableAmount+1),
			&sheets.NumberFormat{Type: "CURRENCY", Pattern: "$#,##0.00"},
		),
		numberFormat(
			columnRange(sheetID, start, end, report.ColLaborHours, report.ColBillableHours+1),
			&sheets.NumberFormat{Type: "NUMBER", Pattern: "0.00"},
		),
	}

	for _, idx := range layout.HeaderRows {
		requests = append(requests, styleRow(sheetID, start+int64(idx), headerRowColor))
	}
	requests = append(requests, styleRow(sheetID, start+int64(layout.TotalRow), totalRowColor))

	return requests
}

// setupRequests is the one-time cosmetic setup applied when the sheet is created.
func setupRequests(sheetID int64) []*sheets.Request {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: rowRange(sheetID, 0, 1),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: rowRange(sheetID, 1, 3),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		styleRow(sheetID, HeaderBlockRows-1, labelRowColor),
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: HeaderBlockRows,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	for i, width := range columnWidths {
		requests = append(requests, &sheets.Request{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: int64(i),
					EndIndex:   int64(i + 1),
				},
				Properties: &sheets.DimensionProperties{PixelSize: width},
				Fields:     "pixelSize",
			},
		})
	}

	return requests
}
