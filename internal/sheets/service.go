package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetInfo identifies one tab of a spreadsheet.
type SheetInfo struct {
	Title string
	ID    int64
}

// Service is the subset of the spreadsheet backend the publisher needs.
type Service interface {
	// FindSheet returns nil without error when no tab has the given title.
	FindSheet(ctx context.Context, spreadsheetID, title string) (*SheetInfo, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) (*SheetInfo, error)
	ClearValues(ctx context.Context, spreadsheetID, a1Range string) error
	UpdateValues(ctx context.Context, spreadsheetID string, data []*sheets.ValueRange) error
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
}

// GoogleService implements Service on top of the Sheets v4 API.
type GoogleService struct {
	api *sheets.Service
}

// NewGoogleService authenticates with the configured credentials and returns
// a ready service.
func NewGoogleService(ctx context.Context, config Config) (*GoogleService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tokenSource, err := tokenSource(ctx, config)
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	return NewGoogleServiceWithOptions(ctx, option.WithHTTPClient(httpClient))
}

// NewGoogleServiceWithOptions builds a service from raw client options.
func NewGoogleServiceWithOptions(ctx context.Context, opts ...option.ClientOption) (*GoogleService, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return &GoogleService{api: srv}, nil
}

func tokenSource(ctx context.Context, config Config) (oauth2.TokenSource, error) {
	if config.HasServiceAccount() {
		jsonKey := []byte(config.ServiceAccountJSON)
		if config.ServiceAccountPath != "" {
			var err error
			jsonKey, err = os.ReadFile(config.ServiceAccountPath)
			if err != nil {
				return nil, fmt.Errorf("unable to read service account key file: %w", err)
			}
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		return jwtConfig.TokenSource(ctx), nil
	}

	client := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}

	token := &oauth2.Token{
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
	}

	return client.TokenSource(ctx, token), nil
}

// FindSheet looks up a tab by title.
func (g *GoogleService) FindSheet(ctx context.Context, spreadsheetID, title string) (*SheetInfo, error) {
	spreadsheet, err := g.api.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to access spreadsheet %s: %w", spreadsheetID, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return &SheetInfo{ID: sheet.Properties.SheetId, Title: title}, nil
		}
	}
	return nil, nil //nolint:nilnil // absent tab is not an error
}

// AddSheet creates a new tab and returns its identity.
func (g *GoogleService) AddSheet(ctx context.Context, spreadsheetID, title string) (*SheetInfo, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			},
		},
	}

	resp, err := g.api.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to add sheet %q: %w", title, err)
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return nil, fmt.Errorf("add sheet %q: empty reply", title)
	}

	return &SheetInfo{ID: resp.Replies[0].AddSheet.Properties.SheetId, Title: title}, nil
}

// ClearValues clears cell values in the given A1 range.
func (g *GoogleService) ClearValues(ctx context.Context, spreadsheetID, a1Range string) error {
	_, err := g.api.Spreadsheets.Values.Clear(spreadsheetID, a1Range, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// UpdateValues writes every range in one call.
func (g *GoogleService) UpdateValues(ctx context.Context, spreadsheetID string, data []*sheets.ValueRange) error {
	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	_, err := g.api.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

// BatchUpdate applies presentation requests.
func (g *GoogleService) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}
	_, err := g.api.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}
