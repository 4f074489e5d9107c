package config

import (
	"os"

	"github.com/Veraticus/hours-proxy/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads the Google Sheets publisher configuration from v and
// the environment. Viper keys win over direct environment variables. It
// returns nil when no spreadsheet is configured at all.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(firstNonEmpty(
		v.GetString("sheets.service_account_path"),
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_PATH"),
	))
	config.ServiceAccountJSON = firstNonEmpty(
		v.GetString("sheets.service_account_json"),
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
	)
	config.ClientID = firstNonEmpty(
		v.GetString("sheets.client_id"),
		os.Getenv("GOOGLE_SHEETS_CLIENT_ID"),
	)
	config.ClientSecret = firstNonEmpty(
		v.GetString("sheets.client_secret"),
		os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"),
	)
	config.RefreshToken = firstNonEmpty(
		v.GetString("sheets.refresh_token"),
		os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"),
	)
	config.SpreadsheetID = firstNonEmpty(
		v.GetString("sheets.spreadsheet_id"),
		os.Getenv("SPREADSHEET_ID"),
	)
	config.SheetName = firstNonEmpty(
		v.GetString("sheets.sheet_name"),
		os.Getenv("SHEET_NAME"),
		sheets.DefaultSheetName,
	)
	if v.IsSet("sheets.enable_formatting") {
		config.EnableFormatting = v.GetBool("sheets.enable_formatting")
	}

	if config.SpreadsheetID == "" {
		return nil, nil //nolint:nilnil // publishing is optional
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
