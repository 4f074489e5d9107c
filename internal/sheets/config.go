// Package sheets provides Google Sheets API integration for publishing the
// Detailed Report.
package sheets

import (
	"fmt"
	"os"
)

// DefaultSheetName is the tab that receives the published layout.
const DefaultSheetName = "Detailed Report"

// Config holds the configuration for the Google Sheets publisher.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	ServiceAccountJSON string
	SpreadsheetID      string
	SheetName          string
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SheetName:        DefaultSheetName,
		EnableFormatting: true,
	}
}

// LoadFromEnv loads the configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	// OAuth2 credentials
	c.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	c.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	c.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")

	// Service account (alternative to OAuth2)
	c.ServiceAccountPath = os.Getenv("GOOGLE_SERVICE_ACCOUNT_PATH")
	c.ServiceAccountJSON = os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")

	c.SpreadsheetID = os.Getenv("SPREADSHEET_ID")
	if v := os.Getenv("SHEET_NAME"); v != "" {
		c.SheetName = v
	}

	if c.SheetName == "" {
		c.SheetName = DefaultSheetName
	}

	return c.Validate()
}

// HasServiceAccount reports whether service account credentials are configured.
func (c *Config) HasServiceAccount() bool {
	return c.ServiceAccountPath != "" || c.ServiceAccountJSON != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.HasServiceAccount()

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.ServiceAccountPath != "" && c.ServiceAccountJSON != "" {
		return fmt.Errorf("service account configured twice; use either a key file or inline JSON")
	}

	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet ID is required")
	}

	if c.SheetName == "" {
		return fmt.Errorf("sheet name is required")
	}

	return nil
}
