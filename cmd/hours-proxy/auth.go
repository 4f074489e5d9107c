package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/hours-proxy/internal/config"
	"github.com/Veraticus/hours-proxy/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Obtain a Google Sheets refresh token",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Print a consent URL to open in your browser
2. Receive Google's redirect on a local callback
3. Save the refresh token to your config file

Only needed for the OAuth2 method; service accounts need no setup here.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().String("listen", sheets.DefaultCallbackAddr, "callback listen address")
	cmd.Flags().String("token-file", "", "also write the issued token as JSON to this path")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	clientID := firstNonEmpty(
		flagString(cmd, "client-id"),
		viper.GetString("sheets.client_id"),
		os.Getenv("GOOGLE_SHEETS_CLIENT_ID"),
	)
	clientSecret := firstNonEmpty(
		flagString(cmd, "client-secret"),
		viper.GetString("sheets.client_secret"),
		os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"),
	)
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	token, err := sheets.Authorize(ctx, sheets.OAuthFlow{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		ListenAddr:   flagString(cmd, "listen"),
		TokenFile:    config.ExpandPath(flagString(cmd, "token-file")),
		OnAuthURL: func(authURL string) {
			slog.Info("Please visit this URL to authenticate", "url", authURL)
		},
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	viper.Set("sheets.client_id", clientID)
	viper.Set("sheets.client_secret", clientSecret)
	viper.Set("sheets.refresh_token", token.RefreshToken)

	if err := saveConfig(); err != nil {
		slog.Warn("Could not save refresh token to config file", "error", err)
		slog.Info("Set GOOGLE_SHEETS_REFRESH_TOKEN or add sheets.refresh_token to your config.yaml manually")
		return nil
	}

	slog.Info("Authentication successful; refresh token saved", "config", viper.ConfigFileUsed())
	return nil
}

func flagString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configFile = filepath.Join(home, ".config", "hours-proxy", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}
