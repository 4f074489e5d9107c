package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Veraticus/hours-proxy/internal/config"
	"github.com/Veraticus/hours-proxy/internal/server"
	"github.com/Veraticus/hours-proxy/internal/sheets"
	"github.com/Veraticus/hours-proxy/internal/upstream"
	"github.com/Veraticus/hours-proxy/internal/xlsx"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy",
		Long: `Serve the proxy routes (/login, /all-clients, /time-logs, /edit-log,
/write-to-sheet, /export-xlsx, /healthz) until interrupted.

Publishing to Google Sheets is enabled when a spreadsheet id is configured
(sheets.spreadsheet_id or SPREADSHEET_ID) together with credentials.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :4000, or :$PORT)")
	cmd.Flags().String("api-base-url", "", "time-tracking API base URL (or API_BASE_URL)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("upstream.base_url", cmd.Flags().Lookup("api-base-url"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	api := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)

	// Left as a nil interface when disabled so the handler answers 503.
	var publisher server.ReportPublisher
	if cfg.Sheets != nil {
		service, err := sheets.NewGoogleService(ctx, *cfg.Sheets)
		if err != nil {
			return fmt.Errorf("failed to create sheets service: %w", err)
		}
		publisher = sheets.NewPublisher(service, *cfg.Sheets, logger)
		logger.Info("Spreadsheet publishing enabled",
			"spreadsheet_id", cfg.Sheets.SpreadsheetID,
			"sheet", cfg.Sheets.SheetName)
	} else {
		logger.Warn("Spreadsheet publishing disabled: no spreadsheet id configured")
	}

	srv := server.New(api, publisher, xlsx.Renderer{}, server.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		FilterArchived: cfg.Upstream.FilterArchived,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	return listenAndServe(ctx, httpServer, cfg.Server, logger)
}

// listenAndServe runs httpServer until ctx is canceled, then drains in-flight
// requests for at most ShutdownTimeout.
func listenAndServe(ctx context.Context, httpServer *http.Server, cfg config.ServerConfig, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
