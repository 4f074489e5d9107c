// Package server exposes the proxy's HTTP surface.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/Veraticus/hours-proxy/internal/report"
	"github.com/Veraticus/hours-proxy/internal/sheets"
	"github.com/Veraticus/hours-proxy/internal/upstream"
	"github.com/rs/cors"
)

// UpstreamAPI is the time-tracking API as seen by the handlers.
type UpstreamAPI interface {
	Login(ctx context.Context, credentials []byte) (*upstream.Response, error)
	Clients(ctx context.Context, token string) (*upstream.Response, error)
	TimeLogs(ctx context.Context, token, dateFrom, dateTo string) (*upstream.Response, error)
	EditLog(ctx context.Context, token, logID string, body []byte) (*upstream.Response, error)
}

// ReportPublisher writes a layout to the spreadsheet.
type ReportPublisher interface {
	Publish(ctx context.Context, layout report.Layout, req sheets.Request) (*sheets.Result, error)
}

// WorkbookRenderer renders a layout as an xlsx workbook.
type WorkbookRenderer interface {
	Write(w io.Writer, layout report.Layout, title, dateRange string) error
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	FilterArchived bool
}

// Server routes requests to the upstream API and the spreadsheet publisher.
type Server struct {
	upstream  UpstreamAPI
	publisher ReportPublisher
	workbook  WorkbookRenderer
	logger    *slog.Logger
	// routes maps each registered path to its allowed methods.
	routes    map[string][]string
	options   Options
}

// New creates a server. A nil publisher disables /write-to-sheet and a nil
// renderer disables /export-xlsx; both then answer 503.
func New(api UpstreamAPI, publisher ReportPublisher, workbook WorkbookRenderer, options Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &Server{
		upstream:  api,
		publisher: publisher,
		workbook:  workbook,
		options:   options,
		logger:    logger,
	}
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes = make(map[string][]string)
	handle := func(method, path string, handler http.HandlerFunc) {
		mux.HandleFunc(method+" "+path, handler)
		s.routes[path] = append(s.routes[path], method)
	}

	handle(http.MethodPost, "/login", s.handleLogin)
	handle(http.MethodGet, "/all-clients", s.handleAllClients)
	handle(http.MethodGet, "/time-logs", s.handleTimeLogs)
	handle(http.MethodPut, "/edit-log", s.handleEditLog)
	handle(http.MethodPost, "/write-to-sheet", s.handleWriteToSheet)
	handle(http.MethodPost, "/export-xlsx", s.handleExportXLSX)
	handle(http.MethodGet, "/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleNotFound)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:       s.options.AllowedOrigins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:       []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:       []string{requestIDHeader, "Content-Disposition"},
		AllowCredentials:     true,
		OptionsSuccessStatus: http.StatusOK,
	})

	return s.withRequestID(s.withAccessLog(s.withRecover(corsHandler.Handler(mux))))
}
