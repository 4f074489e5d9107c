package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/Veraticus/hours-proxy/internal/model"
	"github.com/Veraticus/hours-proxy/internal/report"
	"github.com/Veraticus/hours-proxy/internal/sheets"
	"github.com/Veraticus/hours-proxy/internal/upstream"
)

const (
	maxRequestBytes = 1 << 20
	maxReportBytes  = 10 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// reportRequest is the body of /write-to-sheet and /export-xlsx.
type reportRequest struct {
	GrandTotals *model.Totals   `json:"grandTotals"`
	Entries     json.RawMessage `json:"entries"`
	DateRange   string          `json:"dateRange"`
}

type writeResponse struct {
	Message string `json:"message"`
	Sheet   string `json:"sheet"`
	Range   string `json:"range"`
	Rows    int    `json:"rows"`
	Created bool   `json:"created"`
}

// handleNotFound answers unmatched requests in the same JSON shape as every
// other error: 405 with an Allow header for a known path, 404 otherwise.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if methods, ok := s.routes[r.URL.Path]; ok {
		w.Header().Set("Allow", strings.Join(methods, ", "))
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed."})
		return
	}
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found."})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, maxRequestBytes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !json.Valid(body) {
		s.writeError(w, r, common.InvalidInput("request body must be JSON credentials"))
		return
	}

	resp, err := s.upstream.Login(r.Context(), body)
	if err != nil {
		common.LogError(r.Context(), err, "error connecting to the API", nil)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Error connecting to the API."})
		return
	}

	relayResponse(w, resp)
}

func (s *Server) handleAllClients(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.upstream.Clients(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body := resp.Body
	if s.options.FilterArchived {
		body, err = upstream.FilterArchived(body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	relay(w, http.StatusOK, "application/json", body)
}

func (s *Server) handleTimeLogs(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	dateFrom := strings.TrimSpace(query.Get("DateFrom"))
	dateTo := strings.TrimSpace(query.Get("DateTo"))
	if dateFrom == "" || dateTo == "" {
		s.writeError(w, r, common.InvalidInput("DateFrom and DateTo query parameters are required"))
		return
	}

	resp, err := s.upstream.TimeLogs(r.Context(), token, dateFrom, dateTo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	relay(w, http.StatusOK, resp.ContentType, resp.Body)
}

func (s *Server) handleEditLog(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := readBody(w, r, maxRequestBytes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	logID, err := editLogID(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.upstream.EditLog(r.Context(), token, logID, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	relayResponse(w, resp)
}

func (s *Server) handleWriteToSheet(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Spreadsheet publishing is not configured."})
		return
	}

	req, layout, err := s.decodeReport(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.publisher.Publish(r.Context(), layout, sheets.Request{
		DateRangeLabel: req.DateRange,
		GrandTotals:    req.GrandTotals,
	})
	if err != nil {
		s.writeError(w, r, common.NewUserError("Failed to write data to the sheet.", err))
		return
	}

	writeJSON(w, http.StatusOK, writeResponse{
		Message: "Data written to the sheet successfully.",
		Sheet:   result.SheetName,
		Range:   result.Range,
		Rows:    result.EndRow - result.StartRow + 1,
		Created: result.Created,
	})
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	if s.workbook == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Workbook export is not configured."})
		return
	}

	req, layout, err := s.decodeReport(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.workbook.Write(&buf, layout, sheets.DefaultSheetName, req.DateRange); err != nil {
		s.writeError(w, r, fmt.Errorf("rendering workbook: %w", err))
		return
	}

	filename := fmt.Sprintf("detailed-report-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) decodeReport(w http.ResponseWriter, r *http.Request) (*reportRequest, report.Layout, error) {
	body, err := readBody(w, r, maxReportBytes)
	if err != nil {
		return nil, report.Layout{}, err
	}

	var req reportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, report.Layout{}, common.InvalidInput("request body must be a JSON object")
	}
	if len(req.Entries) == 0 {
		return nil, report.Layout{}, common.InvalidInput("entries are required")
	}

	entries, err := report.DecodeEntries(req.Entries)
	if err != nil {
		return nil, report.Layout{}, err
	}

	return &req, report.BuildLayout(entries), nil
}

// bearerToken extracts the caller's credential. Both "Bearer <token>" and a
// bare token are accepted.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", common.NewUserError("Missing authorization header.", common.ErrUnauthorized)
	}

	token := header
	if strings.EqualFold(header, "bearer") {
		token = ""
	} else if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		token = strings.TrimSpace(header[7:])
	}

	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", common.NewUserError("Malformed authorization header.", common.ErrUnauthorized)
	}
	return token, nil
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, common.InvalidInput("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, common.InvalidInput("unable to read request body")
	}
	return body, nil
}

// editLogID pulls the log id out of an edit body without touching the rest.
// Numeric ids are passed through as written so large integers keep every
// digit.
func editLogID(body []byte) (string, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return "", common.InvalidInput("request body must be a JSON object")
	}

	raw, ok := payload["id"]
	if !ok {
		return "", common.InvalidInput("id is required")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var id any
	if err := decoder.Decode(&id); err != nil {
		return "", common.InvalidInput("id is malformed")
	}

	switch v := id.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	case json.Number:
		if isDigits(v.String()) {
			return v.String(), nil
		}
		return "", common.InvalidInput("id must be a non-negative integer, got %s", v)
	}
	return "", common.InvalidInput("id must be a non-empty string or number")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
