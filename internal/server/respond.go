package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/Veraticus/hours-proxy/internal/upstream"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// relay writes an upstream reply back unchanged.
func relay(w http.ResponseWriter, status int, contentType string, body []byte) {
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func relayResponse(w http.ResponseWriter, resp *upstream.Response) {
	relay(w, resp.StatusCode, resp.ContentType, resp.Body)
}

// writeError maps err onto a status and an {"error": ...} body. Upstream JSON
// error bodies are relayed as they are.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.StatusCode(err)
	logger := common.LoggerFrom(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	var upstreamErr *common.UpstreamError
	if errors.As(err, &upstreamErr) {
		if json.Valid(upstreamErr.Body) {
			relay(w, upstreamErr.StatusCode, "application/json", upstreamErr.Body)
			return
		}
		writeJSON(w, status, errorBody{Error: upstreamMessage(upstreamErr)})
		return
	}

	body := errorBody{Error: common.UserMessage(err)}
	if errors.Is(err, common.ErrPublishFailed) {
		body.Detail = err.Error()
		var userErr *common.UserError
		if errors.As(err, &userErr) && userErr.Err != nil {
			body.Detail = userErr.Err.Error()
		}
	}
	writeJSON(w, status, body)
}

func upstreamMessage(err *common.UpstreamError) string {
	if len(err.Body) == 0 {
		return http.StatusText(err.StatusCode)
	}
	return string(err.Body)
}
