// Package upstream forwards calls to the time-tracking REST API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/hours-proxy/internal/common"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
)

// Response is a successful upstream reply, relayed verbatim.
type Response struct {
	ContentType string
	Body        []byte
	StatusCode  int
}

// Client talks to the time-tracking API on behalf of the caller. It holds no
// credentials of its own; every call carries the caller's token.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Login exchanges the caller's credentials for a token. The reply is
// returned whatever its status so the caller sees the API's own message.
func (c *Client) Login(ctx context.Context, credentials []byte) (*Response, error) {
	resp, err := c.do(ctx, http.MethodPost, "/tokens/login", "", credentials)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return resp, nil
}

// Clients lists the account's clients.
func (c *Client) Clients(ctx context.Context, token string) (*Response, error) {
	resp, err := c.do(ctx, http.MethodGet, "/Clients", token, nil)
	if err != nil {
		return nil, fmt.Errorf("getting clients: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// TimeLogs fetches the activity report between two dates inclusive.
func (c *Client) TimeLogs(ctx context.Context, token, dateFrom, dateTo string) (*Response, error) {
	query := url.Values{}
	query.Set("DateFrom", dateFrom)
	query.Set("DateTo", dateTo)

	resp, err := c.do(ctx, http.MethodGet, "/Reports/activity?"+query.Encode(), token, nil)
	if err != nil {
		return nil, fmt.Errorf("getting time logs: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// EditLog updates one time log with the body supplied by the caller.
func (c *Client) EditLog(ctx context.Context, token, logID string, body []byte) (*Response, error) {
	resp, err := c.do(ctx, http.MethodPut, "/Logs/"+url.PathEscape(logID), token, body)
	if err != nil {
		return nil, fmt.Errorf("editing log %s: %w", logID, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("upstream API request", "method", method, "path", redactQuery(path))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("upstream transport error", "method", method, "path", redactQuery(path), "error", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", common.ErrTransport, err)
	}

	c.logger.Debug("upstream API response",
		"method", method,
		"path", redactQuery(path),
		"status", resp.StatusCode,
		"bytes", len(respBody),
		"elapsed", time.Since(start))

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}

// checkStatus turns a non-2xx reply into an UpstreamError.
func checkStatus(resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &common.UpstreamError{
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType,
		Body:        resp.Body,
	}
}

func redactQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// FilterArchived drops clients whose "archived" flag is true from a JSON
// array. Bodies that are not arrays are returned unchanged.
func FilterArchived(body []byte) ([]byte, error) {
	var clients []json.RawMessage
	if err := json.Unmarshal(body, &clients); err != nil {
		return body, nil //nolint:nilerr // non-array payloads pass through
	}

	kept := make([]json.RawMessage, 0, len(clients))
	for _, raw := range clients {
		var flags struct {
			Archived bool `json:"archived"`
		}
		if err := json.Unmarshal(raw, &flags); err == nil && flags.Archived {
			continue
		}
		kept = append(kept, raw)
	}

	filtered, err := json.Marshal(kept)
	if err != nil {
		return nil, fmt.Errorf("encoding clients: %w", err)
	}
	return filtered, nil
}
