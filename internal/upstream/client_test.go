package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	header http.Header
	method string
	path   string
	query  string
	body   string
}

func newTestServer(t *testing.T, status int, body string) (*Client, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL+"/", time.Second, nil), &requests
}

func TestClient_Login(t *testing.T) {
	client, requests := newTestServer(t, http.StatusOK, `{"accessToken":"abc"}`)

	resp, err := client.Login(context.Background(), []byte(`{"email":"a@b.c","password":"x"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"accessToken":"abc"}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.ContentType)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/tokens/login", req.path)
	assert.Equal(t, `{"email":"a@b.c","password":"x"}`, req.body)
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))
	assert.Empty(t, req.header.Get("Authorization"))
}

func TestClient_LoginRelaysErrorStatus(t *testing.T) {
	client, _ := newTestServer(t, http.StatusBadRequest, `{"message":"invalid credentials"}`)

	resp, err := client.Login(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"message":"invalid credentials"}`, string(resp.Body))
}

func TestClient_Clients(t *testing.T) {
	client, requests := newTestServer(t, http.StatusOK, `[{"id":1,"name":"Acme"}]`)

	resp, err := client.Clients(context.Background(), "tok-123")
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id":1,"name":"Acme"}]`, string(resp.Body))
	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/Clients", req.path)
	assert.Equal(t, "Bearer tok-123", req.header.Get("Authorization"))
}

func TestClient_TimeLogs(t *testing.T) {
	client, requests := newTestServer(t, http.StatusOK, `[]`)

	_, err := client.TimeLogs(context.Background(), "tok", "2024-01-01", "2024-01-31")
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/Reports/activity", req.path)
	assert.Equal(t, "DateFrom=2024-01-01&DateTo=2024-01-31", req.query)
}

func TestClient_EditLog(t *testing.T) {
	client, requests := newTestServer(t, http.StatusOK, `{"id":9}`)

	resp, err := client.EditLog(context.Background(), "tok", "9", []byte(`{"id":9,"note":"x"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/Logs/9", req.path)
	assert.Equal(t, `{"id":9,"note":"x"}`, req.body)
}

func TestClient_UpstreamError(t *testing.T) {
	client, _ := newTestServer(t, http.StatusForbidden, `{"message":"forbidden"}`)

	resp, err := client.Clients(context.Background(), "tok")
	require.Error(t, err)
	assert.Nil(t, resp)

	var upstreamErr *common.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusForbidden, upstreamErr.StatusCode)
	assert.JSONEq(t, `{"message":"forbidden"}`, string(upstreamErr.Body))
	assert.Equal(t, http.StatusForbidden, common.StatusCode(err))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, nil)
	_, err := client.Clients(context.Background(), "tok")

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestFilterArchived(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "drops archived",
			input: `[{"id":1,"archived":false},{"id":2,"archived":true},{"id":3}]`,
			want:  `[{"id":1,"archived":false},{"id":3}]`,
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  `[]`,
		},
		{
			name:  "non-object elements kept",
			input: `[1,"two",{"archived":true}]`,
			want:  `[1,"two"]`,
		},
		{
			name:  "object passes through",
			input: `{"clients":[]}`,
			want:  `{"clients":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterArchived([]byte(tt.input))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
