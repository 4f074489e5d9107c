package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T, refreshToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "code-123", r.PostForm.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": refreshToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// followCallback plays the browser: it reads the redirect and state from the
// consent URL and calls back with the given code.
func followCallback(t *testing.T, authURL, code, overrideState string) int {
	t.Helper()
	u, err := url.Parse(authURL)
	if !assert.NoError(t, err) {
		return 0
	}

	state := u.Query().Get("state")
	if overrideState != "" {
		state = overrideState
	}
	callback := u.Query().Get("redirect_uri") + "?" + url.Values{"code": {code}, "state": {state}}.Encode()

	resp, err := http.Get(callback) //nolint:gosec,noctx // test-local loopback
	if !assert.NoError(t, err) {
		return 0
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func TestAuthorize(t *testing.T) {
	tokenServer := newTokenServer(t, "refresh-1")
	tokenFile := filepath.Join(t.TempDir(), "nested", "token.json")
	browserDone := make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := Authorize(ctx, OAuthFlow{
		ClientID:     "client",
		ClientSecret: "secret",
		ListenAddr:   "127.0.0.1:0",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: tokenServer.URL},
		TokenFile:    tokenFile,
		OnAuthURL: func(authURL string) {
			assert.Contains(t, authURL, "access_type=offline")
			go func() {
				defer close(browserDone)
				assert.Equal(t, http.StatusOK, followCallback(t, authURL, "code-123", ""))
			}()
		},
	})
	<-browserDone
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", token.RefreshToken)
	assert.Equal(t, "access-1", token.AccessToken)

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refresh-1")
}

func TestAuthorize_WrongStateIgnored(t *testing.T) {
	tokenServer := newTokenServer(t, "refresh-1")
	browserDone := make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := Authorize(ctx, OAuthFlow{
		ClientID:     "client",
		ClientSecret: "secret",
		ListenAddr:   "127.0.0.1:0",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: tokenServer.URL},
		OnAuthURL: func(authURL string) {
			go func() {
				defer close(browserDone)
				assert.Equal(t, http.StatusBadRequest, followCallback(t, authURL, "forged", "not-the-state"))
				assert.Equal(t, http.StatusOK, followCallback(t, authURL, "code-123", ""))
			}()
		},
	})
	<-browserDone
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", token.RefreshToken)
}

func TestAuthorize_NoRefreshToken(t *testing.T) {
	tokenServer := newTokenServer(t, "")
	browserDone := make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := Authorize(ctx, OAuthFlow{
		ClientID:     "client",
		ClientSecret: "secret",
		ListenAddr:   "127.0.0.1:0",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: tokenServer.URL},
		OnAuthURL: func(authURL string) {
			go func() {
				defer close(browserDone)
				followCallback(t, authURL, "code-123", "")
			}()
		},
	})
	<-browserDone
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no refresh token")
}

func TestAuthorize_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Authorize(ctx, OAuthFlow{
		ClientID:     "client",
		ClientSecret: "secret",
		ListenAddr:   "127.0.0.1:0",
		OnAuthURL:    func(string) { cancel() },
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuthorize_MissingClient(t *testing.T) {
	_, err := Authorize(context.Background(), OAuthFlow{ClientID: "client"})
	assert.Error(t, err)
}
