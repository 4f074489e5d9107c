package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// DefaultCallbackAddr is where the consent flow listens for Google's redirect.
const DefaultCallbackAddr = "localhost:8080"

const callbackPage = `<html><body>
	<h1>%s</h1>
	<p>%s</p>
	<script>window.setTimeout(function(){window.close();}, 3000);</script>
</body></html>`

// OAuthFlow configures the one-time consent flow that yields the refresh
// token used by the OAuth2 authentication method.
type OAuthFlow struct {
	// OnAuthURL receives the consent URL the operator must open.
	OnAuthURL func(authURL string)
	Logger    *slog.Logger
	// Endpoint defaults to Google's.
	Endpoint     oauth2.Endpoint
	ClientID     string
	ClientSecret string
	ListenAddr   string
	// TokenFile, when set, receives the issued token as JSON.
	TokenFile string
}

type callbackResult struct {
	err  error
	code string
}

// Authorize runs the OAuth2 authorization-code flow against a loopback
// callback and returns the issued token. It gives up when ctx is done.
func Authorize(ctx context.Context, flow OAuthFlow) (*oauth2.Token, error) {
	if flow.ClientID == "" || flow.ClientSecret == "" {
		return nil, errors.New("client id and client secret are required")
	}
	logger := flow.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := flow.ListenAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	endpoint := flow.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     flow.ClientID,
		ClientSecret: flow.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  fmt.Sprintf("http://%s/callback", listener.Addr().String()),
		Scopes:       []string{sheets.SpreadsheetsScope},
	}

	state := uuid.NewString()
	results := make(chan callbackResult, 1)
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch {
		case query.Get("state") != state:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, callbackPage, "Authentication Failed", "The request did not match this session.")
		case query.Get("code") == "":
			deliver(callbackResult{err: fmt.Errorf("no authorization code received: %s", query.Get("error"))})
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, callbackPage, "Authentication Failed", "No authorization code received. Please try again.")
		default:
			deliver(callbackResult{code: query.Get("code")})
			_, _ = fmt.Fprintf(w, callbackPage, "Authentication Successful!", "You can close this window and return to the terminal.")
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(callbackResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if flow.OnAuthURL != nil {
		flow.OnAuthURL(authURL)
	}
	logger.Info("Waiting for Google Sheets authorization", "callback", oauthConfig.RedirectURL)

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization abandoned: %w", ctx.Err())
	}
	if result.err != nil {
		return nil, result.err
	}

	token, err := oauthConfig.Exchange(ctx, result.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return nil, errors.New("no refresh token issued; revoke the app's access and retry")
	}

	if flow.TokenFile != "" {
		if err := saveToken(flow.TokenFile, token); err != nil {
			logger.Warn("Failed to save token to file", "error", err, "file", flow.TokenFile)
		} else {
			logger.Info("Token saved", "file", flow.TokenFile)
		}
	}

	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}
