package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "invalid input", err: InvalidInput("bad %s", "thing"), want: http.StatusBadRequest},
		{name: "unauthorized", err: NewUserError("no token", ErrUnauthorized), want: http.StatusUnauthorized},
		{name: "transport", err: fmt.Errorf("calling api: %w", ErrTransport), want: http.StatusBadGateway},
		{name: "publish failed", err: fmt.Errorf("%w: clear: boom", ErrPublishFailed), want: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
		{
			name: "upstream keeps its status",
			err:  fmt.Errorf("getting clients: %w", &UpstreamError{StatusCode: http.StatusForbidden}),
			want: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "bad thing", UserMessage(InvalidInput("bad %s", "thing")))
	assert.Equal(t, "Failed to write.", UserMessage(fmt.Errorf("handler: %w", NewUserError("Failed to write.", errors.New("quota")))))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
}

func TestUserError(t *testing.T) {
	inner := errors.New("quota exceeded")
	err := NewUserError("Failed to write.", inner)

	assert.Equal(t, "Failed to write.: quota exceeded", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "only message", NewUserError("only message", nil).Error())
}

func TestUpstreamError(t *testing.T) {
	tests := []struct {
		name string
		err  *UpstreamError
		want string
	}{
		{
			name: "empty body",
			err:  &UpstreamError{StatusCode: http.StatusNotFound},
			want: "upstream returned status 404",
		},
		{
			name: "body",
			err:  &UpstreamError{StatusCode: http.StatusBadRequest, Body: []byte(" {\"message\":\"nope\"}\n")},
			want: `upstream returned status 400: {"message":"nope"}`,
		},
		{
			name: "long body truncated",
			err:  &UpstreamError{StatusCode: http.StatusInternalServerError, Body: []byte(strings.Repeat("x", 250))},
			want: "upstream returned status 500: " + strings.Repeat("x", 200) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
