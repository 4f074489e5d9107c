// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common application errors.
var (
	// Request errors.
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")

	// Collaborator errors.
	ErrTransport     = errors.New("transport error")
	ErrPublishFailed = errors.New("publish failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UpstreamError is a non-success reply from the time-tracking API. The body is
// kept verbatim so it can be relayed to the caller.
type UpstreamError struct {
	ContentType string
	Body        []byte
	StatusCode  int
}

func (e *UpstreamError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, body)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// InvalidInput returns a user error classified as ErrInvalidInput.
func InvalidInput(format string, args ...any) error {
	return NewUserError(fmt.Sprintf(format, args...), ErrInvalidInput)
}

// StatusCode maps an error onto the HTTP status reported to the caller.
// Upstream errors keep the status the upstream service returned.
func StatusCode(err error) int {
	var upstreamErr *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &upstreamErr):
		return upstreamErr.StatusCode
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message to show the caller for err.
func UserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}
