package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies a failed gateway interaction
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"    // Connection refused, timeout, DNS
	KindAuth       ErrorKind = "auth"       // 401 / 403
	KindRateLimit  ErrorKind = "rate_limit" // 429
	KindExchange   ErrorKind = "exchange"   // Any other non-2xx or unreadable response
	KindProvider   ErrorKind = "provider"   // The third party reported an error on redirect
	KindValidation ErrorKind = "validation" // Rejected before anything was sent
	KindUnknown    ErrorKind = "unknown"
)

const defaultRateLimitDelay = 60 * time.Second

// Error is returned for every failed gateway call
type Error struct {
	Kind       ErrorKind
	Status     int
	Message    string
	Details    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("gateway %s error (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("gateway %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewProviderError describes an error the third party returned on the callback redirect
func NewProviderError(code, description string) *Error {
	return &Error{Kind: KindProvider, Message: description, Details: code}
}

// NewValidationError describes input rejected before contacting the gateway
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

// kindForStatus maps an HTTP status from the gateway onto the taxonomy
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	default:
		return KindExchange
	}
}

// Classify returns the kind of err, KindUnknown when it did not come from this package
func Classify(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnknown
}

// IsAuthError reports whether the gateway rejected the caller's credentials
func IsAuthError(err error) bool {
	return Classify(err) == KindAuth
}

// StatusCode is the HTTP status to relay to the browser for err
func StatusCode(err error) int {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		return http.StatusInternalServerError
	}
	switch {
	case gwErr.Status > 0:
		return gwErr.Status
	case gwErr.Kind == KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the notification text shown for err. Each kind has its own wording.
func UserMessage(err error) string {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		if err == nil {
			return ""
		}
		return "An unexpected error occurred"
	}
	switch gwErr.Kind {
	case KindNetwork:
		return "Network error - unable to connect to server"
	case KindAuth:
		return "Your session has expired. Please log in again."
	case KindRateLimit:
		return fmt.Sprintf("Too many requests. Please try again in %d seconds.", int(gwErr.RetryAfter.Seconds()))
	default:
		if gwErr.Message != "" {
			return gwErr.Message
		}
		return "An unexpected error occurred"
	}
}

// retryAfter reads a Retry-After header given in seconds
func retryAfter(h http.Header) time.Duration {
	if seconds, err := strconv.Atoi(h.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultRateLimitDelay
}
