package oauthflow

import (
	"errors"

	"github.com/jrsteele09/social-connect/gateway"
)

// Callback validation failures. Each carries the text shown to the user.
var (
	ErrMissingCode          = gateway.NewValidationError("Missing authorization code")
	ErrMissingCodeOrState   = gateway.NewValidationError("Missing authorization code or state parameter")
	ErrNoStoredState        = gateway.NewValidationError("No state parameter found. Please try connecting again.")
	ErrFlowExpired          = gateway.NewValidationError("OAuth flow expired. Please try connecting again.")
	ErrInvalidState         = gateway.NewValidationError("Invalid state parameter. Please try connecting again.")
	ErrUserNotAuthenticated = gateway.NewValidationError("User not authenticated. Please login first.")
)

// ErrAuthURLUnavailable wraps any failure to obtain an authorization URL
var ErrAuthURLUnavailable = errors.New("authorization URL unavailable")
