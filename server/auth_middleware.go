package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/social-connect/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyBrowserID stores the id of the browser's storage namespace
	ContextKeyBrowserID ContextKey = "browser_id"
	// ContextKeySession stores the authenticated *sessions.State
	ContextKeySession ContextKey = "session"
)

// BrowserMiddleware makes sure every request carries a browser id cookie.
// The id namespaces the server-side storage that stands in for the
// browser's local storage.
func (s *Server) BrowserMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		browserID := browserCookie(r)
		if browserID == "" {
			browserID = uuid.NewString()
			s.SetBrowserCookie(w, r, browserID)
		}

		ctx := context.WithValue(r.Context(), ContextKeyBrowserID, browserID)
		next(w, r.WithContext(ctx))
	}
}

// KnownBrowserMiddleware reads the browser id cookie but never issues one.
// Provider callbacks use it: a callback that arrives without the cookie must
// not replace the id of the browser that started the connection.
func (s *Server) KnownBrowserMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyBrowserID, browserCookie(r))
		next(w, r.WithContext(ctx))
	}
}

// browserCookie returns the browser id, or "" when the cookie is missing or malformed
func browserCookie(r *http.Request) string {
	cookie, err := r.Cookie(browserCookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

// RequireSession rejects requests from browsers without an authenticated
// dashboard session
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := s.sessions.Current(r.Context(), browserIDFrom(r))
		if err != nil {
			log.Err(err).Msg("Failed to load session")
			writeJSONError(w, http.StatusInternalServerError, "Failed to load session", "")
			return
		}
		if !state.Authenticated() {
			writeJSONError(w, http.StatusUnauthorized, "User not authenticated. Please login first.", "")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, state)
		next(w, r.WithContext(ctx))
	}
}

func browserIDFrom(r *http.Request) string {
	browserID, _ := r.Context().Value(ContextKeyBrowserID).(string)
	return browserID
}

func sessionFrom(r *http.Request) *sessions.State {
	state, _ := r.Context().Value(ContextKeySession).(*sessions.State)
	return state
}
