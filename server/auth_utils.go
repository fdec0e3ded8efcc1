package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	// browserCookieName identifies the browser's server-side storage namespace
	browserCookieName = "sc_browser_id"

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

func (s *Server) SetBrowserCookie(w http.ResponseWriter, r *http.Request, browserID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     browserCookieName,
		Value:    browserID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode, // Lax so the cookie survives the provider redirect
		MaxAge:   int(s.config.GetBrowserCookieMaxAge().Seconds()),
	})
}

// apiResponse is the envelope used by every JSON endpoint
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, apiResponse{Success: false, Error: message, Details: details, Status: status})
}

// writeRaw relays a gateway body unchanged
func writeRaw(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if len(body) == 0 {
		body = []byte("{}")
	}
	_, _ = w.Write(body)
}

// wantsJSON reports whether the caller asked for JSON instead of a page
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
