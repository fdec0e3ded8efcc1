package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/internal/errors"
	"github.com/jrsteele09/social-connect/oauthflow"
	"github.com/jrsteele09/social-connect/platform"
	"github.com/rs/zerolog/log"
)

// callbackPageData feeds templates/callback.html
type callbackPageData struct {
	AppName         string
	Title           string
	Status          string
	Message         string
	Redirect        string
	RedirectSeconds int
}

// callbackJSON is the callback outcome for clients that asked for JSON
type callbackJSON struct {
	Success         bool              `json:"success"`
	Status          oauthflow.Status  `json:"status"`
	Platform        platform.Platform `json:"platform"`
	Message         string            `json:"message"`
	Redirect        string            `json:"redirect"`
	RedirectAfterMs int64             `json:"redirectAfterMs"`
	Username        string            `json:"username,omitempty"`
}

// ConnectHandler starts a connection and sends the browser to the provider
func (s *Server) ConnectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, ok := s.platformFromPath(w, r, "platform")
		if !ok {
			return
		}

		auth, err := s.authorize(r, cfg)
		if err != nil {
			s.handleGatewayAuthError(r, err)
			http.Error(w, gateway.UserMessage(err), connectStatus(err))
			return
		}
		http.Redirect(w, r, auth.AuthURL, http.StatusSeeOther)
	}
}

// ConnectAPIHandler is ConnectHandler for script clients: the URL is returned instead of followed
func (s *Server) ConnectAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, ok := s.platformFromPath(w, r, "platform")
		if !ok {
			return
		}

		auth, err := s.authorize(r, cfg)
		if err != nil {
			s.handleGatewayAuthError(r, err)
			status := connectStatus(err)
			writeJSON(w, status, apiResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to connect to %s authentication service", cfg.Title()),
				Details: gateway.UserMessage(err),
				Status:  status,
			})
			return
		}

		writeJSON(w, http.StatusOK, apiResponse{
			Success: true,
			Message: fmt.Sprintf("%s authentication URL generated", cfg.Title()),
			Data: map[string]any{
				"authUrl":  auth.AuthURL,
				"state":    auth.State,
				"redirect": true,
			},
		})
	}
}

func (s *Server) authorize(r *http.Request, cfg platform.Config) (*oauthflow.Authorization, error) {
	return s.redirector.Authorize(r.Context(), browserIDFrom(r), sessionFrom(r).Token, cfg, s.callbackURL(r, cfg.Platform))
}

// OAuthCallbackHandler receives the provider redirect, runs the callback flow
// and renders the outcome. The page navigates on its own after the delay.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, ok := s.platformFromPath(w, r, "platform")
		if !ok {
			return
		}

		params := oauthflow.ParseCallbackParams(r.URL.Query())

		browserID := browserIDFrom(r)
		if browserID == "" {
			// No cookie means no stored state or session; an unsaved id lets
			// the flow report that without touching another browser's storage
			log.Warn().Str("platform", string(cfg.Platform)).Msg("OAuth callback without browser cookie")
			browserID = uuid.NewString()
		}
		session, err := s.sessions.Current(r.Context(), browserID)
		if err != nil {
			log.Err(err).Msg("Failed to load session for callback")
		}

		result := s.flow.Handle(r.Context(), browserID, session, cfg, params)
		if result.Err != nil {
			s.handleGatewayAuthError(r, result.Err)
		}

		if wantsJSON(r) {
			status := http.StatusOK
			if result.Status != oauthflow.StatusSuccess {
				status = callbackErrorStatus(result.Err)
			}
			writeJSON(w, status, callbackJSON{
				Success:         result.Status == oauthflow.StatusSuccess,
				Status:          result.Status,
				Platform:        result.Platform,
				Message:         result.Message,
				Redirect:        result.Redirect,
				RedirectAfterMs: result.RedirectAfter.Milliseconds(),
				Username:        result.Username,
			})
			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_ = s.callbackTmpl.Execute(w, callbackPageData{
			AppName:         s.config.GetAppName(),
			Title:           cfg.Title(),
			Status:          string(result.Status),
			Message:         result.Message,
			Redirect:        result.Redirect,
			RedirectSeconds: int(result.RedirectAfter.Seconds()),
		})
	}
}

// FormPostCallbackHandler turns a response_mode=form_post callback into the
// GET callback. The provider's cross-site POST arrives without the Lax browser
// cookie; the browser's follow-up GET navigation carries it.
func (s *Server) FormPostCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.platformFromPath(w, r, "platform"); !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid callback parameters", http.StatusBadRequest)
			return
		}

		target := url.URL{Path: r.URL.Path, RawQuery: r.Form.Encode()}
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	}
}

// platformFromPath resolves the {name} path value, writing a 404 when unknown
func (s *Server) platformFromPath(w http.ResponseWriter, r *http.Request, name string) (platform.Config, bool) {
	p, err := platform.Parse(r.PathValue(name))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Unknown platform: %s", r.PathValue(name)), "")
		return platform.Config{}, false
	}
	return platform.MustLookup(p), true
}

// handleGatewayAuthError forces a logout when the gateway rejected the
// session's token, so the stale token is never retried
func (s *Server) handleGatewayAuthError(r *http.Request, err error) {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) || gwErr.Status != http.StatusUnauthorized {
		return
	}
	browserID := browserIDFrom(r)
	if logoutErr := s.sessions.Logout(r.Context(), browserID); logoutErr != nil {
		log.Err(logoutErr).Str("browser_id", browserID).Msg("Failed to clear session after 401")
		return
	}
	log.Info().Str("browser_id", browserID).Msg("Gateway rejected token, session cleared")
}

func connectStatus(err error) int {
	if gateway.Classify(err) == gateway.KindUnknown {
		return http.StatusBadGateway
	}
	return gateway.StatusCode(err)
}

func callbackErrorStatus(err error) int {
	switch gateway.Classify(err) {
	case gateway.KindProvider, gateway.KindValidation:
		return http.StatusBadRequest
	}
	if status := gateway.StatusCode(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusBadGateway
}
