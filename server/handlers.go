package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/internal/errors"
	"github.com/jrsteele09/social-connect/internal/validation"
	"github.com/jrsteele09/social-connect/sessions"
	"github.com/rs/zerolog/log"
)

const healthCheckTimeout = 3 * time.Second

// HealthHandler reports liveness and whether the gateway answers
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		gatewayStatus := "ok"
		if err := s.gateway.Health(ctx); err != nil {
			gatewayStatus = string(gateway.Classify(err))
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"app":     s.config.GetAppName(),
			"gateway": gatewayStatus,
		})
	}
}

// sessionResponse is what the dashboard sees of its session. The token stays server side.
type sessionResponse struct {
	IsAuthenticated bool           `json:"isAuthenticated"`
	User            *sessions.User `json:"user,omitempty"`
}

// LoginHandler authenticates against the auth service and establishes the session
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.LoginRequest
		if !s.decodeAndValidate(w, r, &req, "emailOrUsername", "password") {
			return
		}

		resp, err := s.gateway.Login(r.Context(), req)
		if err != nil {
			writeCredentialsError(w, err)
			return
		}

		user, err := s.sessions.Login(r.Context(), browserIDFrom(r), resp.Token(), fallbackUser(resp.User))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Invalid token received", "")
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{
			Success: true,
			Message: "Login successful",
			Data:    sessionResponse{IsAuthenticated: true, User: user},
		})
	}
}

// RegisterHandler creates a dashboard user. When the auth service answers
// with a token the user is signed in straight away.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.RegisterRequest
		if !s.decodeAndValidate(w, r, &req, "email", "password", "username") {
			return
		}

		resp, err := s.gateway.Register(r.Context(), req)
		if err != nil {
			writeCredentialsError(w, err)
			return
		}

		data := sessionResponse{}
		if token := resp.Token(); token != "" {
			user, err := s.sessions.Login(r.Context(), browserIDFrom(r), token, fallbackUser(resp.User))
			if err != nil {
				log.Err(err).Msg("Registered but could not establish session")
			} else {
				data = sessionResponse{IsAuthenticated: true, User: user}
			}
		}
		writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "Registration successful", Data: data})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.sessions.Logout(r.Context(), browserIDFrom(r)); err != nil {
			log.Err(err).Msg("Failed to clear session")
			writeJSONError(w, http.StatusInternalServerError, "Failed to log out", "")
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Logged out"})
	}
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := s.sessions.Current(r.Context(), browserIDFrom(r))
		if err != nil {
			log.Err(err).Msg("Failed to load session")
			writeJSONError(w, http.StatusInternalServerError, "Failed to load session", "")
			return
		}
		resp := sessionResponse{IsAuthenticated: state.Authenticated()}
		if resp.IsAuthenticated {
			resp.User = state.User
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// decodeAndValidate reads a JSON body into dst and runs the struct validator.
// It writes the 400 response itself and returns false on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, fieldOrder ...string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request format", err.Error())
		return false
	}
	if err := validation.Get().ValidateStruct(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, validation.FirstMessage(err, fieldOrder...), "")
		return false
	}
	return true
}

// writeGatewayError relays a gateway failure with its status and user message
func writeGatewayError(w http.ResponseWriter, err error) {
	writeJSONError(w, gateway.StatusCode(err), gateway.UserMessage(err), errorDetails(err))
}

// writeCredentialsError is writeGatewayError for login and register, where a
// 401 means bad credentials and the auth service's own text is shown
// ("Invalid credentials") instead of the session expiry notice
func writeCredentialsError(w http.ResponseWriter, err error) {
	message := gateway.UserMessage(err)
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Kind == gateway.KindAuth && gwErr.Message != "" {
		message = gwErr.Message
	}
	writeJSONError(w, gateway.StatusCode(err), message, errorDetails(err))
}

func errorDetails(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return gwErr.Details
	}
	return ""
}

func fallbackUser(u *gateway.AuthUser) *sessions.User {
	if u == nil {
		return nil
	}
	return &sessions.User{ID: string(u.ID), Email: u.Email, Username: u.Username, Role: u.Role}
}
