package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jrsteele09/social-connect/analytics"
	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/platform"
)

// proxyCall performs one gateway call on behalf of the session
type proxyCall func(r *http.Request, cfg platform.Config, token string) (json.RawMessage, error)

// proxyHandler resolves the platform, runs call with the session's token and
// relays the gateway's body. A 401 from the gateway ends the session.
func (s *Server) proxyHandler(call proxyCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, ok := s.platformFromPath(w, r, "prefix")
		if !ok {
			return
		}

		body, err := call(r, cfg, sessionFrom(r).Token)
		if err != nil {
			s.handleGatewayAuthError(r, err)
			writeGatewayError(w, err)
			return
		}
		writeRaw(w, body)
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return s.proxyHandler(func(r *http.Request, cfg platform.Config, token string) (json.RawMessage, error) {
		return s.gateway.Profile(r.Context(), cfg, token, queryBool(r, "sync"))
	})
}

func (s *Server) PostsHandler() http.HandlerFunc {
	return s.proxyHandler(func(r *http.Request, cfg platform.Config, token string) (json.RawMessage, error) {
		query := r.URL.Query()
		q := gateway.PostsQuery{
			Sync:  queryBool(r, "sync"),
			After: query.Get("after"),
		}
		var err error
		if q.Limit, err = queryInt(r, "limit"); err != nil {
			return nil, err
		}
		if q.Skip, err = queryInt(r, "skip"); err != nil {
			return nil, err
		}
		return s.gateway.Posts(r.Context(), cfg, token, q)
	})
}

func (s *Server) UserAnalyticsHandler() http.HandlerFunc {
	return s.proxyHandler(func(r *http.Request, cfg platform.Config, token string) (json.RawMessage, error) {
		query := r.URL.Query()
		q, err := analytics.NewQuery(query.Get("start_date"), query.Get("end_date"), nil, false)
		if err != nil {
			return nil, err
		}
		return s.gateway.UserAnalytics(r.Context(), cfg, token, q)
	})
}

// PostAnalyticsHandler serves both analytics/posts and analytics/tweets. X
// ids are validated as numeric tweet ids.
func (s *Server) PostAnalyticsHandler() http.HandlerFunc {
	return s.proxyHandler(func(r *http.Request, cfg platform.Config, token string) (json.RawMessage, error) {
		query := r.URL.Query()
		ids := query.Get("tweet_ids")
		if ids == "" {
			ids = query.Get("post_ids")
		}
		q, err := analytics.NewQuery(query.Get("start_date"), query.Get("end_date"), &ids, cfg.Platform == platform.Twitter)
		if err != nil {
			return nil, err
		}
		return s.gateway.PostAnalytics(r.Context(), cfg, token, q)
	})
}

// PlatformLogoutHandler disconnects the platform account and forgets its cached username
func (s *Server) PlatformLogoutHandler() http.HandlerFunc {
	return s.proxyHandler(func(r *http.Request, cfg platform.Config, token string) (json.RawMessage, error) {
		body, err := s.gateway.Logout(r.Context(), cfg, token)
		if err != nil {
			return nil, err
		}
		if err := s.store.Delete(r.Context(), browserIDFrom(r), cfg.UserKey()); err != nil {
			return nil, err
		}
		return body, nil
	})
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, gateway.NewValidationError("Invalid " + name + " parameter")
	}
	return n, nil
}
