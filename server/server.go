package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/internal/config"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/jrsteele09/social-connect/oauthflow"
	"github.com/jrsteele09/social-connect/platform"
	"github.com/jrsteele09/social-connect/sessions"
	"golang.org/x/oauth2"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config

	store      kvstore.Repo
	sessions   *sessions.Service
	gateway    *gateway.Client
	redirector *oauthflow.Redirector
	flow       *oauthflow.Flow

	callbackTmpl *template.Template
}

func New(c config.Config, store kvstore.Repo, sessionService *sessions.Service, gw *gateway.Client) (*Server, error) {
	callbackTmpl, err := ParseTemplate("callback.html")
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse callback template: %w", err)
	}

	s := &Server{
		env:        c.GetEnv(),
		mux:        http.NewServeMux(),
		config:     c,
		store:      store,
		sessions:   sessionService,
		gateway:    gw,
		redirector: oauthflow.NewRedirector(store, gw),
		flow: oauthflow.NewFlow(store, gw, oauthflow.FlowConfig{
			StateTTL:     c.GetOAuthStateTTL(),
			SuccessDelay: c.GetSuccessRedirectDelay(),
			ErrorDelay:   c.GetErrorRedirectDelay(),
			GuardTTL:     c.GetCallbackGuardTTL(),
		}),
		callbackTmpl: callbackTmpl,
	}

	if clientID := c.GetFacebookClientID(); clientID != "" {
		s.redirector.WithDirectClient(platform.Facebook, &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: c.GetFacebookClientSecret(),
			Endpoint: oauth2.Endpoint{
				AuthURL:  c.GetFacebookAuthURL(),
				TokenURL: c.GetFacebookTokenURL(),
			},
			Scopes: []string{"public_profile", "email"},
		})
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

// callbackURL is the redirect URI registered with the providers for p
func (s *Server) callbackURL(r *http.Request, p platform.Platform) string {
	base := strings.TrimRight(s.config.GetBaseURL(), "/")
	if base == "" {
		base = getScheme(r) + "://" + r.Host
	}
	return base + strings.Replace(RouteCallback, "{platform}", string(p), 1)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
