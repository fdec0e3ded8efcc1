package oauthflow

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/jrsteele09/social-connect/metrics"
	"github.com/jrsteele09/social-connect/platform"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// AuthURLSource produces provider authorization URLs. The gateway client implements it.
type AuthURLSource interface {
	GenerateAuthURL(ctx context.Context, cfg platform.Config, token, redirectURI, state string) (*gateway.AuthURLResponse, error)
}

// Authorization is where to send the browser and the state it must come back with
type Authorization struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

// Redirector starts a connection attempt
type Redirector struct {
	attempts *AttemptStore
	source   AuthURLSource
	direct   map[platform.Platform]*oauth2.Config
	now      func() time.Time
}

func NewRedirector(store kvstore.Repo, source AuthURLSource) *Redirector {
	return &Redirector{
		attempts: NewAttemptStore(store),
		source:   source,
		direct:   make(map[platform.Platform]*oauth2.Config),
		now:      time.Now,
	}
}

// WithDirectClient builds the platform's authorization URL locally instead of
// asking the gateway. Used for providers the gateway does not front yet.
func (r *Redirector) WithDirectClient(p platform.Platform, cfg *oauth2.Config) *Redirector {
	r.direct[p] = cfg
	return r
}

// WithClock replaces time.Now
func (r *Redirector) WithClock(now func() time.Time) *Redirector {
	r.now = now
	return r
}

// Authorize obtains the authorization URL and records the attempt. Nothing is
// persisted when no URL could be obtained.
func (r *Redirector) Authorize(ctx context.Context, browserID, token string, cfg platform.Config, redirectURI string) (*Authorization, error) {
	localState, err := GenerateState()
	if err != nil {
		return nil, err
	}

	rawURL, reportedState, err := r.authURL(ctx, cfg, token, redirectURI, localState)
	if err != nil {
		metrics.OAuthRedirects.WithLabelValues(string(cfg.Platform), "error").Inc()
		return nil, err
	}

	authURL, state, err := injectState(rawURL, localState, reportedState)
	if err != nil {
		metrics.OAuthRedirects.WithLabelValues(string(cfg.Platform), "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrAuthURLUnavailable, err)
	}
	if state != localState {
		log.Warn().Str("platform", string(cfg.Platform)).Msg("Authorization URL carries a different state than the one generated locally, keeping the URL's")
	}

	attempt := &Attempt{State: state, CreatedAt: r.now(), Platform: cfg.Platform}
	if err := r.attempts.Save(ctx, browserID, cfg, attempt); err != nil {
		metrics.OAuthRedirects.WithLabelValues(string(cfg.Platform), "error").Inc()
		return nil, err
	}

	metrics.OAuthRedirects.WithLabelValues(string(cfg.Platform), "ok").Inc()
	log.Info().Str("platform", string(cfg.Platform)).Str("browser_id", browserID).Msg("OAuth attempt started")
	return &Authorization{AuthURL: authURL, State: state}, nil
}

func (r *Redirector) authURL(ctx context.Context, cfg platform.Config, token, redirectURI, state string) (string, string, error) {
	if oauthCfg, ok := r.direct[cfg.Platform]; ok {
		c := *oauthCfg
		if redirectURI != "" {
			c.RedirectURL = redirectURI
		}
		return c.AuthCodeURL(state), "", nil
	}

	resp, err := r.source.GenerateAuthURL(ctx, cfg, token, redirectURI, state)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrAuthURLUnavailable, err)
	}
	return resp.URL(), resp.StateValue(), nil
}

// injectState adds a state parameter only when the URL has none. A state
// already in the URL wins; otherwise the one the gateway reported, then the
// local one.
func injectState(rawURL, localState, reportedState string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid authorization URL: %w", err)
	}
	if !u.IsAbs() {
		return "", "", fmt.Errorf("authorization URL %q is not absolute", rawURL)
	}

	query := u.Query()
	if existing := query.Get("state"); existing != "" {
		return rawURL, existing, nil
	}

	state := localState
	if reportedState != "" {
		state = reportedState
	}
	query.Set("state", state)
	u.RawQuery = query.Encode()
	return u.String(), state, nil
}
