package oauthflow

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/internal/utils"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/jrsteele09/social-connect/metrics"
	"github.com/jrsteele09/social-connect/platform"
	"github.com/jrsteele09/social-connect/sessions"
	"github.com/rs/zerolog/log"
)

// Status of a callback. loading is the only non-terminal state.
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// CallbackParams are the parameters the provider appended to the redirect
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallbackParams reads the parameters of the provider redirect
func ParseCallbackParams(values url.Values) CallbackParams {
	return CallbackParams{
		Code:             values.Get("code"),
		State:            values.Get("state"),
		Error:            values.Get("error"),
		ErrorDescription: values.Get("error_description"),
	}
}

// Exchanger forwards a validated code to whoever performs the token exchange
type Exchanger interface {
	ExchangeCode(ctx context.Context, cfg platform.Config, token string, req gateway.ExchangeRequest) (*gateway.ExchangeResponse, error)
}

// Result is the terminal outcome of a callback and where to go next
type Result struct {
	Platform      platform.Platform `json:"platform"`
	Status        Status            `json:"status"`
	Message       string            `json:"message"`
	Redirect      string            `json:"redirect"`
	RedirectAfter time.Duration     `json:"-"`
	Username      string            `json:"username,omitempty"`
	Err           error             `json:"-"`
}

// FlowConfig tunes the callback flow
type FlowConfig struct {
	StateTTL     time.Duration // Attempts older than this are rejected
	SuccessDelay time.Duration
	ErrorDelay   time.Duration
	GuardTTL     time.Duration // How long a processed callback is remembered
	GuardSize    int
	Now          func() time.Time
}

func (c *FlowConfig) setDefaults() {
	if c.StateTTL <= 0 {
		c.StateTTL = 10 * time.Minute
	}
	if c.SuccessDelay <= 0 {
		c.SuccessDelay = 2 * time.Second
	}
	if c.ErrorDelay <= 0 {
		c.ErrorDelay = 3 * time.Second
	}
	if c.GuardTTL <= 0 {
		c.GuardTTL = 10 * time.Minute
	}
	if c.GuardSize <= 0 {
		c.GuardSize = 10000
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// onceResult makes sure a callback instance is processed a single time
type onceResult struct {
	once   sync.Once
	result Result
}

// Flow is the callback receiver, parameterised per platform by platform.Config
type Flow struct {
	store     kvstore.Repo
	attempts  *AttemptStore
	exchanger Exchanger
	cfg       FlowConfig

	mu        sync.Mutex
	processed *expirable.LRU[string, *onceResult]
}

func NewFlow(store kvstore.Repo, exchanger Exchanger, cfg FlowConfig) *Flow {
	cfg.setDefaults()
	return &Flow{
		store:     store,
		attempts:  NewAttemptStore(store),
		exchanger: exchanger,
		cfg:       cfg,
		processed: expirable.NewLRU[string, *onceResult](cfg.GuardSize, nil, cfg.GuardTTL),
	}
}

// Handle runs the callback state machine to a terminal state. The stored
// attempt is cleared on every terminal path. A repeated delivery of the same
// code to the same browser returns the first outcome without a second exchange.
func (f *Flow) Handle(ctx context.Context, browserID string, session *sessions.State, cfg platform.Config, params CallbackParams) Result {
	if params.Code == "" || params.Error != "" {
		return f.process(ctx, browserID, session, cfg, params)
	}

	key := browserID + "|" + string(cfg.Platform) + "|" + params.Code
	f.mu.Lock()
	entry, ok := f.processed.Get(key)
	if !ok {
		entry = &onceResult{}
		f.processed.Add(key, entry)
	}
	f.mu.Unlock()

	first := false
	entry.once.Do(func() {
		first = true
		entry.result = f.process(ctx, browserID, session, cfg, params)
	})
	if !first {
		metrics.OAuthCallbacks.WithLabelValues(string(cfg.Platform), metrics.OutcomeDuplicate).Inc()
		log.Info().Str("platform", string(cfg.Platform)).Str("browser_id", browserID).
			Str("code", utils.MaskSecret(params.Code, 4)).Msg("Duplicate callback, returning first outcome")
	}
	return entry.result
}

func (f *Flow) process(ctx context.Context, browserID string, session *sessions.State, cfg platform.Config, params CallbackParams) Result {
	logger := log.With().Str("platform", string(cfg.Platform)).Str("browser_id", browserID).Logger()
	logger.Debug().Str("status", string(StatusLoading)).Str("message", cfg.Messages.Processing).
		Str("code", utils.MaskSecret(params.Code, 4)).Bool("has_state", params.State != "").Msg("Processing OAuth callback")

	state, err := f.validate(ctx, browserID, session, cfg, params)
	if err != nil {
		return f.fail(ctx, browserID, cfg, err)
	}

	resp, err := f.exchanger.ExchangeCode(ctx, cfg, session.Token, gateway.ExchangeRequest{
		Code:   params.Code,
		State:  state,
		UserID: session.User.ID,
	})
	if err != nil {
		return f.fail(ctx, browserID, cfg, err)
	}

	f.clear(ctx, browserID, cfg)
	if resp.Username != "" {
		if err := f.store.Set(ctx, browserID, cfg.UserKey(), resp.Username); err != nil {
			logger.Err(err).Msg("Failed to store connected username")
		}
	}

	metrics.OAuthCallbacks.WithLabelValues(string(cfg.Platform), metrics.OutcomeSuccess).Inc()
	logger.Info().Str("username", resp.Username).Msg("Account connected")
	return Result{
		Platform:      cfg.Platform,
		Status:        StatusSuccess,
		Message:       cfg.Messages.Connected,
		Redirect:      cfg.DashboardRoute,
		RedirectAfter: f.cfg.SuccessDelay,
		Username:      resp.Username,
	}
}

// validate applies the checks in the order the provider redirect is read:
// provider error, code, state fallback, user, then state match and freshness.
// It returns the state to send with the exchange.
func (f *Flow) validate(ctx context.Context, browserID string, session *sessions.State, cfg platform.Config, params CallbackParams) (string, error) {
	if params.Error != "" {
		description := params.ErrorDescription
		if description == "" {
			description = fmt.Sprintf("%s OAuth error: %s", cfg.Title(), params.Error)
		}
		return "", gateway.NewProviderError(params.Error, description)
	}

	if params.Code == "" || (cfg.RequireURLState && params.State == "") {
		if cfg.RequireURLState {
			return "", ErrMissingCodeOrState
		}
		return "", ErrMissingCode
	}

	now := f.cfg.Now()
	state := params.State
	if state == "" {
		log.Warn().Str("platform", string(cfg.Platform)).Msg("State parameter missing from callback, using stored state")
		attempt, err := f.attempts.Load(ctx, browserID, cfg)
		if err != nil {
			return "", err
		}
		if attempt == nil {
			return "", ErrNoStoredState
		}
		if attempt.Expired(now, f.cfg.StateTTL) {
			return "", ErrFlowExpired
		}
		state = attempt.State
	}

	if !session.Authenticated() {
		return "", ErrUserNotAuthenticated
	}

	if params.State != "" {
		attempt, err := f.attempts.Load(ctx, browserID, cfg)
		if err != nil {
			return "", err
		}
		if attempt == nil || attempt.State != params.State {
			return "", ErrInvalidState
		}
		if attempt.Expired(now, f.cfg.StateTTL) {
			return "", ErrFlowExpired
		}
	}
	return state, nil
}

func (f *Flow) fail(ctx context.Context, browserID string, cfg platform.Config, err error) Result {
	f.clear(ctx, browserID, cfg)

	outcome := metrics.OutcomeExchange
	switch gateway.Classify(err) {
	case gateway.KindProvider:
		outcome = metrics.OutcomeProvider
	case gateway.KindValidation:
		outcome = metrics.OutcomeRejected
	}
	metrics.OAuthCallbacks.WithLabelValues(string(cfg.Platform), outcome).Inc()

	message := gateway.UserMessage(err)
	if gateway.Classify(err) == gateway.KindUnknown || message == "" {
		message = cfg.Messages.Failed
	}
	log.Err(err).Str("platform", string(cfg.Platform)).Str("browser_id", browserID).Str("outcome", outcome).Msg("OAuth callback failed")

	return Result{
		Platform:      cfg.Platform,
		Status:        StatusError,
		Message:       message,
		Redirect:      cfg.ErrorRoute,
		RedirectAfter: f.cfg.ErrorDelay,
		Err:           err,
	}
}

func (f *Flow) clear(ctx context.Context, browserID string, cfg platform.Config) {
	if err := f.attempts.Clear(ctx, browserID, cfg); err != nil {
		log.Err(err).Str("platform", string(cfg.Platform)).Msg("Failed to clear OAuth attempt")
	}
}
