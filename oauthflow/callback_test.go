package oauthflow_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/social-connect/gateway"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/jrsteele09/social-connect/oauthflow"
	"github.com/jrsteele09/social-connect/platform"
	"github.com/jrsteele09/social-connect/sessions"
	"github.com/stretchr/testify/require"
)

const browserID = "browser-1"

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeExchanger struct {
	calls    atomic.Int32
	lastReq  gateway.ExchangeRequest
	response *gateway.ExchangeResponse
	err      error
	mu       sync.Mutex
}

func (e *fakeExchanger) ExchangeCode(_ context.Context, _ platform.Config, _ string, req gateway.ExchangeRequest) (*gateway.ExchangeResponse, error) {
	e.calls.Add(1)
	e.mu.Lock()
	e.lastReq = req
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.response, nil
}

type fixture struct {
	store     *kvstore.InMemoryRepo
	exchanger *fakeExchanger
	flow      *oauthflow.Flow
	now       time.Time
	session   *sessions.State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: kvstore.NewInMemoryRepo(100, time.Hour),
		exchanger: &fakeExchanger{response: &gateway.ExchangeResponse{
			Success:     true,
			AccessToken: "tok",
			Username:    "alice",
		}},
		now: t0,
		session: &sessions.State{
			User:            &sessions.User{ID: "42", Email: "alice@example.com"},
			Token:           "bearer",
			IsAuthenticated: true,
		},
	}
	f.flow = oauthflow.NewFlow(f.store, f.exchanger, oauthflow.FlowConfig{
		Now: func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) storeAttempt(t *testing.T, cfg platform.Config, state string, createdAt time.Time) {
	t.Helper()
	err := oauthflow.NewAttemptStore(f.store).Save(context.Background(), browserID, cfg,
		&oauthflow.Attempt{State: state, CreatedAt: createdAt, Platform: cfg.Platform})
	require.NoError(t, err)
}

func (f *fixture) requireCleared(t *testing.T, cfg platform.Config) {
	t.Helper()
	for _, key := range []string{cfg.StateKey(), cfg.TimestampKey()} {
		_, found, err := f.store.Get(context.Background(), browserID, key)
		require.NoError(t, err)
		require.False(t, found, "expected %s to be removed", key)
	}
}

func TestHandle_SuccessScenario(t *testing.T) {
	f := newFixture(t)
	x := platform.MustLookup(platform.Twitter)
	f.storeAttempt(t, x, "xyz789", t0)
	f.now = t0.Add(time.Minute)

	res := f.flow.Handle(context.Background(), browserID, f.session, x, oauthflow.CallbackParams{Code: "abc", State: "xyz789"})

	require.Equal(t, oauthflow.StatusSuccess, res.Status)
	require.NoError(t, res.Err)
	require.Equal(t, "Twitter account connected successfully!", res.Message)
	require.Equal(t, "/dashboard/x", res.Redirect)
	require.Equal(t, 2*time.Second, res.RedirectAfter)
	require.Equal(t, "alice", res.Username)
	require.Equal(t, gateway.ExchangeRequest{Code: "abc", State: "xyz789", UserID: "42"}, f.exchanger.lastReq)
	f.requireCleared(t, x)

	username, found, err := f.store.Get(context.Background(), browserID, x.UserKey())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice", username)
}

func TestHandle_ProviderError(t *testing.T) {
	f := newFixture(t)
	x := platform.MustLookup(platform.Twitter)
	f.storeAttempt(t, x, "xyz789", t0)

	res := f.flow.Handle(context.Background(), browserID, f.session, x, oauthflow.CallbackParams{
		Error:            "access_denied",
		ErrorDescription: "User denied",
	})

	require.Equal(t, oauthflow.StatusError, res.Status)
	require.Equal(t, "User denied", res.Message)
	require.Equal(t, gateway.KindProvider, gateway.Classify(res.Err))
	require.Equal(t, 3*time.Second, res.RedirectAfter)
	require.Equal(t, "/dashboard/x", res.Redirect)
	require.Zero(t, f.exchanger.calls.Load())
	f.requireCleared(t, x)

	res = f.flow.Handle(context.Background(), browserID, f.session, x, oauthflow.CallbackParams{Error: "server_error"})
	require.Equal(t, "Twitter OAuth error: server_error", res.Message)
}

func TestHandle_StateValidation(t *testing.T) {
	x := platform.MustLookup(platform.Twitter)

	tests := []struct {
		name    string
		stored  string
		elapsed time.Duration
		params  oauthflow.CallbackParams
		wantErr error
	}{
		{name: "matching state", stored: "s1", elapsed: time.Minute, params: oauthflow.CallbackParams{Code: "c", State: "s1"}},
		{name: "mismatched state", stored: "s1", elapsed: time.Minute, params: oauthflow.CallbackParams{Code: "c", State: "s2"}, wantErr: oauthflow.ErrInvalidState},
		{name: "nothing stored", params: oauthflow.CallbackParams{Code: "c", State: "s1"}, wantErr: oauthflow.ErrInvalidState},
		{name: "just inside window", stored: "s1", elapsed: 10*time.Minute - time.Millisecond, params: oauthflow.CallbackParams{Code: "c", State: "s1"}},
		{name: "exactly at window", stored: "s1", elapsed: 10 * time.Minute, params: oauthflow.CallbackParams{Code: "c", State: "s1"}},
		{name: "just outside window", stored: "s1", elapsed: 10*time.Minute + time.Millisecond, params: oauthflow.CallbackParams{Code: "c", State: "s1"}, wantErr: oauthflow.ErrFlowExpired},
		{name: "missing code", stored: "s1", params: oauthflow.CallbackParams{State: "s1"}, wantErr: oauthflow.ErrMissingCode},
		{name: "fallback to stored state", stored: "s1", elapsed: time.Minute, params: oauthflow.CallbackParams{Code: "c"}},
		{name: "fallback without stored state", params: oauthflow.CallbackParams{Code: "c"}, wantErr: oauthflow.ErrNoStoredState},
		{name: "fallback to stale state", stored: "s1", elapsed: 11 * time.Minute, params: oauthflow.CallbackParams{Code: "c"}, wantErr: oauthflow.ErrFlowExpired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.stored != "" {
				f.storeAttempt(t, x, tc.stored, t0)
			}
			f.now = t0.Add(tc.elapsed)

			res := f.flow.Handle(context.Background(), browserID, f.session, x, tc.params)
			f.requireCleared(t, x)

			if tc.wantErr != nil {
				require.Equal(t, oauthflow.StatusError, res.Status)
				require.True(t, errors.Is(res.Err, tc.wantErr), "got %v", res.Err)
				require.Equal(t, gateway.UserMessage(tc.wantErr), res.Message)
				require.Zero(t, f.exchanger.calls.Load())
				return
			}
			require.Equal(t, oauthflow.StatusSuccess, res.Status)
			require.Equal(t, int32(1), f.exchanger.calls.Load())
			require.Equal(t, tc.stored, f.exchanger.lastReq.State)
		})
	}
}

func TestHandle_MissingTimestampIsExpired(t *testing.T) {
	f := newFixture(t)
	x := platform.MustLookup(platform.TikTok)
	require.NoError(t, f.store.Set(context.Background(), browserID, x.StateKey(), "s1"))

	res := f.flow.Handle(context.Background(), browserID, f.session, x, oauthflow.CallbackParams{Code: "c", State: "s1"})
	require.True(t, errors.Is(res.Err, oauthflow.ErrFlowExpired))
	require.Equal(t, "/dashboard/tiktok", res.Redirect)
}

func TestHandle_StrictPlatformRequiresState(t *testing.T) {
	f := newFixture(t)
	insta := platform.MustLookup(platform.Instagram)
	f.storeAttempt(t, insta, "s1", t0)

	res := f.flow.Handle(context.Background(), browserID, f.session, insta, oauthflow.CallbackParams{Code: "c"})
	require.True(t, errors.Is(res.Err, oauthflow.ErrMissingCodeOrState))
	require.Equal(t, "Missing authorization code or state parameter", res.Message)
	f.requireCleared(t, insta)
}

func TestHandle_Unauthenticated(t *testing.T) {
	x := platform.MustLookup(platform.Twitter)
	for name, session := range map[string]*sessions.State{
		"nil session":     nil,
		"logged out":      {},
		"missing a token": {User: &sessions.User{ID: "1"}, IsAuthenticated: true},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.storeAttempt(t, x, "s1", t0)

			res := f.flow.Handle(context.Background(), browserID, session, x, oauthflow.CallbackParams{Code: "c", State: "s1"})
			require.True(t, errors.Is(res.Err, oauthflow.ErrUserNotAuthenticated))
			require.Equal(t, "User not authenticated. Please login first.", res.Message)
			require.Zero(t, f.exchanger.calls.Load())
			f.requireCleared(t, x)
		})
	}
}

func TestHandle_ExchangeFailure(t *testing.T) {
	x := platform.MustLookup(platform.Twitter)

	t.Run("gateway message", func(t *testing.T) {
		f := newFixture(t)
		f.exchanger.err = &gateway.Error{Kind: gateway.KindExchange, Status: 400, Message: "Authorization code expired"}
		f.storeAttempt(t, x, "s1", t0)

		res := f.flow.Handle(context.Background(), browserID, f.session, x, oauthflow.CallbackParams{Code: "c", State: "s1"})
		require.Equal(t, oauthflow.StatusError, res.Status)
		require.Equal(t, "Authorization code expired", res.Message)
		require.Equal(t, 3*time.Second, res.RedirectAfter)
		f.requireCleared(t, x)

		_, found, err := f.store.Get(context.Background(), browserID, x.UserKey())
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("unclassified error falls back to platform text", func(t *testing.T) {
		f := newFixture(t)
		f.exchanger.err = errors.New("boom")
		f.storeAttempt(t, x, "s1", t0)

		res := f.flow.Handle(context.Background(), browserID, f.session, x, oauthflow.CallbackParams{Code: "c", State: "s1"})
		require.Equal(t, "Failed to connect Twitter account", res.Message)
	})

	t.Run("network error", func(t *testing.T) {
		f := newFixture(t)
		f.exchanger.err = &gateway.Error{Kind: gateway.KindNetwork, Message: "Network error - unable to connect to server"}
		f.storeAttempt(t, x, "s1", t0)

		res := f.flow.Handle(context.Background(), browserID, f.session, x, oauthflow.CallbackParams{Code: "c", State: "s1"})
		require.Equal(t, "Network error - unable to connect to server", res.Message)
		require.Equal(t, gateway.KindNetwork, gateway.Classify(res.Err))
	})
}

func TestHandle_DuplicateCallbackExchangesOnce(t *testing.T) {
	f := newFixture(t)
	x := platform.MustLookup(platform.Twitter)
	f.storeAttempt(t, x, "s1", t0)
	params := oauthflow.CallbackParams{Code: "c", State: "s1"}

	var wg sync.WaitGroup
	results := make([]oauthflow.Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.flow.Handle(context.Background(), browserID, f.session, x, params)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), f.exchanger.calls.Load())
	for _, res := range results {
		require.Equal(t, oauthflow.StatusSuccess, res.Status)
	}

	// A reload after the state was cleared still shows the first outcome
	res := f.flow.Handle(context.Background(), browserID, f.session, x, params)
	require.Equal(t, oauthflow.StatusSuccess, res.Status)
	require.Equal(t, int32(1), f.exchanger.calls.Load())

	// Another browser with the same code is a different callback instance
	res = f.flow.Handle(context.Background(), "browser-2", f.session, x, params)
	require.True(t, errors.Is(res.Err, oauthflow.ErrInvalidState))
}

func TestParseCallbackParams(t *testing.T) {
	values := map[string][]string{
		"code":              {"abc"},
		"state":             {"xyz"},
		"error":             {"access_denied"},
		"error_description": {"User denied"},
	}
	require.Equal(t, oauthflow.CallbackParams{
		Code:             "abc",
		State:            "xyz",
		Error:            "access_denied",
		ErrorDescription: "User denied",
	}, oauthflow.ParseCallbackParams(values))
}
