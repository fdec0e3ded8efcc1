package sessions_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/social-connect/internal/errors"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/jrsteele09/social-connect/sessions"
	"github.com/stretchr/testify/require"
)

const (
	testBrowserID = "browser-1"
	testSecret    = "auth-service-secret"
)

func signToken(t *testing.T, claims jwtlib.MapClaims, secret string) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes claims and persists state", func(t *testing.T) {
		store := kvstore.NewInMemoryRepo(10, time.Hour)
		svc := sessions.NewService(store, nil)
		token := signToken(t, jwtlib.MapClaims{
			"sub":      "42",
			"email":    "alice@example.com",
			"username": "alice",
			"role":     "admin",
		}, testSecret)

		user, err := svc.Login(ctx, testBrowserID, token, nil)
		require.NoError(t, err)
		require.Equal(t, &sessions.User{ID: "42", Email: "alice@example.com", Username: "alice", Role: "admin"}, user)

		raw, found, err := store.Get(ctx, testBrowserID, sessions.StorageKey)
		require.NoError(t, err)
		require.True(t, found)

		var state sessions.State
		require.NoError(t, json.Unmarshal([]byte(raw), &state))
		require.True(t, state.IsAuthenticated)
		require.Equal(t, token, state.Token)
		require.Equal(t, "alice", state.User.Username)
	})

	t.Run("numeric id claim and fallback fields", func(t *testing.T) {
		svc := sessions.NewService(kvstore.NewInMemoryRepo(10, time.Hour), nil)
		token := signToken(t, jwtlib.MapClaims{"id": 7}, testSecret)

		user, err := svc.Login(ctx, testBrowserID, token, &sessions.User{Email: "bob@example.com", Username: "bob"})
		require.NoError(t, err)
		require.Equal(t, "7", user.ID)
		require.Equal(t, "bob@example.com", user.Email)
		require.Equal(t, "bob", user.Username)
	})

	t.Run("garbage token clears previous session", func(t *testing.T) {
		svc := sessions.NewService(kvstore.NewInMemoryRepo(10, time.Hour), nil)
		_, err := svc.Login(ctx, testBrowserID, signToken(t, jwtlib.MapClaims{"sub": "1"}, testSecret), nil)
		require.NoError(t, err)

		_, err = svc.Login(ctx, testBrowserID, "not-a-jwt", nil)
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.ErrInvalidToken))

		state, err := svc.Current(ctx, testBrowserID)
		require.NoError(t, err)
		require.False(t, state.Authenticated())
	})

	t.Run("token without subject", func(t *testing.T) {
		svc := sessions.NewService(kvstore.NewInMemoryRepo(10, time.Hour), nil)
		_, err := svc.Login(ctx, testBrowserID, signToken(t, jwtlib.MapClaims{"email": "x@example.com"}, testSecret), nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "token has no subject")
	})
}

func TestService_HMACVerification(t *testing.T) {
	ctx := context.Background()
	svc := sessions.NewService(kvstore.NewInMemoryRepo(10, time.Hour), sessions.NewHMACDecoder(testSecret))

	_, err := svc.Login(ctx, testBrowserID, signToken(t, jwtlib.MapClaims{"sub": "1"}, testSecret), nil)
	require.NoError(t, err)

	_, err = svc.Login(ctx, testBrowserID, signToken(t, jwtlib.MapClaims{"sub": "1"}, "someone-else"), nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrInvalidToken))
}

func TestService_CurrentAndLogout(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewInMemoryRepo(10, time.Hour)
	svc := sessions.NewService(store, nil)

	state, err := svc.Current(ctx, testBrowserID)
	require.NoError(t, err)
	require.NotNil(t, state)
	require.False(t, state.Authenticated())

	token := signToken(t, jwtlib.MapClaims{"sub": "42"}, testSecret)
	_, err = svc.Login(ctx, testBrowserID, token, nil)
	require.NoError(t, err)

	state, err = svc.Current(ctx, testBrowserID)
	require.NoError(t, err)
	require.True(t, state.Authenticated())
	require.Equal(t, "42", state.User.ID)
	require.Equal(t, token, state.Token)

	require.NoError(t, svc.Logout(ctx, testBrowserID))
	require.NoError(t, svc.Logout(ctx, testBrowserID))

	state, err = svc.Current(ctx, testBrowserID)
	require.NoError(t, err)
	require.False(t, state.Authenticated())
}

func TestService_CorruptStateIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewInMemoryRepo(10, time.Hour)
	require.NoError(t, store.Set(ctx, testBrowserID, sessions.StorageKey, "{not json"))

	state, err := sessions.NewService(store, nil).Current(ctx, testBrowserID)
	require.NoError(t, err)
	require.False(t, state.Authenticated())

	_, found, err := store.Get(ctx, testBrowserID, sessions.StorageKey)
	require.NoError(t, err)
	require.False(t, found)
}
