package kvstore_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jrsteele09/social-connect/internal/errors"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// exerciseRepo runs the behaviour every Repo implementation must share
func exerciseRepo(t *testing.T, repo kvstore.Repo) {
	t.Helper()
	ctx := context.Background()
	browserID := uuid.NewString()

	t.Run("missing key", func(t *testing.T) {
		_, found, err := repo.Get(ctx, browserID, "twitter_oauth_state")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, browserID, "twitter_oauth_state", "first"))
		require.NoError(t, repo.Set(ctx, browserID, "twitter_oauth_state", "second"))

		value, found, err := repo.Get(ctx, browserID, "twitter_oauth_state")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "second", value)
	})

	t.Run("browsers are isolated", func(t *testing.T) {
		_, found, err := repo.Get(ctx, uuid.NewString(), "twitter_oauth_state")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("delete removes only named keys", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, browserID, "twitter_oauth_timestamp", "1700000000000"))
		require.NoError(t, repo.Set(ctx, browserID, "auth-storage", "{}"))

		require.NoError(t, repo.Delete(ctx, browserID, "twitter_oauth_state", "twitter_oauth_timestamp", "never-set"))

		_, found, err := repo.Get(ctx, browserID, "twitter_oauth_state")
		require.NoError(t, err)
		require.False(t, found)
		_, found, err = repo.Get(ctx, browserID, "auth-storage")
		require.NoError(t, err)
		require.True(t, found)
	})

	t.Run("clear drops the browser", func(t *testing.T) {
		require.NoError(t, repo.Clear(ctx, browserID))
		_, found, err := repo.Get(ctx, browserID, "auth-storage")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("empty identifiers", func(t *testing.T) {
		err := repo.Set(ctx, "", "k", "v")
		require.True(t, errors.Is(err, errors.ErrEmptyBrowserID))
		_, _, err = repo.Get(ctx, browserID, "")
		require.True(t, errors.Is(err, errors.ErrEmptyKey))
		require.True(t, errors.Is(repo.Clear(ctx, ""), errors.ErrEmptyBrowserID))
	})
}

func TestInMemoryRepo(t *testing.T) {
	exerciseRepo(t, kvstore.NewInMemoryRepo(100, time.Hour))
}

func TestInMemoryRepo_EvictsLeastRecentBrowser(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewInMemoryRepo(1, time.Hour)

	require.NoError(t, repo.Set(ctx, "browser-a", "k", "a"))
	require.NoError(t, repo.Set(ctx, "browser-b", "k", "b"))

	_, found, err := repo.Get(ctx, "browser-a", "k")
	require.NoError(t, err)
	require.False(t, found)

	value, found, err := repo.Get(ctx, "browser-b", "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "b", value)
}

func TestInMemoryRepo_Expires(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewInMemoryRepo(10, 20*time.Millisecond)

	require.NoError(t, repo.Set(ctx, "browser-a", "k", "a"))
	time.Sleep(60 * time.Millisecond)

	_, found, err := repo.Get(ctx, "browser-a", "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestInMemoryRepo_ReadsKeepBrowserAlive(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewInMemoryRepo(10, 200*time.Millisecond)

	require.NoError(t, repo.Set(ctx, "browser-a", "k", "a"))
	for i := 0; i < 3; i++ {
		time.Sleep(120 * time.Millisecond)
		_, found, err := repo.Get(ctx, "browser-a", "k")
		require.NoError(t, err)
		require.True(t, found, "read %d", i)
	}

	time.Sleep(300 * time.Millisecond)
	_, found, err := repo.Get(ctx, "browser-a", "k")
	require.NoError(t, err)
	require.False(t, found)
}

func newRedisRepoForTest(t *testing.T, prefix string, ttl time.Duration) (*miniredis.Miniredis, *kvstore.RedisRepo) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, kvstore.NewRedisRepo(client, prefix, ttl)
}

func TestRedisRepo(t *testing.T) {
	_, repo := newRedisRepoForTest(t, "sc:test", time.Minute)
	exerciseRepo(t, repo)
}

func TestRedisRepo_KeyLayoutAndExpiry(t *testing.T) {
	ctx := context.Background()
	m, repo := newRedisRepoForTest(t, "sc:kv", 30*time.Minute)

	require.NoError(t, repo.Set(ctx, "browser-a", "twitter_oauth_state", "abc"))
	require.True(t, m.Exists("sc:kv:browser-a"))
	require.Equal(t, "abc", m.HGet("sc:kv:browser-a", "twitter_oauth_state"))
	require.Equal(t, 30*time.Minute, m.TTL("sc:kv:browser-a"))

	// A write refreshes the expiry of the whole browser hash
	m.FastForward(20 * time.Minute)
	require.NoError(t, repo.Set(ctx, "browser-a", "twitter_oauth_timestamp", "1700000000000"))
	require.Equal(t, 30*time.Minute, m.TTL("sc:kv:browser-a"))

	m.FastForward(31 * time.Minute)
	_, found, err := repo.Get(ctx, "browser-a", "twitter_oauth_state")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisRepo_DefaultPrefix(t *testing.T) {
	m, repo := newRedisRepoForTest(t, "", 0)

	require.NoError(t, repo.Set(context.Background(), "browser-a", "k", "v"))
	require.True(t, m.Exists("sc:kv:browser-a"))
	require.Zero(t, m.TTL("sc:kv:browser-a"))
}

func TestRedisRepo_ServerError(t *testing.T) {
	ctx := context.Background()
	m, repo := newRedisRepoForTest(t, "sc:kv", time.Minute)
	m.SetError("LOADING Redis is loading the dataset in memory")

	_, _, err := repo.Get(ctx, "browser-a", "k")
	require.Error(t, err)
	require.Contains(t, err.Error(), "[RedisRepo Get] k")
	require.Error(t, repo.Set(ctx, "browser-a", "k", "v"))
	require.Error(t, repo.Delete(ctx, "browser-a", "k"))
	require.Error(t, repo.Clear(ctx, "browser-a"))
}
