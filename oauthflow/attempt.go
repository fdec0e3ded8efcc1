package oauthflow

import (
	"context"
	"strconv"
	"time"

	"github.com/jrsteele09/social-connect/internal/errors"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/jrsteele09/social-connect/platform"
)

// Attempt is one pending connection, kept in the browser's storage from the
// redirect until the callback is processed
type Attempt struct {
	State     string
	CreatedAt time.Time // Zero when the timestamp is missing or unreadable
	Platform  platform.Platform
}

// Expired reports whether more than ttl has passed since the attempt was created
func (a *Attempt) Expired(now time.Time, ttl time.Duration) bool {
	return a.CreatedAt.IsZero() || now.Sub(a.CreatedAt) > ttl
}

// AttemptStore persists attempts under {prefix}_oauth_state and
// {prefix}_oauth_timestamp. There is at most one attempt per platform per
// browser; a new one overwrites the previous.
type AttemptStore struct {
	store kvstore.Repo
}

func NewAttemptStore(store kvstore.Repo) *AttemptStore {
	return &AttemptStore{store: store}
}

// Save overwrites the browser's attempt for the platform
func (s *AttemptStore) Save(ctx context.Context, browserID string, cfg platform.Config, attempt *Attempt) error {
	if err := s.store.Set(ctx, browserID, cfg.StateKey(), attempt.State); err != nil {
		return errors.Wrapf(err, "[AttemptStore Save] state")
	}
	millis := strconv.FormatInt(attempt.CreatedAt.UnixMilli(), 10)
	return errors.Wrapf(s.store.Set(ctx, browserID, cfg.TimestampKey(), millis), "[AttemptStore Save] timestamp")
}

// Load returns the stored attempt, or nil when no state is stored
func (s *AttemptStore) Load(ctx context.Context, browserID string, cfg platform.Config) (*Attempt, error) {
	state, found, err := s.store.Get(ctx, browserID, cfg.StateKey())
	if err != nil {
		return nil, errors.Wrapf(err, "[AttemptStore Load] state")
	}
	if !found || state == "" {
		return nil, nil
	}

	attempt := &Attempt{State: state, Platform: cfg.Platform}
	raw, found, err := s.store.Get(ctx, browserID, cfg.TimestampKey())
	if err != nil {
		return nil, errors.Wrapf(err, "[AttemptStore Load] timestamp")
	}
	if found {
		if millis, err := strconv.ParseInt(raw, 10, 64); err == nil && millis > 0 {
			attempt.CreatedAt = time.UnixMilli(millis)
		}
	}
	return attempt, nil
}

// Clear removes the attempt. Clearing a missing attempt is not an error.
func (s *AttemptStore) Clear(ctx context.Context, browserID string, cfg platform.Config) error {
	return errors.Wrapf(s.store.Delete(ctx, browserID, cfg.StateKey(), cfg.TimestampKey()), "[AttemptStore Clear]")
}
