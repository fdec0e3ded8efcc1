package kvstore

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jrsteele09/social-connect/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
// Browsers not read or written for longer than the TTL, or pushed out once
// maxBrowsers is reached, lose their storage.
type InMemoryRepo struct {
	mu       sync.Mutex
	browsers *expirable.LRU[string, map[string]string] // browserID -> key -> value
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory browser storage repository
func NewInMemoryRepo(maxBrowsers int, ttl time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		browsers: expirable.NewLRU[string, map[string]string](maxBrowsers, nil, ttl),
	}
}

// Get retrieves the value stored for key and refreshes the browser's expiry
func (r *InMemoryRepo) Get(_ context.Context, browserID, key string) (string, bool, error) {
	if err := validate(browserID, key); err != nil {
		return "", false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	values, ok := r.browsers.Get(browserID)
	if !ok {
		return "", false, nil
	}
	// expirable.LRU only resets the expiry on Add
	r.browsers.Add(browserID, values)

	value, ok := values[key]
	return value, ok, nil
}

// Set stores value under key and refreshes the browser's expiry
func (r *InMemoryRepo) Set(_ context.Context, browserID, key, value string) error {
	if err := validate(browserID, key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	values, ok := r.browsers.Get(browserID)
	if !ok {
		values = make(map[string]string)
	}
	values[key] = value
	r.browsers.Add(browserID, values)
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (r *InMemoryRepo) Delete(_ context.Context, browserID string, keys ...string) error {
	if browserID == "" {
		return errors.ErrEmptyBrowserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	values, ok := r.browsers.Get(browserID)
	if !ok {
		return nil // Already doesn't exist, no error
	}
	for _, key := range keys {
		delete(values, key)
	}

	// Clean up empty browser namespaces
	if len(values) == 0 {
		r.browsers.Remove(browserID)
	}
	return nil
}

// Clear drops everything stored for the browser
func (r *InMemoryRepo) Clear(_ context.Context, browserID string) error {
	if browserID == "" {
		return errors.ErrEmptyBrowserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.browsers.Remove(browserID)
	return nil
}

func validate(browserID, key string) error {
	if browserID == "" {
		return errors.ErrEmptyBrowserID
	}
	if key == "" {
		return errors.ErrEmptyKey
	}
	return nil
}
