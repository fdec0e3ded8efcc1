// Package kvstore holds the per-browser key-value storage that backs the
// OAuth attempt bookkeeping and the persisted auth session.
package kvstore

import "context"

// Repo is a string key-value store namespaced by browser id.
// Writes overwrite any previous value for the same key.
type Repo interface {
	Get(ctx context.Context, browserID, key string) (value string, found bool, err error)
	Set(ctx context.Context, browserID, key, value string) error
	Delete(ctx context.Context, browserID string, keys ...string) error
	Clear(ctx context.Context, browserID string) error
}
