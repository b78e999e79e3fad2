package store

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the backing store could not serve the request.
	ErrUnavailable = errors.New("store unavailable")
)

// KV is the storage port consumed by the gate. Get reports ok=false for a
// missing key. Remove ignores keys that do not exist.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}
