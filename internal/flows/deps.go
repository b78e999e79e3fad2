package flows

import (
	"context"
	"time"
)

// GateStore is the key-value port the gate flows read and write.
type GateStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// GateDeps captures gate flow dependencies. Root engine builds this once and
// delegates request methods to the matching flow function.
type GateDeps struct {
	Store       GateStore
	Now         func() time.Time
	MaxAttempts int
}
