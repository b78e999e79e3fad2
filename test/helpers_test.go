//go:build integration
// +build integration

package test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// backends returns one constructor per store implementation.
func backends() map[string]func(t *testing.T) store.KV {
	return map[string]func(t *testing.T) store.KV{
		"memory": func(t *testing.T) store.KV {
			return store.NewMemory()
		},
		"redis": func(t *testing.T) store.KV {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return store.NewRedis(rdb, "it")
		},
		"sqlite": func(t *testing.T) store.KV {
			s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "gate.db"))
			if err != nil {
				t.Fatalf("OpenSQLite failed: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func newIntegrationEngine(t *testing.T, kv store.KV) (*goGate.Engine, *manualClock) {
	t.Helper()

	clk := &manualClock{now: time.UnixMilli(1_700_000_000_000)}
	engine, err := goGate.New().WithStore(kv).WithClock(clk).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clk
}
