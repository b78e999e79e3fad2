package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goGate/store"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestDeps() (GateDeps, *store.Memory, *testClock) {
	kv := store.NewMemory()
	clk := &testClock{now: time.UnixMilli(1_700_000_000_000)}
	return GateDeps{Store: kv, Now: clk.Now, MaxAttempts: 3}, kv, clk
}

func TestRunStateDefaultsOnEmptyStore(t *testing.T) {
	deps, _, _ := newTestDeps()

	s, err := RunState(context.Background(), KeysFor(""), deps)
	if err != nil {
		t.Fatalf("RunState failed: %v", err)
	}
	if s.Attempts != 0 || s.Locked || s.Unlocked || s.UsageCount != 0 || s.Remaining != 0 {
		t.Fatalf("unexpected default state: %+v", s)
	}
}

func TestRunStateMalformedValuesReadAsZero(t *testing.T) {
	deps, kv, _ := newTestDeps()
	ctx := context.Background()
	keys := KeysFor("")

	_ = kv.Set(ctx, keys.Attempts, "abc")
	_ = kv.Set(ctx, keys.Usage, "-4")
	_ = kv.Set(ctx, keys.Lockout, "soon")

	s, err := RunState(ctx, keys, deps)
	if err != nil {
		t.Fatalf("RunState failed: %v", err)
	}
	if s.Attempts != 0 || s.UsageCount != 0 || s.Locked {
		t.Fatalf("expected zeroed state, got %+v", s)
	}
}

func TestRecordFailureCountsUpToThreshold(t *testing.T) {
	deps, _, _ := newTestDeps()
	ctx := context.Background()
	keys := KeysFor("")

	for want := 1; want < deps.MaxAttempts; want++ {
		res, err := RunRecordFailure(ctx, keys, time.Minute, deps)
		if err != nil {
			t.Fatalf("attempt %d failed: %v", want, err)
		}
		if res.Locked || res.Attempts != want || res.Remaining != 0 {
			t.Fatalf("attempt %d: unexpected result %+v", want, res)
		}
	}

	res, err := RunRecordFailure(ctx, keys, time.Minute, deps)
	if err != nil {
		t.Fatalf("threshold attempt failed: %v", err)
	}
	if !res.Locked || res.Attempts != deps.MaxAttempts || res.Remaining != time.Minute {
		t.Fatalf("expected lockout, got %+v", res)
	}

	// Further failures while locked write nothing.
	again, err := RunRecordFailure(ctx, keys, 2*time.Hour, deps)
	if err != nil {
		t.Fatalf("locked attempt failed: %v", err)
	}
	if !again.AlreadyLocked || again.Attempts != deps.MaxAttempts || again.Remaining != time.Minute {
		t.Fatalf("expected untouched lockout, got %+v", again)
	}
}

func TestLockoutExpiryResetsOnRead(t *testing.T) {
	deps, kv, clk := newTestDeps()
	ctx := context.Background()
	keys := KeysFor("")

	for i := 0; i < deps.MaxAttempts; i++ {
		if _, err := RunRecordFailure(ctx, keys, time.Minute, deps); err != nil {
			t.Fatalf("failure %d: %v", i, err)
		}
	}

	clk.now = clk.now.Add(59 * time.Second)
	s, err := RunState(ctx, keys, deps)
	if err != nil {
		t.Fatalf("RunState failed: %v", err)
	}
	if !s.Locked || s.Remaining != time.Second || s.Attempts != 3 {
		t.Fatalf("expected active lockout, got %+v", s)
	}

	clk.now = clk.now.Add(time.Second)
	s, err = RunState(ctx, keys, deps)
	if err != nil {
		t.Fatalf("RunState failed: %v", err)
	}
	if s.Locked || s.Attempts != 0 || !s.Expired {
		t.Fatalf("expected lazy expiry, got %+v", s)
	}
	if _, ok, _ := kv.Get(ctx, keys.Lockout); ok {
		t.Fatal("expected lockout key removed")
	}

	s, err = RunState(ctx, keys, deps)
	if err != nil {
		t.Fatalf("RunState failed: %v", err)
	}
	if s.Expired || s.Attempts != 0 || s.Locked {
		t.Fatalf("second read should be a no-op, got %+v", s)
	}
}

func TestRunUnlockClearsLockout(t *testing.T) {
	deps, kv, _ := newTestDeps()
	ctx := context.Background()
	keys := KeysFor("")

	for i := 0; i < deps.MaxAttempts; i++ {
		_, _ = RunRecordFailure(ctx, keys, 2*time.Hour, deps)
	}
	if err := RunUnlock(ctx, keys, deps); err != nil {
		t.Fatalf("RunUnlock failed: %v", err)
	}
	if err := RunUnlock(ctx, keys, deps); err != nil {
		t.Fatalf("second RunUnlock failed: %v", err)
	}

	s, err := RunState(ctx, keys, deps)
	if err != nil {
		t.Fatalf("RunState failed: %v", err)
	}
	if !s.Unlocked || s.Locked || s.Attempts != 0 {
		t.Fatalf("unexpected state after unlock: %+v", s)
	}
	if v, _, _ := kv.Get(ctx, keys.Unlocked); v != "true" {
		t.Fatalf("expected literal true flag, got %q", v)
	}
}

func TestIncrementUsageAndQuota(t *testing.T) {
	deps, _, _ := newTestDeps()
	ctx := context.Background()
	keys := KeysFor("")

	for want := 1; want <= 10; want++ {
		q, err := RunCheckQuota(ctx, keys, 10, deps)
		if err != nil || !q.Allowed {
			t.Fatalf("use %d should be allowed: %+v err=%v", want, q, err)
		}
		n, err := RunIncrementUsage(ctx, keys, deps)
		if err != nil || n != want {
			t.Fatalf("increment %d: got %d err=%v", want, n, err)
		}
	}

	q, err := RunCheckQuota(ctx, keys, 10, deps)
	if err != nil {
		t.Fatalf("RunCheckQuota failed: %v", err)
	}
	if q.Allowed || q.Used != 10 || q.Remaining != 0 {
		t.Fatalf("expected exhausted quota, got %+v", q)
	}

	if err := RunUnlock(ctx, keys, deps); err != nil {
		t.Fatalf("RunUnlock failed: %v", err)
	}
	q, err = RunCheckQuota(ctx, keys, 10, deps)
	if err != nil || !q.Allowed || !q.Unlocked {
		t.Fatalf("unlocked device should be unlimited: %+v err=%v", q, err)
	}
}

func TestKeysForDeviceNamespaces(t *testing.T) {
	deps, _, _ := newTestDeps()
	ctx := context.Background()

	a, b := KeysFor("dev-a"), KeysFor("dev-b")
	if a.Attempts != "dev-a:sec_attempts" || KeysFor("").Lockout != "sec_lockout" {
		t.Fatalf("unexpected key layout: %+v", a)
	}

	if err := RunUnlock(ctx, a, deps); err != nil {
		t.Fatalf("RunUnlock failed: %v", err)
	}
	s, err := RunState(ctx, b, deps)
	if err != nil {
		t.Fatalf("RunState failed: %v", err)
	}
	if s.Unlocked {
		t.Fatal("unlock leaked across devices")
	}

	if err := RunForget(ctx, a, deps); err != nil {
		t.Fatalf("RunForget failed: %v", err)
	}
	s, _ = RunState(ctx, a, deps)
	if s.Unlocked {
		t.Fatal("forget should clear the unlocked flag")
	}
}

type failingStore struct{}

var errBoom = errors.New("boom")

func (failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errBoom }
func (failingStore) Set(context.Context, string, string) error         { return errBoom }
func (failingStore) Remove(context.Context, ...string) error           { return errBoom }

func TestStoreErrorsPropagate(t *testing.T) {
	deps := GateDeps{Store: failingStore{}, Now: time.Now, MaxAttempts: 3}
	ctx := context.Background()

	if _, err := RunState(ctx, KeysFor(""), deps); !errors.Is(err, errBoom) {
		t.Fatalf("RunState: expected store error, got %v", err)
	}
	if _, err := RunRecordFailure(ctx, KeysFor(""), time.Minute, deps); !errors.Is(err, errBoom) {
		t.Fatalf("RunRecordFailure: expected store error, got %v", err)
	}
	if _, err := RunIncrementUsage(ctx, KeysFor(""), deps); !errors.Is(err, errBoom) {
		t.Fatalf("RunIncrementUsage: expected store error, got %v", err)
	}
}
