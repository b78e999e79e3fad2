package flows

import (
	"context"
	"strconv"
	"time"
)

// StateSnapshot is the computed gate state for one device.
type StateSnapshot struct {
	Attempts      int
	LockoutExpiry time.Time
	Remaining     time.Duration
	Locked        bool
	Unlocked      bool
	UsageCount    int
	// Expired is set when this read observed and cleared an expired lockout.
	Expired bool
}

// FailureResult reports the outcome of recording one failed attempt.
type FailureResult struct {
	Attempts  int
	Locked    bool
	Remaining time.Duration
	// AlreadyLocked is set when a lockout was active and nothing was written.
	AlreadyLocked bool
}

// RunState reads the gate state. A lockout whose expiry has passed is removed
// and the attempt counter reset as part of the read.
func RunState(ctx context.Context, keys Keys, deps GateDeps) (StateSnapshot, error) {
	var s StateSnapshot

	attempts, err := readInt(ctx, deps.Store, keys.Attempts)
	if err != nil {
		return s, err
	}
	lockoutMS, err := readInt(ctx, deps.Store, keys.Lockout)
	if err != nil {
		return s, err
	}
	unlocked, _, err := deps.Store.Get(ctx, keys.Unlocked)
	if err != nil {
		return s, err
	}
	usage, err := readInt(ctx, deps.Store, keys.Usage)
	if err != nil {
		return s, err
	}

	s.Attempts = int(attempts)
	s.Unlocked = unlocked == "true"
	s.UsageCount = int(usage)

	if lockoutMS > 0 {
		expiry := time.UnixMilli(lockoutMS)
		now := deps.Now()
		if now.Before(expiry) {
			s.LockoutExpiry = expiry
			s.Remaining = expiry.Sub(now)
			s.Locked = true
		} else {
			if err := deps.Store.Remove(ctx, keys.Lockout); err != nil {
				return s, err
			}
			if err := deps.Store.Set(ctx, keys.Attempts, "0"); err != nil {
				return s, err
			}
			s.Attempts = 0
			s.Expired = true
		}
	}

	return s, nil
}

// RunRecordFailure increments the attempt counter and opens a lockout of the
// given duration once the threshold is reached. While a lockout is active it
// writes nothing and reports AlreadyLocked.
func RunRecordFailure(ctx context.Context, keys Keys, lockout time.Duration, deps GateDeps) (FailureResult, error) {
	state, err := RunState(ctx, keys, deps)
	if err != nil {
		return FailureResult{}, err
	}
	if state.Locked {
		return FailureResult{
			Attempts:      state.Attempts,
			Locked:        true,
			Remaining:     state.Remaining,
			AlreadyLocked: true,
		}, nil
	}

	attempts := state.Attempts + 1
	if err := deps.Store.Set(ctx, keys.Attempts, strconv.Itoa(attempts)); err != nil {
		return FailureResult{}, err
	}

	if attempts < deps.MaxAttempts {
		return FailureResult{Attempts: attempts}, nil
	}

	expiry := deps.Now().Add(lockout)
	if err := deps.Store.Set(ctx, keys.Lockout, strconv.FormatInt(expiry.UnixMilli(), 10)); err != nil {
		return FailureResult{}, err
	}
	return FailureResult{Attempts: attempts, Locked: true, Remaining: lockout}, nil
}

// RunUnlock marks the device unlocked and clears attempts and any lockout.
func RunUnlock(ctx context.Context, keys Keys, deps GateDeps) error {
	if err := deps.Store.Set(ctx, keys.Unlocked, "true"); err != nil {
		return err
	}
	return deps.Store.Remove(ctx, keys.Attempts, keys.Lockout)
}

// RunForget removes every gate key for the device.
func RunForget(ctx context.Context, keys Keys, deps GateDeps) error {
	return deps.Store.Remove(ctx, keys.All()...)
}

// readInt parses a stored decimal integer. Missing or malformed values read
// as zero.
func readInt(ctx context.Context, st GateStore, key string) (int64, error) {
	v, ok, err := st.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, perr := strconv.ParseInt(v, 10, 64)
	if perr != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}
