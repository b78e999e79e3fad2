package goGate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGate/internal/flows"
	"github.com/MrEthical07/goGate/internal/rate"
	"github.com/MrEthical07/goGate/store"
	"github.com/MrEthical07/goGate/verifier"
	"github.com/sirupsen/logrus"
)

// Engine is the access gate. Build one with [New].
type Engine struct {
	config      Config
	store       store.KV
	clock       Clock
	logger      logrus.FieldLogger
	deps        flows.GateDeps
	rateLimiter *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return DefaultConfig()
	}
	return e.config
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the gate counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) keys(ctx context.Context) flows.Keys {
	return flows.KeysFor(DeviceFromContext(ctx))
}

func (e *Engine) log(ctx context.Context) logrus.FieldLogger {
	l := e.logger
	if dev := DeviceFromContext(ctx); dev != "" {
		l = l.WithField("device", dev)
	}
	if ip := ClientIPFromContext(ctx); ip != "" {
		l = l.WithField("ip", ip)
	}
	return l
}

// State returns the device's gate state. A lockout whose expiry has passed is
// cleared by this read and the attempt counter drops back to zero.
func (e *Engine) State(ctx context.Context) (State, error) {
	if e == nil || e.store == nil {
		return State{}, ErrEngineNotReady
	}

	start := time.Now()
	snap, err := flows.RunState(ctx, e.keys(ctx), e.deps)
	e.metrics.Observe(MetricStateLatency, time.Since(start))
	if err != nil {
		return State{}, err
	}

	if snap.Expired {
		e.metricInc(MetricLockoutExpired)
		e.emitAudit(ctx, auditEventLockoutExpired, true, "", nil, nil)
		e.log(ctx).Debug("lockout expired, attempts reset")
	}

	return stateFromSnapshot(snap), nil
}

func stateFromSnapshot(s flows.StateSnapshot) State {
	return State{
		Attempts:      s.Attempts,
		Locked:        s.Locked,
		Remaining:     s.Remaining,
		LockoutExpiry: s.LockoutExpiry,
		Unlocked:      s.Unlocked,
		UsageCount:    s.UsageCount,
	}
}

// RecordFailedAttempt counts one wrong code for feature. When the attempt
// threshold is reached it opens a lockout whose length depends on feature and
// reports Locked with the full duration.
//
// During an active lockout nothing is written; the current lockout is returned
// together with ErrGateLocked.
func (e *Engine) RecordFailedAttempt(ctx context.Context, feature Feature) (Lockout, error) {
	if e == nil || e.store == nil {
		return Lockout{}, ErrEngineNotReady
	}

	duration, err := e.config.Gate.LockoutFor(feature)
	if err != nil {
		return Lockout{}, err
	}

	res, err := flows.RunRecordFailure(ctx, e.keys(ctx), duration, e.deps)
	if err != nil {
		return Lockout{}, err
	}

	if res.AlreadyLocked {
		e.metricInc(MetricLockedAttemptRejected)
		e.emitAudit(ctx, auditEventLockedAttempt, false, feature, ErrGateLocked, nil)
		return Lockout{Locked: true, Remaining: res.Remaining}, ErrGateLocked
	}

	e.metricInc(MetricAttemptRecorded)
	e.emitAudit(ctx, auditEventAttemptFailed, false, feature, errInvalidCode, func() map[string]string {
		return map[string]string{"attempts": fmt.Sprint(res.Attempts)}
	})

	if !res.Locked {
		return Lockout{}, nil
	}

	if feature == FeatureProtected {
		e.metricInc(MetricLockoutProtected)
	} else {
		e.metricInc(MetricLockoutGeneral)
	}
	e.emitAudit(ctx, auditEventLockoutCreated, false, feature, nil, func() map[string]string {
		return map[string]string{"duration_ms": fmt.Sprint(res.Remaining.Milliseconds())}
	})
	e.log(ctx).Warnf("gate locked for %v after %d failed attempts (%s)", res.Remaining, res.Attempts, feature)

	return Lockout{Locked: true, Remaining: res.Remaining}, nil
}

// UnlockSession opens the gate for the device and clears attempts and any
// lockout. It is idempotent.
func (e *Engine) UnlockSession(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if err := flows.RunUnlock(ctx, e.keys(ctx), e.deps); err != nil {
		return err
	}

	e.metricInc(MetricUnlock)
	e.emitAudit(ctx, auditEventUnlocked, true, "", nil, nil)
	e.log(ctx).Info("gate unlocked")
	return nil
}

// Verify reports whether candidate is an accepted code. It does not touch the
// store; combine it with UnlockSession or RecordFailedAttempt, or use Submit.
func (e *Engine) Verify(candidate string) bool {
	ok := verifier.Verify(candidate)
	if ok {
		e.metricInc(MetricVerifySuccess)
	} else {
		e.metricInc(MetricVerifyFailure)
	}
	return ok
}

// IncrementUsage adds one free use and returns the new count. It applies no
// cap; see CheckQuota.
func (e *Engine) IncrementUsage(ctx context.Context) (int, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	n, err := flows.RunIncrementUsage(ctx, e.keys(ctx), e.deps)
	if err != nil {
		return 0, err
	}
	e.metricInc(MetricUsageIncrement)
	e.emitAudit(ctx, auditEventUsageIncremented, true, FeatureGeneral, nil, func() map[string]string {
		return map[string]string{"count": fmt.Sprint(n)}
	})
	return n, nil
}

// CheckQuota reports whether the device may use the quota-limited feature now.
// Unlocked devices are unlimited.
func (e *Engine) CheckQuota(ctx context.Context) (QuotaStatus, error) {
	if e == nil || e.store == nil {
		return QuotaStatus{}, ErrEngineNotReady
	}

	q, err := flows.RunCheckQuota(ctx, e.keys(ctx), e.config.Gate.FreeUsageLimit, e.deps)
	if err != nil {
		return QuotaStatus{}, err
	}

	if !q.Allowed {
		e.metricInc(MetricQuotaExceeded)
		e.emitAudit(ctx, auditEventQuotaExceeded, false, FeatureGeneral, ErrQuotaExceeded, nil)
	}

	return QuotaStatus{
		Allowed:   q.Allowed,
		Unlimited: q.Unlocked,
		Used:      q.Used,
		Limit:     q.Limit,
		Remaining: q.Remaining,
	}, nil
}

// Submit runs one code entry the way the lock prompt does: an empty code is
// ignored, a valid code unlocks (even during a lockout), a wrong code during a
// lockout is refused without being counted, and any other wrong code is
// recorded against feature.
func (e *Engine) Submit(ctx context.Context, feature Feature, code string) (SubmitResult, error) {
	if e == nil || e.store == nil {
		return SubmitResult{}, ErrEngineNotReady
	}
	if _, err := e.config.Gate.LockoutFor(feature); err != nil {
		return SubmitResult{}, err
	}

	if strings.TrimSpace(code) == "" {
		return SubmitResult{Status: SubmitEmpty}, nil
	}

	if err := e.throttle(ctx, feature); err != nil {
		return SubmitResult{}, err
	}

	if e.Verify(code) {
		if err := e.UnlockSession(ctx); err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{Status: SubmitUnlocked}, nil
	}

	state, err := e.State(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	if state.Locked {
		e.metricInc(MetricOverrideDenied)
		e.emitAudit(ctx, auditEventOverrideDenied, false, feature, errInvalidCode, nil)
		return SubmitResult{
			Status:    SubmitOverrideDenied,
			Attempts:  state.Attempts,
			Remaining: state.Remaining,
		}, nil
	}

	lockout, err := e.RecordFailedAttempt(ctx, feature)
	if err != nil && !errors.Is(err, ErrGateLocked) {
		return SubmitResult{}, err
	}

	after, err := e.State(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	res := SubmitResult{
		Status:    SubmitDenied,
		Attempts:  after.Attempts,
		Remaining: lockout.Remaining,
	}
	if left := e.config.Gate.MaxAttempts - after.Attempts; left > 0 {
		res.AttemptsLeft = left
	}
	if lockout.Locked {
		res.Status = SubmitLockedOut
	}
	return res, nil
}

func (e *Engine) throttle(ctx context.Context, feature Feature) error {
	if e.rateLimiter == nil {
		return nil
	}
	ip := ClientIPFromContext(ctx)

	if err := e.rateLimiter.CheckSubmit(ctx, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricRateLimitHit)
			e.emitAudit(ctx, auditEventRateLimited, false, feature, ErrVerifyRateLimited, nil)
			e.log(ctx).Warn("code submissions rate limited")
			return ErrVerifyRateLimited
		}
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	if err := e.rateLimiter.IncrementSubmit(ctx, ip); err != nil {
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	return nil
}

// Forget removes every gate key for the device, including the unlocked flag.
// It is an administrative reset; no gate transition calls it.
func (e *Engine) Forget(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if err := flows.RunForget(ctx, e.keys(ctx), e.deps); err != nil {
		return err
	}
	e.metricInc(MetricForget)
	e.emitAudit(ctx, auditEventDeviceForgotten, true, "", nil, nil)
	e.log(ctx).Info("gate state forgotten")
	return nil
}
