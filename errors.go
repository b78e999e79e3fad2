package goGate

import "errors"

var (
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUnknownFeature is returned for a feature outside the lockout table.
	ErrUnknownFeature = errors.New("unknown gated feature")
	// ErrGateLocked is returned when a failure is recorded during an active
	// lockout. The state is left unchanged.
	ErrGateLocked = errors.New("gate locked")
	// ErrVerifyRateLimited is returned when the client IP exceeded its
	// submission budget.
	ErrVerifyRateLimited = errors.New("code submission rate limited")
	// ErrThrottleUnavailable wraps failures of the submission throttle backend.
	ErrThrottleUnavailable = errors.New("submission throttle unavailable")
	// ErrQuotaExceeded is returned by [QuotaStatus.Err] once a device that is
	// not unlocked has spent its free uses.
	ErrQuotaExceeded = errors.New("free usage quota exceeded")
)
