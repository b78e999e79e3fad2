package goGate

import (
	"fmt"
	"strings"
	"time"
)

// Feature identifies which gated feature triggered a verification. It selects
// the lockout duration when the attempt threshold is reached.
type Feature string

const (
	// FeatureProtected is the premium profile builder tab.
	FeatureProtected Feature = "PROFILE"
	// FeatureGeneral is the prompt builder once its free quota is spent.
	FeatureGeneral Feature = "PROMPT_GEN"
)

// ParseFeature maps a wire value to a Feature. Matching is case-insensitive.
func ParseFeature(s string) (Feature, error) {
	switch Feature(strings.ToUpper(strings.TrimSpace(s))) {
	case FeatureProtected:
		return FeatureProtected, nil
	case FeatureGeneral:
		return FeatureGeneral, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
}

// Phase is the logical gate state for a device.
type Phase int

const (
	// PhaseAwaitingInput means not unlocked and no active lockout.
	PhaseAwaitingInput Phase = iota
	// PhaseLocked means not unlocked and a lockout is running.
	PhaseLocked
	// PhaseOpen means the device has been unlocked.
	PhaseOpen
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "OPEN"
	case PhaseLocked:
		return "LOCKED"
	default:
		return "AWAITING_INPUT"
	}
}

// State is the computed gate state for one device.
type State struct {
	Attempts      int
	Locked        bool
	Remaining     time.Duration
	LockoutExpiry time.Time
	Unlocked      bool
	UsageCount    int
}

// Phase derives the logical state. An unlocked device is OPEN even if a stale
// lockout is still stored.
func (s State) Phase() Phase {
	switch {
	case s.Unlocked:
		return PhaseOpen
	case s.Locked:
		return PhaseLocked
	default:
		return PhaseAwaitingInput
	}
}

// Lockout is the result of recording a failed attempt.
type Lockout struct {
	Locked    bool
	Remaining time.Duration
}

// SubmitStatus classifies the outcome of [Engine.Submit].
type SubmitStatus int

const (
	// SubmitEmpty means no code was entered; nothing was counted.
	SubmitEmpty SubmitStatus = iota
	// SubmitUnlocked means the code was accepted and the device is now open.
	SubmitUnlocked
	// SubmitDenied means the code was wrong and one attempt was counted.
	SubmitDenied
	// SubmitLockedOut means the code was wrong and this attempt opened a lockout.
	SubmitLockedOut
	// SubmitOverrideDenied means a wrong code was entered during an active
	// lockout. Nothing was counted.
	SubmitOverrideDenied
)

func (s SubmitStatus) String() string {
	switch s {
	case SubmitUnlocked:
		return "unlocked"
	case SubmitDenied:
		return "denied"
	case SubmitLockedOut:
		return "locked_out"
	case SubmitOverrideDenied:
		return "override_denied"
	default:
		return "empty"
	}
}

// SubmitResult reports what a code submission did.
type SubmitResult struct {
	Status       SubmitStatus
	Attempts     int
	AttemptsLeft int
	Remaining    time.Duration
}

// QuotaStatus reports the free-usage position of a device.
type QuotaStatus struct {
	Allowed   bool
	Unlimited bool
	Used      int
	Limit     int
	Remaining int
}

// Err returns ErrQuotaExceeded when the status denies a use, nil otherwise.
func (q QuotaStatus) Err() error {
	if q.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %d/%d used", ErrQuotaExceeded, q.Used, q.Limit)
}
