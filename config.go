package goGate

import (
	"errors"
	"fmt"
	"time"
)

// Config holds every tunable of the gate. Obtain defaults from
// [DefaultConfig] and override fields before passing it to [Builder.WithConfig].
type Config struct {
	Gate     GateConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
GATE CONFIG
====================================
*/

// GateConfig holds the lockout and quota policy.
type GateConfig struct {
	// MaxAttempts failed codes open a lockout.
	MaxAttempts int
	// ProtectedLockout applies when FeatureProtected reaches the threshold.
	ProtectedLockout time.Duration
	// GeneralLockout applies when FeatureGeneral reaches the threshold.
	GeneralLockout time.Duration
	// FreeUsageLimit is the number of free prompt builds before the gate.
	FreeUsageLimit int
	// InactivityTimeout abandons an unanswered code prompt.
	InactivityTimeout time.Duration
	// CountdownInterval is how often a lockout countdown re-reads state.
	CountdownInterval time.Duration
}

// ThrottleConfig caps code submissions per client IP across devices. It needs
// a Redis client on the Builder.
type ThrottleConfig struct {
	Enabled        bool
	MaxSubmissions int
	Window         time.Duration
}

// AuditConfig controls asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the stock policy: 3 attempts, a 2 hour lockout for
// the protected feature, 1 minute for the general one, and 10 free uses.
func DefaultConfig() Config {
	return Config{
		Gate: GateConfig{
			MaxAttempts:       3,
			ProtectedLockout:  2 * time.Hour,
			GeneralLockout:    1 * time.Minute,
			FreeUsageLimit:    10,
			InactivityTimeout: 10 * time.Second,
			CountdownInterval: 1 * time.Second,
		},
		Throttle: ThrottleConfig{
			Enabled:        false,
			MaxSubmissions: 30,
			Window:         15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Gate.MaxAttempts <= 0 {
		return errors.New("Gate.MaxAttempts must be > 0")
	}
	if c.Gate.ProtectedLockout <= 0 {
		return errors.New("Gate.ProtectedLockout must be > 0")
	}
	if c.Gate.GeneralLockout <= 0 {
		return errors.New("Gate.GeneralLockout must be > 0")
	}
	if c.Gate.FreeUsageLimit < 0 {
		return errors.New("Gate.FreeUsageLimit must be >= 0")
	}
	if c.Gate.InactivityTimeout <= 0 {
		return errors.New("Gate.InactivityTimeout must be > 0")
	}
	if c.Gate.CountdownInterval <= 0 {
		return errors.New("Gate.CountdownInterval must be > 0")
	}

	if c.Throttle.Enabled {
		if c.Throttle.MaxSubmissions <= 0 {
			return errors.New("Throttle.MaxSubmissions must be > 0 when enabled")
		}
		if c.Throttle.Window <= 0 {
			return errors.New("Throttle.Window must be > 0 when enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when audit is enabled")
	}
	return nil
}

// LockoutFor returns the lockout duration opened by feature. The duration is
// fixed when the lockout is created.
func (g GateConfig) LockoutFor(feature Feature) (time.Duration, error) {
	switch feature {
	case FeatureProtected:
		return g.ProtectedLockout, nil
	case FeatureGeneral:
		return g.GeneralLockout, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, string(feature))
}
