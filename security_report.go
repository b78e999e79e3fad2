package goGate

import (
	"time"

	"github.com/MrEthical07/goGate/verifier"
)

// SecurityReport summarises the gate policy an engine enforces. It carries no
// codes or device data and is safe to log.
type SecurityReport struct {
	MaxAttempts      int
	ProtectedLockout time.Duration
	GeneralLockout   time.Duration
	FreeUsageLimit   int
	AcceptedCodes    int
	ThrottleActive   bool
	AuditActive      bool
	MetricsActive    bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		MaxAttempts:      e.config.Gate.MaxAttempts,
		ProtectedLockout: e.config.Gate.ProtectedLockout,
		GeneralLockout:   e.config.Gate.GeneralLockout,
		FreeUsageLimit:   e.config.Gate.FreeUsageLimit,
		AcceptedCodes:    verifier.Accepted(),
		ThrottleActive:   e.rateLimiter != nil,
		AuditActive:      e.audit != nil,
		MetricsActive:    e.config.Metrics.Enabled,
	}
}
