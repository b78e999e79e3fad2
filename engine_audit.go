package goGate

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	auditEventUnlocked         = "gate_unlocked"
	auditEventAttemptFailed    = "attempt_failed"
	auditEventLockoutCreated   = "lockout_created"
	auditEventLockoutExpired   = "lockout_expired"
	auditEventLockedAttempt    = "locked_attempt_rejected"
	auditEventOverrideDenied   = "override_denied"
	auditEventQuotaExceeded    = "quota_exceeded"
	auditEventRateLimited      = "rate_limit_triggered"
	auditEventDeviceForgotten  = "device_forgotten"
	auditEventUsageIncremented = "usage_incremented"
)

// AuditErrorCode is the stable error label written to audit events.
type AuditErrorCode string

const (
	auditErrInvalidCode    AuditErrorCode = "invalid_code"
	auditErrLocked         AuditErrorCode = "locked"
	auditErrRateLimited    AuditErrorCode = "rate_limited"
	auditErrQuotaExceeded  AuditErrorCode = "quota_exceeded"
	auditErrUnknownFeature AuditErrorCode = "unknown_feature"
	auditErrUnavailable    AuditErrorCode = "backend_unavailable"
	auditErrInternal       AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	feature Feature,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		DeviceID:  DeviceFromContext(ctx),
		IP:        ClientIPFromContext(ctx),
		Feature:   string(feature),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, errInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrGateLocked):
		return auditErrLocked
	case errors.Is(err, ErrVerifyRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrQuotaExceeded):
		return auditErrQuotaExceeded
	case errors.Is(err, ErrUnknownFeature):
		return auditErrUnknownFeature
	case errors.Is(err, ErrThrottleUnavailable):
		return auditErrUnavailable
	}
	return auditErrInternal
}

// errInvalidCode labels wrong-code audit events; it is never returned.
var errInvalidCode = errors.New("invalid code")
