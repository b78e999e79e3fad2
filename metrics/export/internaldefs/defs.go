package internaldefs

import (
	goGate "github.com/MrEthical07/goGate"
)

// CounterDef maps a gate counter to its exported name. Defs that share a
// Name form one metric family split by the feature label.
type CounterDef struct {
	ID      goGate.MetricID
	Name    string
	Help    string
	Feature goGate.Feature
}

// HistogramDef maps a gate histogram to its exported name.
type HistogramDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// FeatureLabel is the label carrying the triggering feature.
const FeatureLabel = "feature"

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "gogate_audit_dropped_total"

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goGate.MetricVerifySuccess, Name: "gogate_verify_success_total", Help: "Accepted access codes."},
	{ID: goGate.MetricVerifyFailure, Name: "gogate_verify_failure_total", Help: "Rejected access codes."},
	{ID: goGate.MetricAttemptRecorded, Name: "gogate_attempt_recorded_total", Help: "Failed attempts written to the store."},
	{ID: goGate.MetricLockoutProtected, Name: "gogate_lockouts_total", Help: "Lockouts opened, by triggering feature.", Feature: goGate.FeatureProtected},
	{ID: goGate.MetricLockoutGeneral, Name: "gogate_lockouts_total", Help: "Lockouts opened, by triggering feature.", Feature: goGate.FeatureGeneral},
	{ID: goGate.MetricLockoutExpired, Name: "gogate_lockout_expired_total", Help: "Lockouts cleared on read after expiry."},
	{ID: goGate.MetricLockedAttemptRejected, Name: "gogate_locked_attempt_rejected_total", Help: "Failures reported during an active lockout."},
	{ID: goGate.MetricOverrideDenied, Name: "gogate_override_denied_total", Help: "Wrong codes entered during a lockout."},
	{ID: goGate.MetricUnlock, Name: "gogate_unlock_total", Help: "Devices unlocked."},
	{ID: goGate.MetricUsageIncrement, Name: "gogate_usage_increment_total", Help: "Free-quota uses counted."},
	{ID: goGate.MetricQuotaExceeded, Name: "gogate_quota_exceeded_total", Help: "Uses denied by the free quota."},
	{ID: goGate.MetricRateLimitHit, Name: "gogate_rate_limit_hit_total", Help: "Code submissions denied by the per-IP throttle."},
	{ID: goGate.MetricForget, Name: "gogate_forget_total", Help: "Administrative device resets."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goGate.MetricStateLatency, Name: "gogate_state_latency_seconds", Help: "Gate state read latency."},
}

// HistogramBounds are the Prometheus le labels, matching the engine buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names the per-bucket OTel gauges.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling or truncating.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
