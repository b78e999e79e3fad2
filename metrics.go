package goGate

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one gate counter.
type MetricID uint16

const (
	// MetricVerifySuccess counts accepted codes.
	MetricVerifySuccess MetricID = iota
	// MetricVerifyFailure counts rejected codes.
	MetricVerifyFailure
	// MetricAttemptRecorded counts failed attempts written to the store.
	MetricAttemptRecorded
	// MetricLockoutProtected counts lockouts opened by the protected feature.
	MetricLockoutProtected
	// MetricLockoutGeneral counts lockouts opened by the general feature.
	MetricLockoutGeneral
	// MetricLockoutExpired counts lockouts cleared by a state read.
	MetricLockoutExpired
	// MetricLockedAttemptRejected counts failures recorded during a lockout.
	MetricLockedAttemptRejected
	// MetricOverrideDenied counts wrong codes entered during a lockout.
	MetricOverrideDenied
	// MetricUnlock counts unlock transitions.
	MetricUnlock
	// MetricUsageIncrement counts free-quota uses.
	MetricUsageIncrement
	// MetricQuotaExceeded counts quota checks that denied a use.
	MetricQuotaExceeded
	// MetricRateLimitHit counts throttled submissions.
	MetricRateLimitHit
	// MetricForget counts administrative resets.
	MetricForget
	// MetricStateLatency records state read latency.
	MetricStateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free gate counters and one latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a metrics set. A disabled set ignores every write.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricStateLatency carries
// a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricStateLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricStateLatency].buckets[i])
		}
		s.Histograms[MetricStateLatency] = buckets
	}
	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
