package gatekit

import "sync/atomic"

// MetricID identifies one gateway counter.
type MetricID uint16

const (
	// MetricAuthSuccess counts tokens that verified cleanly.
	MetricAuthSuccess MetricID = iota
	// MetricAuthExpired counts tokens rejected for expiry.
	MetricAuthExpired
	// MetricAuthInvalid counts tokens rejected as forged or malformed.
	MetricAuthInvalid
	// MetricSessionIssued counts session cookies set.
	MetricSessionIssued
	// MetricSessionCleared counts session cookies cleared.
	MetricSessionCleared
	// MetricPasswordMismatch counts failed credential verifications.
	MetricPasswordMismatch
	// MetricThrottleAllowed counts rate-limit checks that admitted requests.
	MetricThrottleAllowed
	// MetricThrottleBlocked counts rate-limit checks that denied requests.
	MetricThrottleBlocked
	// MetricThrottleStoreFailure counts rate-limit checks resolved by FailMode.
	MetricThrottleStoreFailure
	// MetricCSRFIssued counts CSRF secrets issued.
	MetricCSRFIssued
	// MetricCSRFRejected counts mutating requests failing CSRF validation.
	MetricCSRFRejected
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// MetricsConfig controls counter collection.
type MetricsConfig struct {
	Enabled bool
}

// Metrics holds the gateway's counters. All methods are safe for concurrent
// use and free of allocation on the increment path.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a [Metrics] collector.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being collected.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to a counter. A nil or disabled receiver is a no-op.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
