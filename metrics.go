package twofa

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricRegisterSuccess counts successful registrations.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected as duplicates.
	MetricRegisterDuplicate
	// MetricLoginSuccess counts logins that returned OutcomeSuccess.
	MetricLoginSuccess
	// MetricLoginFailure counts logins that returned OutcomeInvalidCredentials.
	MetricLoginFailure
	// MetricLoginBlocked counts logins refused by the lockout policy.
	MetricLoginBlocked
	// MetricTOTPSuccess counts second factors satisfied by a TOTP code.
	MetricTOTPSuccess
	// MetricTOTPFailure counts TOTP verifications that did not match.
	MetricTOTPFailure
	// MetricBackupCodeUsed counts second factors satisfied by consuming a
	// backup code.
	MetricBackupCodeUsed
	// MetricBackupCodeFailed counts backup code attempts that did not consume
	// a code.
	MetricBackupCodeFailed
	// MetricBackupCodesRegenerated counts successful backup code set
	// replacements.
	MetricBackupCodesRegenerated
	metricIDCount
)

const cacheLineSize = 64

// paddedCounter keeps each counter on its own cache line so concurrent
// logins incrementing different metrics do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters. A nil or disabled Metrics is
// safe to use and does nothing.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics creates the counter set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies all counters. Counters are read individually, so a
// snapshot taken under concurrent load is per-counter accurate but not a
// global atomic cut.
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
