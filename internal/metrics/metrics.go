// Package metrics implements the daemon's counters and gauges (spec §4.7),
// safe for concurrent access from the watcher, applier, and query pool the
// way spec §5 requires ("Metrics counters may be accessed by any thread").
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the daemon's running counters. All fields are accessed
// through atomic operations or under mu; callers never reach into the
// struct directly.
type Metrics struct {
	updateCount uint64
	errorCount  uint64

	mu                sync.Mutex
	lastUpdate        time.Time
	avgUpdateDuration time.Duration
	memorySampleMB    uint64
	queueDepth        int64

	// emaAlpha weights the exponential moving average of update duration:
	// each new sample contributes 0.2 of the new average.
	emaAlpha float64
}

// New returns a zeroed Metrics ready for use.
func New() *Metrics {
	return &Metrics{emaAlpha: 0.2}
}

// RecordUpdate records one successful store-apply taking d, at the given
// observation time now.
func (m *Metrics) RecordUpdate(now time.Time, d time.Duration) {
	atomic.AddUint64(&m.updateCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUpdate = now
	if m.avgUpdateDuration == 0 {
		m.avgUpdateDuration = d
	} else {
		m.avgUpdateDuration = time.Duration(m.emaAlpha*float64(d) + (1-m.emaAlpha)*float64(m.avgUpdateDuration))
	}
}

// RecordError increments the error counter (spec §7 ExtractFailed policy:
// "metrics errors++").
func (m *Metrics) RecordError() {
	atomic.AddUint64(&m.errorCount, 1)
}

// SetMemorySampleMB records the latest process memory sample.
func (m *Metrics) SetMemorySampleMB(mb uint64) {
	atomic.StoreUint64(&m.memorySampleMB, mb)
}

// SetQueueDepth records the scheduler's current pending-event count.
func (m *Metrics) SetQueueDepth(n int64) {
	atomic.StoreInt64(&m.queueDepth, n)
}

// Snapshot is the point-in-time blob written to the metrics artifact on
// every snapshot (spec §4.3/§6).
type Snapshot struct {
	UpdateCount       uint64    `json:"update_count"`
	ErrorCount        uint64    `json:"error_count"`
	LastUpdate        time.Time `json:"last_update"`
	AvgUpdateDuration float64   `json:"avg_update_duration_ms"`
	MemorySampleMB    uint64    `json:"memory_sample_mb"`
	QueueDepth        int64     `json:"queue_depth"`
	ErrorRate         float64   `json:"error_rate"`
}

// Snapshot reports the current counters.
func (m *Metrics) Snapshot() Snapshot {
	updates := atomic.LoadUint64(&m.updateCount)
	errs := atomic.LoadUint64(&m.errorCount)
	var rate float64
	if updates > 0 {
		rate = float64(errs) / float64(updates)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		UpdateCount:       updates,
		ErrorCount:        errs,
		LastUpdate:        m.lastUpdate,
		AvgUpdateDuration: float64(m.avgUpdateDuration.Microseconds()) / 1000.0,
		MemorySampleMB:    atomic.LoadUint64(&m.memorySampleMB),
		QueueDepth:        atomic.LoadInt64(&m.queueDepth),
		ErrorRate:         rate,
	}
}

// HealthWarning describes a threshold breach (spec §4.7 Health).
type HealthWarning struct {
	Kind   string
	Detail string
}

// CheckHealth evaluates the current snapshot against the configured
// thresholds, returning zero or more warnings.
func (m *Metrics) CheckHealth(memoryWarnMB int, errorRateThreshold float64, queueDepthBound int64) []HealthWarning {
	snap := m.Snapshot()
	var warnings []HealthWarning
	if memoryWarnMB > 0 && snap.MemorySampleMB > uint64(memoryWarnMB) {
		warnings = append(warnings, HealthWarning{Kind: "memory", Detail: "memory sample exceeds configured threshold"})
	}
	if snap.UpdateCount >= 10 && snap.ErrorRate > errorRateThreshold {
		warnings = append(warnings, HealthWarning{Kind: "error_rate", Detail: "error rate exceeds configured threshold"})
	}
	if queueDepthBound > 0 && snap.QueueDepth > queueDepthBound {
		warnings = append(warnings, HealthWarning{Kind: "queue_depth", Detail: "event queue exceeds configured bound"})
	}
	return warnings
}
