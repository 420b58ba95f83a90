// Package metrics collects aggregate step latency and outcome counters.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Window sizes for the latency samples. Old samples are discarded once the
// window is full.
const latencyWindow = 100

// Collector accumulates step latencies and outcome counters. Safe for
// concurrent use.
type Collector struct {
	mu sync.Mutex

	stepTimes      []float64 // milliseconds, most recent latencyWindow samples
	successCount   int64
	errorCount     int64
	rejectionCount int64
	sessionCount   int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{stepTimes: make([]float64, 0, latencyWindow)}
}

// ObserveStep records a completed step's latency.
func (c *Collector) ObserveStep(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stepTimes) == latencyWindow {
		c.stepTimes = append(c.stepTimes[1:], ms)
		return
	}
	c.stepTimes = append(c.stepTimes, ms)
}

// IncSuccess counts a completed step.
func (c *Collector) IncSuccess() {
	c.mu.Lock()
	c.successCount++
	c.mu.Unlock()
}

// IncError counts a failed step.
func (c *Collector) IncError() {
	c.mu.Lock()
	c.errorCount++
	c.mu.Unlock()
}

// IncRejection counts a concurrency rejection. Rejections are tallied
// separately and do not count toward the error rate.
func (c *Collector) IncRejection() {
	c.mu.Lock()
	c.rejectionCount++
	c.mu.Unlock()
}

// IncSession counts a created session.
func (c *Collector) IncSession() {
	c.mu.Lock()
	c.sessionCount++
	c.mu.Unlock()
}

// LatencySummary aggregates the recent step latency samples.
type LatencySummary struct {
	AvgMS float64 `json:"avg_ms"`
	MinMS float64 `json:"min_ms"`
	MaxMS float64 `json:"max_ms"`
	P95MS float64 `json:"p95_ms"`
	P99MS float64 `json:"p99_ms"`
	Count int     `json:"count"`
}

// Snapshot is a point-in-time view of all collected metrics.
type Snapshot struct {
	StepLatency LatencySummary `json:"step_latency"`
	Requests    struct {
		Total     int64   `json:"total"`
		Success   int64   `json:"success"`
		Error     int64   `json:"error"`
		Rejected  int64   `json:"rejected"`
		ErrorRate float64 `json:"error_rate"`
	} `json:"requests"`
	Sessions struct {
		TotalCreated int64 `json:"total_created"`
	} `json:"sessions"`
}

// Snapshot returns the current metrics summary.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snap Snapshot
	snap.StepLatency = summarize(c.stepTimes)
	total := c.successCount + c.errorCount
	snap.Requests.Total = total
	snap.Requests.Success = c.successCount
	snap.Requests.Error = c.errorCount
	snap.Requests.Rejected = c.rejectionCount
	if total > 0 {
		snap.Requests.ErrorRate = float64(c.errorCount) / float64(total)
	}
	snap.Sessions.TotalCreated = c.sessionCount
	return snap
}

func summarize(samples []float64) LatencySummary {
	if len(samples) == 0 {
		return LatencySummary{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return LatencySummary{
		AvgMS: sum / float64(len(sorted)),
		MinMS: sorted[0],
		MaxMS: sorted[len(sorted)-1],
		P95MS: sorted[int(float64(len(sorted))*0.95)],
		P99MS: sorted[int(float64(len(sorted))*0.99)],
		Count: len(sorted),
	}
}
