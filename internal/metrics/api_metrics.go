package metrics

import (
	"net/http"
	"sync/atomic"
	"time"
)

// APIMetrics counts requests made by one API client.
type APIMetrics struct {
	Latency *Histogram

	requests    atomic.Uint64
	errors      atomic.Uint64
	rateLimited atomic.Uint64
}

// NewAPIMetrics creates an empty collector.
func NewAPIMetrics() *APIMetrics {
	return &APIMetrics{Latency: NewHistogram(DefaultWindow)}
}

// LatencyStats summarizes a latency histogram, in milliseconds.
type LatencyStats struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// APIStats is a point-in-time view of an APIMetrics.
type APIStats struct {
	Requests    uint64       `json:"requests"`
	Errors      uint64       `json:"errors"`
	RateLimited uint64       `json:"rateLimited"`
	SuccessRate float64      `json:"successRate"` // percent
	Latency     LatencyStats `json:"latency"`
}

// Observe records one finished request. status is 0 when no response was
// received. A nil receiver ignores the call.
func (m *APIMetrics) Observe(status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.Add(1)
	m.Latency.Record(elapsed)

	if status == 0 || status >= 400 {
		m.errors.Add(1)
	}
	if status == http.StatusTooManyRequests {
		m.rateLimited.Add(1)
	}
}

// Stats returns the current counters and latency summary.
func (m *APIMetrics) Stats() APIStats {
	if m == nil {
		return APIStats{}
	}

	requests := m.requests.Load()
	errors := m.errors.Load()
	stats := APIStats{
		Requests:    requests,
		Errors:      errors,
		RateLimited: m.rateLimited.Load(),
		Latency:     m.Latency.Summary(),
	}
	if requests > 0 {
		stats.SuccessRate = float64(requests-errors) / float64(requests) * 100
	}
	return stats
}
