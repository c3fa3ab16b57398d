// Package metrics records request latencies and outcomes for the
// outbound API clients.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultWindow is the number of samples a Histogram keeps.
const DefaultWindow = 1024

// Histogram keeps the most recent duration samples in a ring and reports
// percentiles over them, in milliseconds.
type Histogram struct {
	mu      sync.RWMutex
	samples []float64
	next    int
	full    bool
}

// NewHistogram creates a histogram over the last window samples.
func NewHistogram(window int) *Histogram {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Histogram{samples: make([]float64, window)}
}

// Record adds a sample, overwriting the oldest once the window is full.
func (h *Histogram) Record(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples[h.next] = float64(d.Microseconds()) / 1000.0
	h.next++
	if h.next == len(h.samples) {
		h.next = 0
		h.full = true
	}
}

// values returns a sorted copy of the recorded samples. Callers hold mu.
func (h *Histogram) values() []float64 {
	n := h.next
	if h.full {
		n = len(h.samples)
	}
	sorted := make([]float64, n)
	copy(sorted, h.samples[:n])
	sort.Float64s(sorted)
	return sorted
}

// Summary computes mean, min, max and p50/p95/p99.
func (h *Histogram) Summary() LatencyStats {
	h.mu.RLock()
	sorted := h.values()
	h.mu.RUnlock()

	if len(sorted) == 0 {
		return LatencyStats{}
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return LatencyStats{
		Mean:  sum / float64(len(sorted)),
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
		P99:   percentile(sorted, 99),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	fraction := index - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}
