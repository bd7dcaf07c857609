package library

import (
	"slices"
	"sync"
	"time"
)

// statsCapacity bounds memory when the content directory is large.
const statsCapacity = 1024

type timing struct {
	at time.Time
	d  time.Duration
}

// ExtractSnapshot aggregates recent extraction latencies.
type ExtractSnapshot struct {
	Documents int     `json:"documents"`
	MinMs     float64 `json:"min_ms"`
	MaxMs     float64 `json:"max_ms"`
	MeanMs    float64 `json:"mean_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
}

// ExtractStats keeps extraction timings younger than window, oldest first.
type ExtractStats struct {
	mu      sync.Mutex
	timings []timing
	window  time.Duration
	now     func() time.Time
}

func NewExtractStats(window time.Duration) *ExtractStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ExtractStats{
		timings: make([]timing, 0, 64),
		window:  window,
		now:     time.Now,
	}
}

// Observe records one extraction. Negative durations count as zero.
func (s *ExtractStats) Observe(d time.Duration) {
	d = max(d, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expire(now)
	if len(s.timings) == statsCapacity {
		s.timings = slices.Delete(s.timings, 0, 1)
	}
	s.timings = append(s.timings, timing{at: now, d: d})
}

func (s *ExtractStats) Snapshot() ExtractSnapshot {
	s.mu.Lock()
	s.expire(s.now())
	ms := make([]float64, len(s.timings))
	for i, t := range s.timings {
		ms[i] = float64(t.d) / float64(time.Millisecond)
	}
	s.mu.Unlock()

	if len(ms) == 0 {
		return ExtractSnapshot{}
	}
	slices.Sort(ms)

	var total float64
	for _, v := range ms {
		total += v
	}
	return ExtractSnapshot{
		Documents: len(ms),
		MinMs:     ms[0],
		MaxMs:     ms[len(ms)-1],
		MeanMs:    total / float64(len(ms)),
		P50Ms:     quantile(ms, 0.50),
		P95Ms:     quantile(ms, 0.95),
		P99Ms:     quantile(ms, 0.99),
	}
}

// expire drops timings outside the window. Timings are appended in order, so
// the expired ones form a prefix.
func (s *ExtractStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.timings) && s.timings[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.timings = slices.Delete(s.timings, 0, i)
	}
}

// quantile linearly interpolates between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}
