// Package stats summarizes interpreter run times across a test run.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// histogram range in microseconds: 1us to 60s
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3

	// SlowestCount is how many of the slowest tests a Summary keeps
	SlowestCount = 5
)

// Timing is the run time of one test
type Timing struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Recorder collects per-test run times. It is safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	timings   []Timing
	timeouts  int
	total     time.Duration
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs),
	}
}

// Record records the run time of a test that ran to completion
func (r *Recorder) Record(name string, d time.Duration) {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.histogram.RecordValue(us)
	r.timings = append(r.timings, Timing{Name: name, Duration: d})
	r.total += d
}

// RecordTimeout counts a test that was killed at its timeout. Timeouts are
// kept out of the histogram so they do not skew the percentiles.
func (r *Recorder) RecordTimeout(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts++
}

// Summary holds run-time percentiles for a test run
type Summary struct {
	Count    int           `json:"count"`
	Timeouts int           `json:"timeouts"`
	Total    time.Duration `json:"total"`
	Min      time.Duration `json:"min"`
	Max      time.Duration `json:"max"`
	Mean     time.Duration `json:"mean"`
	P50      time.Duration `json:"p50"`
	P95      time.Duration `json:"p95"`
	P99      time.Duration `json:"p99"`
	Slowest  []Timing      `json:"slowest,omitempty"`
}

// Summary computes the current summary
func (r *Recorder) Summary() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Summary{
		Count:    len(r.timings),
		Timeouts: r.timeouts,
		Total:    r.total,
	}
	if s.Count == 0 {
		return s
	}

	s.Min = usToDuration(r.histogram.Min())
	s.Max = usToDuration(r.histogram.Max())
	s.Mean = time.Duration(r.histogram.Mean() * float64(time.Microsecond))
	s.P50 = usToDuration(r.histogram.ValueAtQuantile(50))
	s.P95 = usToDuration(r.histogram.ValueAtQuantile(95))
	s.P99 = usToDuration(r.histogram.ValueAtQuantile(99))

	sorted := make([]Timing, len(r.timings))
	copy(sorted, r.timings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	if len(sorted) > SlowestCount {
		sorted = sorted[:SlowestCount]
	}
	s.Slowest = sorted

	return s
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
