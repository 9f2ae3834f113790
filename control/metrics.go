// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime metrics: plain values keyed by name, plus latency histograms.
// Pool counters are published from concurrency.Stats snapshots.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/momentics/forkjoin/core/concurrency"
)

// Histogram bounds in microseconds: 1µs to 1 minute, 3 significant figures.
const (
	histMin     = 1
	histMax     = int64(time.Minute / time.Microsecond)
	histSigFigs = 3
)

// MetricsRegistry holds metric values and duration histograms.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	hists   map[string]*hdrhistogram.Histogram
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
		hists:   make(map[string]*hdrhistogram.Histogram),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Observe records a duration under key. Values outside the histogram range
// are clamped.
func (mr *MetricsRegistry) Observe(key string, d time.Duration) {
	us := d.Microseconds()
	if us < histMin {
		us = histMin
	}
	if us > histMax {
		us = histMax
	}
	mr.mu.Lock()
	h, ok := mr.hists[key]
	if !ok {
		h = hdrhistogram.New(histMin, histMax, histSigFigs)
		mr.hists[key] = h
	}
	_ = h.RecordValue(us)
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Latency summarizes one histogram.
type Latency struct {
	Count int64
	Min   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P99   time.Duration
	Max   time.Duration
}

func (l Latency) String() string {
	return fmt.Sprintf("n=%d min=%s mean=%s p50=%s p99=%s max=%s",
		l.Count, l.Min, l.Mean, l.P50, l.P99, l.Max)
}

// Latency returns the summary of the histogram under key.
func (mr *MetricsRegistry) Latency(key string) (Latency, bool) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	h, ok := mr.hists[key]
	if !ok {
		return Latency{}, false
	}
	return summarize(h), true
}

func summarize(h *hdrhistogram.Histogram) Latency {
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return Latency{
		Count: h.TotalCount(),
		Min:   us(h.Min()),
		Mean:  time.Duration(h.Mean() * float64(time.Microsecond)),
		P50:   us(h.ValueAtQuantile(50)),
		P99:   us(h.ValueAtQuantile(99)),
		Max:   us(h.Max()),
	}
}

// PublishPool stores a pool snapshot under "pool.<name>.*".
func (mr *MetricsRegistry) PublishPool(st concurrency.Stats) {
	prefix := "pool." + st.Name + "."
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.metrics[prefix+"state"] = st.State.String()
	mr.metrics[prefix+"parallelism"] = st.Parallelism
	mr.metrics[prefix+"submissions"] = st.Submissions
	mr.metrics[prefix+"failures"] = st.Failures
	mr.metrics[prefix+"leaves"] = st.Leaves
	mr.metrics[prefix+"caller_leaves"] = st.CallerLeaves
	mr.metrics[prefix+"helped"] = st.Helped
	mr.metrics[prefix+"steals"] = st.Steals
	mr.metrics[prefix+"uncaught"] = st.Uncaught
	mr.metrics[prefix+"idle"] = st.Idle
	for _, w := range st.Workers {
		wp := fmt.Sprintf("%sworker.%d.", prefix, w.Index)
		mr.metrics[wp+"state"] = w.State.String()
		mr.metrics[wp+"leaves"] = w.Leaves
		mr.metrics[wp+"steals"] = w.Steals
		mr.metrics[wp+"parks"] = w.Parks
	}
	mr.updated = time.Now()
}

// GetSnapshot returns the latest metrics. Histograms appear as Latency values.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics)+len(mr.hists))
	for k, v := range mr.metrics {
		out[k] = v
	}
	for k, h := range mr.hists {
		out[k] = summarize(h)
	}
	return out
}

// Updated returns the time of the last change.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
