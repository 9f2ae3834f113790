// File: verify/recorder.go
// Package verify checks where the leaves of a submission were executed.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Recorder wraps a leaf function and keeps, for every leaf execution, the
// runner that executed it. Queries then answer whether a submission stayed
// inside the pool it was given to.

package verify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/momentics/forkjoin/api"
	"github.com/momentics/forkjoin/core/concurrency"
)

// Record is one leaf execution.
type Record struct {
	Range    api.Range
	Runner   api.Runner // nil when the leaf ran without a runner in its context
	ThreadID int
}

// Worker reports whether the leaf ran on a pool worker.
func (r Record) Worker() bool { return r.Runner != nil && r.Runner.IsWorker() }

// Recorder collects leaf executions. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Wrap returns a leaf that records its runner and then calls leaf. A nil
// leaf computes the arithmetic-series sum.
func (rec *Recorder) Wrap(leaf api.LeafFunc) api.LeafFunc {
	if leaf == nil {
		leaf = func(_ context.Context, r api.Range) (int64, error) {
			return concurrency.SumRange(r)
		}
	}
	return func(ctx context.Context, r api.Range) (int64, error) {
		rec.Record(ctx, r)
		return leaf(ctx, r)
	}
}

// Record stores the runner found in ctx for range r.
func (rec *Recorder) Record(ctx context.Context, r api.Range) {
	entry := Record{Range: r, ThreadID: -1}
	if rn, ok := concurrency.RunnerFrom(ctx); ok {
		entry.Runner = rn
		entry.ThreadID = rn.ThreadID()
	}
	rec.mu.Lock()
	rec.records = append(rec.records, entry)
	rec.mu.Unlock()
}

// Records returns a copy of everything recorded so far.
func (rec *Recorder) Records() []Record {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]Record, len(rec.records))
	copy(out, rec.records)
	return out
}

// Len returns the number of recorded leaf executions.
func (rec *Recorder) Len() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.records)
}

// Reset drops all records.
func (rec *Recorder) Reset() {
	rec.mu.Lock()
	rec.records = rec.records[:0]
	rec.mu.Unlock()
}

// Contained reports whether every leaf ran on a worker of p or on a caller
// helping its own submission to p.
func (rec *Recorder) Contained(p *concurrency.Pool) bool {
	return rec.all(func(r Record) bool {
		if r.Runner == nil {
			return false
		}
		if r.Runner.IsWorker() {
			return p.Owns(r.Runner)
		}
		return r.Runner.PoolID() == p.ID()
	})
}

// Within reports whether every leaf ran on a worker of p or on origin. A nil
// origin stands for the goroutine that started the submission from outside
// any pool, which shows up as a non-worker runner.
func (rec *Recorder) Within(p *concurrency.Pool, origin api.Runner) bool {
	return rec.all(func(r Record) bool {
		switch {
		case r.Runner == nil:
			return false
		case p.Owns(r.Runner):
			return true
		case origin == nil:
			return !r.Runner.IsWorker()
		}
		return r.Runner == origin
	})
}

// ReachedWorkers reports whether at least one leaf ran on a worker of p.
func (rec *Recorder) ReachedWorkers(p *concurrency.Pool) bool {
	return rec.OnWorkersOf(p) > 0
}

// OnWorkersOf counts the leaves that ran on workers of p.
func (rec *Recorder) OnWorkersOf(p *concurrency.Pool) int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	n := 0
	for _, r := range rec.records {
		if r.Runner != nil && p.Owns(r.Runner) {
			n++
		}
	}
	return n
}

func (rec *Recorder) all(ok func(Record) bool) bool {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, r := range rec.records {
		if !ok(r) {
			return false
		}
	}
	return true
}

// Report summarizes a recorder.
type Report struct {
	Leaves   int
	Callers  int            // leaves run by helping callers
	Unknown  int            // leaves run without a runner
	ByPool   map[string]int // worker leaves per pool id
	ByWorker map[string]int // worker leaves per "<pool id>/<index>"
}

// Report returns a summary of the records.
func (rec *Recorder) Report() Report {
	rep := Report{ByPool: make(map[string]int), ByWorker: make(map[string]int)}
	for _, r := range rec.Records() {
		rep.Leaves++
		switch {
		case r.Runner == nil:
			rep.Unknown++
		case r.Runner.IsWorker():
			rep.ByPool[r.Runner.PoolID()]++
			rep.ByWorker[fmt.Sprintf("%s/%d", r.Runner.PoolID(), r.Runner.Index())]++
		default:
			rep.Callers++
		}
	}
	return rep
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "leaves=%d callers=%d unknown=%d", r.Leaves, r.Callers, r.Unknown)
	ids := make([]string, 0, len(r.ByPool))
	for id := range r.ByPool {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, " pool[%s]=%d", id, r.ByPool[id])
	}
	return b.String()
}
