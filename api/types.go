// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

import (
	"context"
	"fmt"
)

// Range is a closed integer interval [Lo, Hi].
type Range struct {
	Lo int64
	Hi int64
}

// Len returns the number of integers in the range, or 0 when Hi < Lo.
// Ranges longer than math.MaxInt64 report false.
func (r Range) Len() (int64, bool) {
	if r.Hi < r.Lo {
		return 0, true
	}
	n := uint64(r.Hi) - uint64(r.Lo) + 1
	if n == 0 || n > 1<<63-1 {
		return 0, false
	}
	return int64(n), true
}

// Split cuts the range at its midpoint into [Lo, mid] and [mid+1, Hi].
func (r Range) Split() (Range, Range) {
	mid := r.Lo + int64((uint64(r.Hi)-uint64(r.Lo))/2)
	return Range{Lo: r.Lo, Hi: mid}, Range{Lo: mid + 1, Hi: r.Hi}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Lo, r.Hi)
}

// LeafFunc computes the partial result of a leaf range. The context carries
// the Runner executing the leaf.
type LeafFunc func(ctx context.Context, r Range) (int64, error)

// Computation is a range reduction submitted to a pool. Partial results are
// combined with overflow-checked addition.
type Computation struct {
	Range     Range
	Threshold int64    // leaf size; 0 selects the pool default
	Leaf      LeafFunc // nil selects the arithmetic-series sum
}

// Runner identifies whoever executes a task: a pool worker or a calling
// goroutine helping its own submission.
type Runner interface {
	// PoolID is the id of the pool the runner executes work for.
	PoolID() string
	// IsWorker reports whether the runner is a worker owned by PoolID.
	IsWorker() bool
	// Index is the worker index, -1 for callers.
	Index() int
	// ThreadID is the OS thread id observed for the runner, -1 if unknown.
	ThreadID() int
}

// PoolState enumerates pool lifecycle states.
type PoolState int32

const (
	PoolActive PoolState = iota
	PoolShuttingDown
	PoolTerminated
)

func (s PoolState) String() string {
	switch s {
	case PoolActive:
		return "active"
	case PoolShuttingDown:
		return "shutting_down"
	case PoolTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// WorkerState enumerates worker scheduling states.
type WorkerState int32

const (
	WorkerRunning WorkerState = iota
	WorkerStealing
	WorkerParked
)

func (s WorkerState) String() string {
	switch s {
	case WorkerRunning:
		return "running"
	case WorkerStealing:
		return "stealing"
	case WorkerParked:
		return "parked"
	default:
		return "unknown"
	}
}
