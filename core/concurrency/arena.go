// File: core/concurrency/arena.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-submission task arena. The split tree is deterministic, so its size is
// known up front; handles are handed out with a single atomic increment and
// chunks are allocated on first touch, so only the chunk index grows with the
// tree size.

package concurrency

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/momentics/forkjoin/api"
)

const (
	chunkBits = 10
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1

	// MaxTasks bounds the number of tasks in one submission's split tree to
	// the handle range.
	MaxTasks = math.MaxInt32
)

// Arena stores every task of one submission.
type Arena struct {
	owner     *submission
	threshold int64
	limit     int32
	next      atomic.Int32
	chunks    []atomic.Pointer[[]Task]
}

// CountTasks returns the number of tasks the midpoint split of a range of the
// given length produces with the given threshold, saturating at
// math.MaxInt64. Lengths repeat at most twice per tree level, so the walk is
// memoized.
func CountTasks(length, threshold int64) int64 {
	memo := make(map[int64]int64)
	var count func(n int64) int64
	count = func(n int64) int64 {
		if n <= threshold {
			return 1
		}
		if c, ok := memo[n]; ok {
			return c
		}
		c := count(n-n/2) + count(n/2)
		if c < 0 || c == math.MaxInt64 {
			c = math.MaxInt64
		} else {
			c++
		}
		memo[n] = c
		return c
	}
	return count(length)
}

func newArena(owner *submission, length, threshold int64) (*Arena, error) {
	n := CountTasks(length, threshold)
	if n > MaxTasks {
		return nil, configError(ErrTooManyTasks, "tasks", n, "limit", MaxTasks, "threshold", threshold)
	}
	return &Arena{
		owner:     owner,
		threshold: threshold,
		limit:     int32(n),
		chunks:    make([]atomic.Pointer[[]Task], (n+chunkMask)>>chunkBits),
	}, nil
}

func (a *Arena) chunk(i int) []Task {
	if c := a.chunks[i].Load(); c != nil {
		return *c
	}
	size := int(a.limit) - i<<chunkBits
	if size > chunkSize {
		size = chunkSize
	}
	fresh := make([]Task, size)
	if a.chunks[i].CompareAndSwap(nil, &fresh) {
		return fresh
	}
	return *a.chunks[i].Load()
}

// alloc creates a task for r, choosing its kind by the threshold.
func (a *Arena) alloc(r api.Range) *Task {
	h := a.next.Add(1) - 1
	if h >= a.limit {
		panic(fmt.Sprintf("arena exhausted: %d tasks", a.limit))
	}
	t := &a.chunk(int(h >> chunkBits))[h&chunkMask]
	t.arena = a
	t.handle = Handle(h)
	t.rng = r
	t.left, t.right = NoHandle, NoHandle
	t.kind = KindInternal
	if n, _ := r.Len(); n <= a.threshold {
		t.kind = KindLeaf
	}
	return t
}

// At returns the task for h, or nil when h was never allocated.
func (a *Arena) At(h Handle) *Task {
	if h < 0 || int32(h) >= a.next.Load() || int32(h) >= a.limit {
		return nil
	}
	c := a.chunks[int(h)>>chunkBits].Load()
	if c == nil {
		return nil
	}
	return &(*c)[int(h)&chunkMask]
}

// Len returns the number of allocated tasks.
func (a *Arena) Len() int {
	n := a.next.Load()
	if n > a.limit {
		n = a.limit
	}
	return int(n)
}

// Cap returns the precomputed size of the split tree.
func (a *Arena) Cap() int { return int(a.limit) }

// Leaves walks the finished tree from the root, left before right, and
// returns the leaf ranges in split order.
func (a *Arena) Leaves() []api.Range {
	var out []api.Range
	var walk func(h Handle)
	walk = func(h Handle) {
		t := a.At(h)
		if t == nil {
			return
		}
		if t.kind == KindLeaf {
			out = append(out, t.rng)
			return
		}
		walk(t.left)
		walk(t.right)
	}
	walk(0)
	return out
}
