// File: core/concurrency/injector.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared FIFO for work entering the pool from outside its workers: submission
// roots and the forks of helping callers.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

type injector struct {
	mu sync.Mutex
	q  *queue.Queue
	n  atomic.Int64 // lock-free emptiness hint
}

func newInjector() *injector {
	return &injector{q: queue.New()}
}

func (in *injector) push(t *Task) {
	in.mu.Lock()
	in.q.Add(t)
	in.n.Add(1)
	in.mu.Unlock()
}

// poll removes the oldest task, nil when empty.
func (in *injector) poll() *Task {
	return in.pollIf(nil)
}

// pollIf removes the oldest task if accept approves it.
func (in *injector) pollIf(accept func(*Task) bool) *Task {
	if in.n.Load() == 0 {
		return nil
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.q.Length() == 0 {
		return nil
	}
	t := in.q.Peek().(*Task)
	if accept != nil && !accept(t) {
		return nil
	}
	in.q.Remove()
	in.n.Add(-1)
	return t
}

func (in *injector) len() int {
	return int(in.n.Load())
}
