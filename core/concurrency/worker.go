// File: core/concurrency/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker goroutines, each locked to its own OS thread for its whole life.

package concurrency

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/momentics/forkjoin/affinity"
	"github.com/momentics/forkjoin/api"
)

const initialDequeCapacity = 64

// WorkerFactory creates the worker for slot index of pool. The returned worker
// must come from NewWorker with the same pool.
type WorkerFactory func(pool *Pool, index int) *Worker

// DefaultWorkerFactory creates plain workers.
func DefaultWorkerFactory(pool *Pool, index int) *Worker {
	return NewWorker(pool, index)
}

// PinnedWorkerFactory creates workers that bind their OS thread to a CPU,
// spreading indexes over the CPUs the process may run on. A pinned thread is
// never handed back to the runtime.
func PinnedWorkerFactory(pool *Pool, index int) *Worker {
	w := NewWorker(pool, index)
	w.OnStart = func(w *Worker) error {
		return affinity.SetAffinity(affinity.CPUFor(w.Index()))
	}
	return w
}

// Worker executes tasks of exactly one pool.
type Worker struct {
	pool  *Pool
	index int
	name  string
	deque *Deque[Task]

	// OnStart runs on the worker's locked OS thread before the scheduling
	// loop starts. A returned error goes to the pool's uncaught handler.
	OnStart func(w *Worker) error

	state    atomic.Int32
	threadID atomic.Int64

	executed atomic.Int64
	leaves   atomic.Int64
	steals   atomic.Int64
	parks    atomic.Int64
}

// NewWorker creates an unstarted worker owned by pool.
func NewWorker(pool *Pool, index int) *Worker {
	w := &Worker{
		pool:  pool,
		index: index,
		name:  fmt.Sprintf("%s-worker-%d", pool.Name(), index),
		deque: NewDeque[Task](initialDequeCapacity),
	}
	w.threadID.Store(-1)
	w.state.Store(int32(api.WorkerParked))
	return w
}

// Pool returns the owning pool.
func (w *Worker) Pool() *Pool { return w.pool }

// PoolID implements api.Runner.
func (w *Worker) PoolID() string { return w.pool.ID() }

// IsWorker implements api.Runner.
func (w *Worker) IsWorker() bool { return true }

// Index implements api.Runner.
func (w *Worker) Index() int { return w.index }

// ThreadID implements api.Runner.
func (w *Worker) ThreadID() int { return int(w.threadID.Load()) }

// Name returns the worker name.
func (w *Worker) Name() string { return w.name }

// SetName overrides the generated name; factories call it before start.
func (w *Worker) SetName(name string) { w.name = name }

// State returns the scheduling state.
func (w *Worker) State() api.WorkerState { return api.WorkerState(w.state.Load()) }

// Queued returns the number of tasks in the local deque.
func (w *Worker) Queued() int { return w.deque.Len() }

func (w *Worker) String() string { return w.name }

func (w *Worker) setState(s api.WorkerState) { w.state.Store(int32(s)) }

// run is the goroutine body.
func (w *Worker) run() {
	defer w.pool.wg.Done()
	runtime.LockOSThread()
	// A thread OnStart may have reconfigured stays locked and exits with the
	// goroutine instead of going back to the scheduler.
	if w.OnStart == nil {
		defer runtime.UnlockOSThread()
	}
	w.threadID.Store(int64(affinity.ThreadID()))
	w.pool.log.Debug("worker started",
		zap.String("worker", w.name),
		zap.Int("thread", w.ThreadID()))

	if w.OnStart != nil {
		if err := w.OnStart(w); err != nil {
			w.pool.uncaught(w, err)
		}
	}
	for !w.runLoop() {
	}
	w.pool.log.Debug("worker stopped", zap.String("worker", w.name))
}

// runLoop returns true on orderly exit and false after a failure escaped the
// loop; the caller then restarts it.
func (w *Worker) runLoop() (exited bool) {
	defer func() {
		if r := recover(); r != nil {
			w.pool.uncaught(w, fmt.Errorf("worker %s: %w", w.name, panicError(r)))
			exited = false
		}
	}()
	w.loop()
	return true
}

func (w *Worker) loop() {
	p := w.pool
	for {
		if t := w.take(); t != nil {
			w.exec(t)
			continue
		}
		ch := p.enterIdle()
		if t := w.take(); t != nil {
			p.exitIdle()
			w.exec(t)
			continue
		}
		w.setState(api.WorkerParked)
		w.parks.Add(1)
		select {
		case <-ch:
			p.exitIdle()
		case <-p.quit:
			p.exitIdle()
			if t := w.take(); t != nil {
				w.exec(t)
				continue
			}
			return
		}
	}
}

// take finds the next task: local deque, then the injector, then siblings.
func (w *Worker) take() *Task {
	var t *Task
	if w.pool.asyncMode {
		t = w.deque.Steal()
	} else {
		t = w.deque.Pop()
	}
	if t != nil {
		return t
	}
	if t = w.pool.injector.poll(); t != nil {
		return t
	}
	w.setState(api.WorkerStealing)
	return w.steal()
}

// steal visits every sibling once, starting at a random victim.
func (w *Worker) steal() *Task {
	ws := w.pool.workers
	n := len(ws)
	if n <= 1 {
		return nil
	}
	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		v := ws[(start+i)%n]
		if v == w {
			continue
		}
		if t := v.deque.Steal(); t != nil {
			w.steals.Add(1)
			return t
		}
	}
	return nil
}

func (w *Worker) exec(t *Task) {
	w.setState(api.WorkerRunning)
	w.executed.Add(1)
	t.submission().exec(w, t)
}

// fork implements runner: the task becomes stealable by siblings.
func (w *Worker) fork(t *Task) {
	w.deque.Push(t)
	w.pool.signal()
}

// next implements runner.
func (w *Worker) next() *Task { return w.take() }

// home implements runner.
func (w *Worker) home() *Pool { return w.pool }

// runTask implements runner.
func (w *Worker) runTask(t *Task) { w.exec(t) }

func (w *Worker) countLeaf() { w.leaves.Add(1) }

func (w *Worker) stats() WorkerStats {
	return WorkerStats{
		Index:    w.index,
		Name:     w.name,
		State:    w.State(),
		ThreadID: w.ThreadID(),
		Queued:   w.Queued(),
		Executed: w.executed.Load(),
		Leaves:   w.leaves.Load(),
		Steals:   w.steals.Load(),
		Parks:    w.parks.Load(),
	}
}
