// File: core/concurrency/pool.go
// Package concurrency implements a work-stealing fork/join pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Pool owns a fixed set of workers, each with a local deque, plus a shared
// injector for submissions arriving from outside. Range reductions are split
// at the midpoint until the leaf threshold and joined with checked addition.

package concurrency

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/forkjoin/api"
)

// maxParallelism keeps worker indexes well inside int32 handles and victim scans.
const maxParallelism = 1 << 12

var (
	errInvalidThreshold = errors.New("threshold must not be negative")
	errBadFactory       = errors.New("worker factory returned a worker not owned by the pool")
)

// UncaughtHandler receives failures of a worker's own loop, as opposed to task
// failures, which travel to the joining caller.
type UncaughtHandler func(w *Worker, err error)

// Config describes a pool. The zero value is usable.
type Config struct {
	Name            string          // defaults to "pool-<id prefix>"
	Parallelism     int             // worker count; 0 means runtime.GOMAXPROCS(0)
	WorkerFactory   WorkerFactory   // defaults to DefaultWorkerFactory
	UncaughtHandler UncaughtHandler // defaults to logging the failure
	AsyncMode       bool            // workers take their own tasks FIFO instead of LIFO
	Threshold       int64           // default leaf size; 0 derives it from parallelism
	PinWorkers      bool            // bind worker threads to CPUs when no factory is set
	Logger          *zap.Logger     // defaults to zap.NewNop()
}

// Pool is a fork/join pool with work-stealing workers.
type Pool struct {
	id          string
	name        string
	parallelism int
	asyncMode   bool
	threshold   int64
	common      bool
	log         *zap.Logger
	handler     UncaughtHandler

	workers  []*Worker
	injector *injector

	state    atomic.Int32
	admitMu  sync.RWMutex
	inflight sync.WaitGroup

	idle   atomic.Int32
	wakeMu sync.Mutex
	wakeCh chan struct{}

	quit         chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once

	submissions  atomic.Int64
	callerLeaves atomic.Int64
	helped       atomic.Int64
	failures     atomic.Int64
	uncaughtN    atomic.Int64
}

// NewPool creates and starts a pool.
func NewPool(cfg Config) (*Pool, error) {
	par := cfg.Parallelism
	if par < 0 || par > maxParallelism {
		return nil, configError(ErrInvalidParallelism, "parallelism", par)
	}
	if par == 0 {
		par = runtime.GOMAXPROCS(0)
	}
	if par < 1 {
		return nil, configError(ErrInvalidParallelism, "parallelism", par)
	}
	if cfg.Threshold < 0 {
		return nil, configError(errInvalidThreshold, "threshold", cfg.Threshold)
	}

	id := uuid.NewString()
	name := cfg.Name
	if name == "" {
		name = "pool-" + id[:8]
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	factory := cfg.WorkerFactory
	if factory == nil {
		factory = DefaultWorkerFactory
		if cfg.PinWorkers {
			factory = PinnedWorkerFactory
		}
	}

	p := &Pool{
		id:          id,
		name:        name,
		parallelism: par,
		asyncMode:   cfg.AsyncMode,
		threshold:   cfg.Threshold,
		log:         log.With(zap.String("pool", name), zap.String("pool_id", id)),
		handler:     cfg.UncaughtHandler,
		injector:    newInjector(),
		wakeCh:      make(chan struct{}),
		quit:        make(chan struct{}),
	}
	p.workers = make([]*Worker, par)
	for i := range p.workers {
		w := factory(p, i)
		if w == nil || w.pool != p {
			return nil, configError(errBadFactory, "index", i)
		}
		w.index = i
		p.workers[i] = w
	}
	p.wg.Add(par)
	for _, w := range p.workers {
		go w.run()
	}
	p.log.Info("pool started",
		zap.Int("parallelism", par),
		zap.Bool("async_mode", p.asyncMode),
		zap.Int64("threshold", p.threshold))
	return p, nil
}

// ID returns the unique pool handle.
func (p *Pool) ID() string { return p.id }

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Parallelism returns the number of workers.
func (p *Pool) Parallelism() int { return p.parallelism }

// AsyncMode reports whether workers consume their own deque FIFO.
func (p *Pool) AsyncMode() bool { return p.asyncMode }

// State returns the lifecycle state.
func (p *Pool) State() api.PoolState { return api.PoolState(p.state.Load()) }

// Workers returns the pool's workers in index order.
func (p *Pool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Owns reports whether r is one of this pool's workers.
func (p *Pool) Owns(r api.Runner) bool {
	if w, ok := r.(*Worker); ok {
		return w.pool == p
	}
	return r != nil && r.IsWorker() && r.PoolID() == p.id
}

func (p *Pool) String() string {
	return fmt.Sprintf("%s(%d workers, %s)", p.name, p.parallelism, p.State())
}

// Invoke runs c and blocks until its result is joined.
//
// Called from a task already running on one of this pool's workers, the
// computation runs inline on that worker. Otherwise the root is queued for the
// workers: a plain caller helps with tasks of its own submission while
// waiting, a worker of another pool keeps serving its own pool.
//
// Leaf failures are returned wrapped in a computation error. Submissions from
// outside the pool fail with a pool-closed error once Shutdown has begun.
func (p *Pool) Invoke(ctx context.Context, c api.Computation) (int64, error) {
	tr, err := p.invoke(ctx, c)
	return tr.Value, err
}

// Trace describes a finished submission.
type Trace struct {
	Value  int64
	Tasks  int
	Leaves []api.Range // in split order
}

// InvokeTrace is Invoke that also reports the split tree's leaves.
func (p *Pool) InvokeTrace(ctx context.Context, c api.Computation) (Trace, error) {
	return p.invoke(ctx, c)
}

func (p *Pool) invoke(ctx context.Context, c api.Computation) (Trace, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Trace{}, err
	}
	s, err := p.newSubmission(ctx, c)
	if err != nil {
		return Trace{}, err
	}

	var v int64
	w, onWorker := WorkerFrom(ctx)
	if onWorker && w.pool == p {
		p.submissions.Add(1)
		v, err = s.inline(w)
	} else {
		if err := p.admit(); err != nil {
			return Trace{}, err
		}
		p.submissions.Add(1)
		var r runner = w
		if !onWorker {
			r = newCaller(s)
		}
		v, err = s.external(r)
		p.inflight.Done()
	}

	tr := Trace{Tasks: s.arena.Len(), Leaves: s.arena.Leaves()}
	if err != nil {
		p.failures.Add(1)
		return tr, computationError(p.name, c.Range, err)
	}
	tr.Value = v
	return tr, nil
}

func (p *Pool) thresholdFor(requested, length int64) (int64, error) {
	switch {
	case requested < 0:
		return 0, configError(errInvalidThreshold, "threshold", requested)
	case requested > 0:
		return requested, nil
	case p.threshold > 0:
		return p.threshold, nil
	}
	return DefaultThreshold(length, p.parallelism), nil
}

// DefaultThreshold aims at four leaves per worker.
func DefaultThreshold(length int64, parallelism int) int64 {
	per := int64(parallelism) << 2
	t := length / per
	if length%per != 0 {
		t++
	}
	if t < 1 {
		t = 1
	}
	return t
}

func (p *Pool) admit() error {
	p.admitMu.RLock()
	defer p.admitMu.RUnlock()
	if p.State() != api.PoolActive {
		return closedError(p.name)
	}
	p.inflight.Add(1)
	return nil
}

// enterIdle registers a runner about to wait and returns the channel that is
// closed on the next new-work broadcast. The runner must re-check for work
// after the call and then call exitIdle.
func (p *Pool) enterIdle() <-chan struct{} {
	p.idle.Add(1)
	p.wakeMu.Lock()
	ch := p.wakeCh
	p.wakeMu.Unlock()
	return ch
}

func (p *Pool) exitIdle() { p.idle.Add(-1) }

// signal wakes every waiting runner.
func (p *Pool) signal() {
	if p.idle.Load() == 0 {
		return
	}
	p.wakeMu.Lock()
	close(p.wakeCh)
	p.wakeCh = make(chan struct{})
	p.wakeMu.Unlock()
}

func (p *Pool) uncaught(w *Worker, err error) {
	p.uncaughtN.Add(1)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("uncaught handler panicked", zap.String("worker", w.Name()), zap.Any("panic", r))
		}
	}()
	if p.handler != nil {
		p.handler(w, err)
		return
	}
	p.log.Error("uncaught worker failure", zap.String("worker", w.Name()), zap.Error(err))
}

// Shutdown stops accepting outside submissions, waits for in-flight ones,
// then stops the workers. It must not be called from the pool's own tasks.
// The common pool ignores it.
func (p *Pool) Shutdown() error {
	if p.common {
		p.log.Info("shutdown ignored for common pool")
		return nil
	}
	p.shutdownOnce.Do(func() {
		p.admitMu.Lock()
		p.state.Store(int32(api.PoolShuttingDown))
		p.admitMu.Unlock()
		p.log.Info("pool shutting down")

		p.inflight.Wait()
		close(p.quit)
		p.wg.Wait()
		p.state.Store(int32(api.PoolTerminated))
		p.log.Info("pool terminated", zap.Int64("submissions", p.submissions.Load()))
	})
	return nil
}

// WorkerStats is a snapshot of one worker.
type WorkerStats struct {
	Index    int
	Name     string
	State    api.WorkerState
	ThreadID int
	Queued   int
	Executed int64
	Leaves   int64
	Steals   int64
	Parks    int64
}

// Stats is a snapshot of the pool.
type Stats struct {
	ID           string
	Name         string
	State        api.PoolState
	Parallelism  int
	AsyncMode    bool
	Submissions  int64
	Failures     int64
	Leaves       int64 // all leaves, including CallerLeaves
	CallerLeaves int64
	Helped       int64 // tasks executed by helping callers
	Steals       int64
	Uncaught     int64
	Injected     int
	Idle         int
	Workers      []WorkerStats
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	st := Stats{
		ID:           p.id,
		Name:         p.name,
		State:        p.State(),
		Parallelism:  p.parallelism,
		AsyncMode:    p.asyncMode,
		Submissions:  p.submissions.Load(),
		Failures:     p.failures.Load(),
		CallerLeaves: p.callerLeaves.Load(),
		Helped:       p.helped.Load(),
		Uncaught:     p.uncaughtN.Load(),
		Injected:     p.injector.len(),
		Idle:         int(p.idle.Load()),
		Workers:      make([]WorkerStats, len(p.workers)),
	}
	st.Leaves = st.CallerLeaves
	for i, w := range p.workers {
		ws := w.stats()
		st.Workers[i] = ws
		st.Leaves += ws.Leaves
		st.Steals += ws.Steals
	}
	return st
}
