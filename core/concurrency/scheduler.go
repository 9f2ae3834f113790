// File: core/concurrency/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fork/join core. An internal task forks its left half onto the runner's
// queue, computes the right half inline and then joins the left half, running
// other available work while the left half is still outstanding.

package concurrency

import (
	"context"
	"errors"
	"math/rand/v2"

	"go.uber.org/multierr"

	"github.com/momentics/forkjoin/affinity"
	"github.com/momentics/forkjoin/api"
)

// runner executes tasks on behalf of submissions.
type runner interface {
	api.Runner
	// fork makes t available to other runners.
	fork(t *Task)
	// next returns other work the runner may execute while joining.
	next() *Task
	runTask(t *Task)
	// home is the pool whose new-work broadcast wakes the runner.
	home() *Pool
	countLeaf()
}

var errRangeTooLong = errors.New("range longer than math.MaxInt64")

type submission struct {
	ctx   context.Context
	pool  *Pool
	rng   api.Range
	leaf  api.LeafFunc
	arena *Arena
	root  *Task
}

func sumLeaf(_ context.Context, r api.Range) (int64, error) {
	return SumRange(r)
}

func (p *Pool) newSubmission(ctx context.Context, c api.Computation) (*submission, error) {
	length, ok := c.Range.Len()
	if !ok {
		return nil, configError(errRangeTooLong, "range", c.Range.String())
	}
	threshold, err := p.thresholdFor(c.Threshold, length)
	if err != nil {
		return nil, err
	}
	s := &submission{ctx: ctx, pool: p, rng: c.Range, leaf: c.Leaf}
	if s.leaf == nil {
		s.leaf = sumLeaf
	}
	if s.arena, err = newArena(s, length, threshold); err != nil {
		return nil, err
	}
	s.root = s.arena.alloc(c.Range)
	return s, nil
}

// inline runs the whole submission on a worker of the target pool.
func (s *submission) inline(w *Worker) (int64, error) {
	if !s.root.claim() {
		return 0, internalError(errDoubleExecution)
	}
	v, err := s.compute(w, s.root)
	s.root.complete(v, err)
	return v, err
}

// external hands the root to the pool's workers and joins it from r.
func (s *submission) external(r runner) (int64, error) {
	s.pool.injector.push(s.root.forkable())
	s.pool.signal()
	return join(r, s.root)
}

// exec runs a task taken from a queue.
func (s *submission) exec(r runner, t *Task) {
	if !t.claim() {
		panic(internalError(errDoubleExecution))
	}
	v, err := s.compute(r, t)
	t.complete(v, err)
}

func (s *submission) compute(r runner, t *Task) (v int64, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = 0, internalError(panicError(p))
		}
	}()
	if t.kind == KindLeaf {
		return s.runLeaf(r, t)
	}
	lr, rr := t.rng.Split()
	left := s.arena.alloc(lr).forkable()
	right := s.arena.alloc(rr)
	t.left, t.right = left.handle, right.handle

	r.fork(left)
	right.claim()
	rv, rerr := s.compute(r, right)
	right.complete(rv, rerr)
	lv, lerr := join(r, left)

	if err := multierr.Append(lerr, rerr); err != nil {
		return 0, err
	}
	return AddExact(lv, rv)
}

func (s *submission) runLeaf(r runner, t *Task) (v int64, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = 0, panicError(p)
		}
	}()
	r.countLeaf()
	return s.leaf(WithRunner(s.ctx, r), t.rng)
}

// join waits for a forked task, executing whatever r can find meanwhile.
// When nothing is runnable it blocks until the task completes or new work is
// announced on r's home pool.
func join(r runner, t *Task) (int64, error) {
	for !t.Done() {
		if x := r.next(); x != nil {
			r.runTask(x)
			continue
		}
		p := r.home()
		ch := p.enterIdle()
		if x := r.next(); x != nil {
			p.exitIdle()
			r.runTask(x)
			continue
		}
		if !t.Done() {
			select {
			case <-ch:
			case <-t.doneCh:
			}
		}
		p.exitIdle()
	}
	return t.result()
}

// caller is the goroutine that submitted work from outside the pool. It only
// ever executes tasks of its own submission, and never the root, so the root
// always lands on a worker.
type caller struct {
	sub      *submission
	threadID int
}

func newCaller(s *submission) *caller {
	return &caller{sub: s, threadID: affinity.ThreadID()}
}

func (c *caller) PoolID() string { return c.sub.pool.ID() }
func (c *caller) IsWorker() bool { return false }
func (c *caller) Index() int     { return -1 }
func (c *caller) ThreadID() int  { return c.threadID }

func (c *caller) own(t *Task) bool {
	return t.arena == c.sub.arena && t != c.sub.root
}

func (c *caller) fork(t *Task) {
	c.sub.pool.injector.push(t)
	c.sub.pool.signal()
}

func (c *caller) next() *Task {
	p := c.sub.pool
	if t := p.injector.pollIf(c.own); t != nil {
		return t
	}
	n := len(p.workers)
	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		if t := p.workers[(start+i)%n].deque.StealIf(c.own); t != nil {
			return t
		}
	}
	return nil
}

func (c *caller) runTask(t *Task) {
	c.sub.pool.helped.Add(1)
	c.sub.exec(c, t)
}

func (c *caller) home() *Pool { return c.sub.pool }

func (c *caller) countLeaf() { c.sub.pool.callerLeaves.Add(1) }
