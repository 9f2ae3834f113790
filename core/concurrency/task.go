// File: core/concurrency/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tasks are arena records: a Leaf computes its range directly, an Internal
// node refers to its two halves by handle.

package concurrency

import (
	"sync/atomic"

	"github.com/momentics/forkjoin/api"
)

// Kind tags a task as leaf or internal node.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindInternal
)

func (k Kind) String() string {
	if k == KindLeaf {
		return "leaf"
	}
	return "internal"
}

// Handle indexes a task inside its arena.
type Handle int32

// NoHandle marks an absent child.
const NoHandle Handle = -1

// Task is one node of a submission's split tree.
type Task struct {
	arena  *Arena
	handle Handle
	kind   Kind
	rng    api.Range
	left   Handle
	right  Handle

	claimed atomic.Bool
	done    atomic.Bool
	doneCh  chan struct{} // set before the task is forked

	value int64
	err   error
}

// Handle returns the task's arena index.
func (t *Task) Handle() Handle { return t.handle }

// Kind returns leaf or internal.
func (t *Task) Kind() Kind { return t.kind }

// Range returns the task's closed range.
func (t *Task) Range() api.Range { return t.rng }

// Children returns the child handles of an internal task that has been split.
func (t *Task) Children() (Handle, Handle) { return t.left, t.right }

// Done reports whether the result is available.
func (t *Task) Done() bool { return t.done.Load() }

// claim marks the task as taken by exactly one runner.
func (t *Task) claim() bool {
	return t.claimed.CompareAndSwap(false, true)
}

// complete publishes the result and releases joiners.
func (t *Task) complete(v int64, err error) {
	t.value, t.err = v, err
	t.done.Store(true)
	if t.doneCh != nil {
		close(t.doneCh)
	}
}

// forkable prepares the completion channel joiners may wait on.
func (t *Task) forkable() *Task {
	t.doneCh = make(chan struct{})
	return t
}

// result must only be read after Done reports true.
func (t *Task) result() (int64, error) {
	return t.value, t.err
}

// submission returns the owning submission.
func (t *Task) submission() *submission {
	return t.arena.owner
}
