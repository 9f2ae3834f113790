// File: core/concurrency/deque.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Work-stealing deque: the owning worker pushes and pops at the tail, thieves
// take from the head. Slots are atomic pointers, so a thief reading a slot the
// owner is reusing never races; the head CAS decides the single winner.

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const minDequeCapacity = 8

type dequeRing[T any] struct {
	mask  int64
	slots []atomic.Pointer[T]
}

func newDequeRing[T any](size int) *dequeRing[T] {
	return &dequeRing[T]{mask: int64(size - 1), slots: make([]atomic.Pointer[T], size)}
}

// Deque is a single-owner, multi-thief double-ended queue. Push and Pop may
// only be called by the owner; Steal and StealIf by anyone.
type Deque[T any] struct {
	head atomic.Int64
	_    cpu.CacheLinePad
	tail atomic.Int64
	_    cpu.CacheLinePad
	ring atomic.Pointer[dequeRing[T]]
}

// NewDeque creates a new deque with capacity rounded to power of two.
// The deque grows when full.
func NewDeque[T any](capacity int) *Deque[T] {
	if capacity < minDequeCapacity {
		capacity = minDequeCapacity
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	d := &Deque[T]{}
	d.ring.Store(newDequeRing[T](size))
	return d
}

// Push adds v at the tail.
func (d *Deque[T]) Push(v *T) {
	t := d.tail.Load()
	h := d.head.Load()
	r := d.ring.Load()
	if t-h >= int64(len(r.slots)) {
		r = d.grow(r, h, t)
	}
	r.slots[t&r.mask].Store(v)
	d.tail.Store(t + 1)
}

// grow doubles the ring. The old ring is left intact for thieves still
// reading from it.
func (d *Deque[T]) grow(old *dequeRing[T], h, t int64) *dequeRing[T] {
	r := newDequeRing[T](len(old.slots) << 1)
	for i := h; i < t; i++ {
		r.slots[i&r.mask].Store(old.slots[i&old.mask].Load())
	}
	d.ring.Store(r)
	return r
}

// Pop removes the most recently pushed element; nil if empty or if a thief
// won the race for the last element.
func (d *Deque[T]) Pop() *T {
	t := d.tail.Load() - 1
	d.tail.Store(t)
	h := d.head.Load()
	if h > t {
		d.tail.Store(h)
		return nil
	}
	r := d.ring.Load()
	v := r.slots[t&r.mask].Load()
	if h == t {
		if !d.head.CompareAndSwap(h, h+1) {
			v = nil
		}
		d.tail.Store(h + 1)
	}
	return v
}

// Steal removes the oldest element; nil if empty.
func (d *Deque[T]) Steal() *T {
	return d.StealIf(nil)
}

// StealIf removes the oldest element when accept approves it. A nil accept
// takes anything. Returns nil if empty or rejected.
func (d *Deque[T]) StealIf(accept func(*T) bool) *T {
	for {
		h := d.head.Load()
		t := d.tail.Load()
		if h >= t {
			return nil
		}
		r := d.ring.Load()
		v := r.slots[h&r.mask].Load()
		if v == nil || (accept != nil && !accept(v)) {
			return nil
		}
		if d.head.CompareAndSwap(h, h+1) {
			return v
		}
	}
}

// Len returns an estimate of the number of queued elements.
func (d *Deque[T]) Len() int {
	n := d.tail.Load() - d.head.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
