package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(n int) []*int {
	out := make([]*int, n)
	for i := range out {
		v := i
		out[i] = &v
	}
	return out
}

func TestDeque_OwnerLIFOThiefFIFO(t *testing.T) {
	d := NewDeque[int](2)
	vals := ints(3)
	for _, v := range vals {
		d.Push(v)
	}
	assert.Equal(t, 3, d.Len())
	assert.Same(t, vals[0], d.Steal())
	assert.Same(t, vals[2], d.Pop())
	assert.Same(t, vals[1], d.Pop())
	assert.Nil(t, d.Pop())
	assert.Nil(t, d.Steal())
	assert.Equal(t, 0, d.Len())
}

func TestDeque_Grows(t *testing.T) {
	d := NewDeque[int](minDequeCapacity)
	vals := ints(1000)
	for _, v := range vals {
		d.Push(v)
	}
	require.Equal(t, 1000, d.Len())
	for i := len(vals) - 1; i >= 0; i-- {
		require.Same(t, vals[i], d.Pop())
	}
}

func TestDeque_StealIfRejects(t *testing.T) {
	d := NewDeque[int](8)
	vals := ints(2)
	d.Push(vals[0])
	d.Push(vals[1])
	assert.Nil(t, d.StealIf(func(v *int) bool { return *v == 1 }))
	assert.Same(t, vals[0], d.StealIf(func(v *int) bool { return *v == 0 }))
	assert.Equal(t, 1, d.Len())
}

// Every pushed element must come out exactly once, whoever takes it.
func TestDeque_ConcurrentStealExclusive(t *testing.T) {
	const (
		items   = 200000
		thieves = 6
	)
	d := NewDeque[int](16)
	vals := ints(items)
	seen := make([]atomic.Int32, items)
	var taken atomic.Int64
	var stop atomic.Bool

	var wg sync.WaitGroup
	for i := 0; i < thieves; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				if v := d.Steal(); v != nil {
					seen[*v].Add(1)
					taken.Add(1)
				} else {
					runtime.Gosched()
				}
			}
		}()
	}

	for i, v := range vals {
		d.Push(v)
		if i%3 == 0 {
			if x := d.Pop(); x != nil {
				seen[*x].Add(1)
				taken.Add(1)
			}
		}
	}
	for x := d.Pop(); x != nil; x = d.Pop() {
		seen[*x].Add(1)
		taken.Add(1)
	}

	deadline := time.After(5 * time.Second)
	for taken.Load() < items {
		select {
		case <-deadline:
			t.Fatalf("took %d of %d items", taken.Load(), items)
		default:
			runtime.Gosched()
		}
	}
	stop.Store(true)
	wg.Wait()

	for i := range seen {
		if n := seen[i].Load(); n != 1 {
			t.Fatalf("item %d taken %d times", i, n)
		}
	}
}
