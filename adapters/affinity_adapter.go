// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Description:
//   Adapter implementing the api.Affinity interface on top of the
//   affinity package.
//
// Package adapters provides glue code between the core API contracts
// and the implementation packages.

package adapters

import (
	"runtime"

	"github.com/momentics/forkjoin/affinity"
	"github.com/momentics/forkjoin/api"
)

// AffinityAdapter implements api.Affinity for the calling goroutine. Pin locks
// the goroutine to its OS thread; Unpin releases it. An adapter must be used
// from one goroutine only.
type AffinityAdapter struct {
	currentCPU int
	pinned     bool
}

var _ api.Affinity = (*AffinityAdapter)(nil)

// NewAffinityAdapter creates an unpinned adapter.
func NewAffinityAdapter() *AffinityAdapter {
	return &AffinityAdapter{currentCPU: -1}
}

// Pin binds the calling goroutine's OS thread to cpuID. A negative cpuID
// picks affinity.CPUFor(0).
func (a *AffinityAdapter) Pin(cpuID int) error {
	if cpuID < 0 {
		cpuID = affinity.CPUFor(0)
	}
	if !a.pinned {
		runtime.LockOSThread()
	}
	if err := affinity.SetAffinity(cpuID); err != nil {
		if !a.pinned {
			runtime.UnlockOSThread()
		}
		return err
	}
	a.currentCPU = cpuID
	a.pinned = true
	return nil
}

// Unpin clears the binding and releases the OS thread. If the binding cannot
// be cleared the thread is not released.
func (a *AffinityAdapter) Unpin() error {
	if !a.pinned {
		return nil
	}
	if err := affinity.ClearAffinity(); err != nil {
		// The thread keeps its narrowed mask, so it stays locked and exits
		// with the goroutine.
		return err
	}
	runtime.UnlockOSThread()
	a.pinned = false
	a.currentCPU = -1
	return nil
}

// Get returns the pinned CPU, -1 when unpinned.
func (a *AffinityAdapter) Get() (int, error) {
	return a.currentCPU, nil
}
