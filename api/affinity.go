// Package api
// Author: momentics@gmail.com
//
// CPU affinity and thread pinning definitions.

package api

// Affinity controls execution on particular CPUs.
type Affinity interface {
	// Pin locks the current goroutine to its OS thread and binds it to cpuID.
	Pin(cpuID int) error
	// Unpin removes affinity and releases the OS thread.
	Unpin() error
	// Get returns the pinned CPU, -1 when unpinned.
	Get() (cpuID int, err error)
}
