// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity and OS thread identity. Platform-specific
// implementations are located in separate files guarded by build tags.

package affinity

import (
	"runtime"
	"slices"
)

// allowed holds the CPU ids of the process mask, captured during package
// initialization before any thread is pinned.
var allowed = loadAllowedCPUs()

func loadAllowedCPUs() []int {
	if ids := allowedCPUsPlatform(); len(ids) > 0 {
		return ids
	}
	ids := make([]int, runtime.NumCPU())
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// AllowedCPUs returns the ids of the CPUs the process may run on, ascending.
// Under a restricted cpuset they need not start at 0 or be contiguous.
func AllowedCPUs() []int {
	return slices.Clone(allowed)
}

// SetAffinity binds the current OS thread to a given logical CPU, which must
// be one of AllowedCPUs.
// The caller must hold the thread with runtime.LockOSThread.
// On unsupported platforms returns an error.
func SetAffinity(cpuID int) error {
	if _, ok := slices.BinarySearch(allowed, cpuID); !ok {
		return errInvalidCPU(cpuID)
	}
	return setAffinityPlatform(cpuID)
}

// ClearAffinity allows the current OS thread to run on every allowed CPU.
func ClearAffinity() error {
	return clearAffinityPlatform(allowed)
}

// ThreadID returns the id of the OS thread running the caller, or -1.
func ThreadID() int {
	return threadIDPlatform()
}

// AvailableCPUs returns the number of CPUs the process may run on.
func AvailableCPUs() int {
	return len(allowed)
}

// CPUFor maps a worker index onto the allowed CPUs round-robin. Negative
// indexes map like 0.
func CPUFor(index int) int {
	if index < 0 {
		index = 0
	}
	return allowed[index%len(allowed)]
}
