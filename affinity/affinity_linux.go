//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity.

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform sets thread affinity to a given CPU for Linux.
// pid 0 addresses the calling thread.
func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return nil
}

func clearAffinityPlatform(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, id := range cpus {
		set.Set(id)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity: %w", err)
	}
	return nil
}

func threadIDPlatform() int {
	return unix.Gettid()
}

// allowedCPUsPlatform lists the members of the calling thread's mask.
func allowedCPUsPlatform() []int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil
	}
	n := set.Count()
	ids := make([]int, 0, n)
	for id := 0; len(ids) < n; id++ {
		if set.IsSet(id) {
			ids = append(ids, id)
		}
	}
	return ids
}
