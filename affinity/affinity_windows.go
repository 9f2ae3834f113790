//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for setting thread CPU affinity.

package affinity

import (
	"math/bits"
	"syscall"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = syscall.NewLazyDLL("kernel32.dll")
	procSetThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
)

func setThreadMask(mask uintptr) error {
	ret, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if ret == 0 {
		return err
	}
	return nil
}

// setAffinityPlatform sets thread affinity to a given CPU for Windows.
func setAffinityPlatform(cpuID int) error {
	return setThreadMask(uintptr(1) << cpuID)
}

func clearAffinityPlatform(cpus []int) error {
	var mask uintptr
	for _, id := range cpus {
		if id < bits.UintSize {
			mask |= uintptr(1) << id
		}
	}
	if mask == 0 {
		mask = ^uintptr(0)
	}
	return setThreadMask(mask)
}

func threadIDPlatform() int {
	return int(windows.GetCurrentThreadId())
}

func allowedCPUsPlatform() []int {
	return nil
}
