//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to a single logical CPU chosen from slot. Slots beyond the CPU count wrap
// around, so worker indexes can be passed directly.
//
// The returned release function unlocks the thread; it must be called from
// the same goroutine. A pinning failure leaves the thread locked but
// unrestricted and is returned alongside the release function.
func Pin(slot int) (release func(), err error) {
	runtime.LockOSThread()
	release = runtime.UnlockOSThread

	n := runtime.NumCPU()
	cpuID := slot % n
	if cpuID < 0 {
		cpuID += n
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	// 0 = current thread
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return release, err
	}
	return release, nil
}

// Supported reports whether Pin restricts threads to a CPU on this platform.
func Supported() bool { return true }
