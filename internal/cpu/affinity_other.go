//go:build !linux

package cpu

import "runtime"

// Pin locks the calling goroutine to its OS thread. CPU restriction is not
// available on this platform, so slot is ignored.
func Pin(slot int) (release func(), err error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}

// Supported reports whether Pin restricts threads to a CPU on this platform.
func Supported() bool { return false }
