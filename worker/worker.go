package worker

import (
	"errors"

	"github.com/utkarsh5026/tilegen/biome"
)

// ErrTerminated is returned by operations on a worker that has been
// terminated or whose execution context has exited.
var ErrTerminated = errors.New("worker: terminated")

// Worker is a handle on one isolated execution context.
type Worker interface {
	// Post delivers one encoded request frame to the worker.
	Post(frame []byte) error

	// Messages returns the worker's outbound frames. The channel is closed
	// when the execution context exits.
	Messages() <-chan []byte

	// Terminate stops the worker. A request being computed is not
	// interrupted, but its response is discarded. Terminate is idempotent.
	Terminate() error
}

// Factory creates the worker for pool slot index.
type Factory func(index int) (Worker, error)

// Capability is the generation capability a runtime serves. Compute is
// synchronous and may be slow; it is never called concurrently by a single
// runtime.
type Capability interface {
	Compute(seed uint64, x, z, y, pixelsPerCell int) ([]byte, error)
}

// Loader produces the capability. A runtime calls it exactly once.
type Loader func() (Capability, error)

// BiomeLoader loads the reference biome generator.
func BiomeLoader() Loader {
	return func() (Capability, error) {
		g, err := biome.Load()
		if err != nil {
			return nil, err
		}
		return g, nil
	}
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(seed uint64, x, z, y, pixelsPerCell int) ([]byte, error)

// Compute implements Capability.
func (f CapabilityFunc) Compute(seed uint64, x, z, y, pixelsPerCell int) ([]byte, error) {
	return f(seed, x, z, y, pixelsPerCell)
}
