package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolDestroyed is returned for requests pending when the pool is
	// destroyed and for requests submitted afterwards.
	ErrPoolDestroyed = errors.New("pool: destroyed")

	// ErrNoWorkers is returned when every worker failed to construct.
	ErrNoWorkers = errors.New("pool: no workers available")

	// ErrWorkerExited is returned for requests pending on a worker whose
	// execution context exited.
	ErrWorkerExited = errors.New("pool: worker exited")

	// ErrEmptyResponse is returned when a worker replies with neither a
	// payload nor an error.
	ErrEmptyResponse = errors.New("pool: empty response")
)

// ConstructionError records a worker the factory failed to create.
type ConstructionError struct {
	Index int
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("create worker %d: %v", e.Index, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// DispatchError is returned when a request could not be posted to its
// worker.
type DispatchError struct {
	ID     uint64
	Worker int
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch request %d to worker %d: %v", e.ID, e.Worker, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// WorkerError carries the error message a worker replied with.
type WorkerError struct {
	ID      uint64
	Message string
}

// Error returns the worker's message unchanged.
func (e *WorkerError) Error() string {
	return e.Message
}
