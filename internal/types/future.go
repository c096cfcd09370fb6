package types

import (
	"context"
	"sync"
)

// Future is a one-shot container for the outcome of an asynchronous request.
// It is settled exactly once, either with a value (Resolve) or with an error
// (Reject); later attempts to settle it are ignored.
//
// Type parameters:
//   - R: The type of the resolved value
type Future[R any] struct {
	id    uint64
	once  sync.Once
	done  chan struct{}
	value R
	err   error
}

// NewFuture creates an unsettled Future for the request identified by id.
func NewFuture[R any](id uint64) *Future[R] {
	return &Future[R]{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the request id the future was created for.
func (f *Future[R]) ID() uint64 {
	return f.id
}

// Resolve settles the future with a value.
// It reports whether this call settled the future.
func (f *Future[R]) Resolve(value R) bool {
	return f.settle(value, nil)
}

// Reject settles the future with an error.
// It reports whether this call settled the future.
func (f *Future[R]) Reject(err error) bool {
	var zero R
	return f.settle(zero, err)
}

func (f *Future[R]) settle(value R, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Get blocks until the future is settled and returns its outcome.
// Repeated calls return the same outcome.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// GetWithContext blocks until the future is settled or ctx is done.
// A context error does not settle the future; the outcome remains
// retrievable by a later call.
func (f *Future[R]) GetWithContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// TryGet returns the outcome without blocking.
// ready is false while the future is still pending.
func (f *Future[R]) TryGet() (value R, err error, ready bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		var zero R
		return zero, nil, false
	}
}

// Done returns a channel that is closed once the future is settled.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports whether the future has been settled.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
