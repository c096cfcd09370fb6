package pool

import (
	"context"
	"sync"
	"time"
)

// readinessGate is a latch that opens once and stays open.
type readinessGate struct {
	once sync.Once
	ch   chan struct{}
}

func newReadinessGate() *readinessGate {
	return &readinessGate{ch: make(chan struct{})}
}

// open opens the gate and reports whether this call was the one to open it.
func (g *readinessGate) open() (opened bool) {
	g.once.Do(func() {
		close(g.ch)
		opened = true
	})
	return opened
}

func (g *readinessGate) isOpen() bool {
	select {
	case <-g.ch:
		return true
	default:
		return false
	}
}

func (g *readinessGate) done() <-chan struct{} {
	return g.ch
}

// waitUntil waits for d to close, for at most timeout. It reports false when
// the timeout expired first. Cancellation of ctx or closing of quit returns
// an error.
func waitUntil(ctx context.Context, d, quit <-chan struct{}, timeout time.Duration) (bool, error) {
	select {
	case <-d:
		return true, nil
	default:
	}
	if timeout <= 0 {
		return false, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-quit:
		return false, ErrPoolDestroyed
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
