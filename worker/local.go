package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/utkarsh5026/tilegen/internal/cpu"
)

// localWorker runs a Runtime on a dedicated goroutine.
type localWorker struct {
	inbox    chan []byte
	outbox   chan []byte
	quit     chan struct{}
	exited   chan struct{} // closed when the runtime returns
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// NewLocal starts rt on its own goroutine and returns its handle. index is
// used for CPU pinning and logging.
func NewLocal(rt *Runtime, index int, opts ...Option) Worker {
	o := newOptions(opts...)
	ctx, cancel := context.WithCancel(context.Background())

	w := &localWorker{
		inbox:  make(chan []byte, o.buffer),
		outbox: make(chan []byte, 1),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(w.outbox)
		// exited closes before outbox: Post fails once the pool can see
		// the stream end.
		defer close(w.exited)
		if o.cpuAffinity && cpu.Supported() {
			release, err := cpu.Pin(index)
			defer release()
			if err != nil {
				o.logger.Debug("cpu pinning failed", zap.Int("worker", index), zap.Error(err))
			}
		}
		if err := rt.Serve(ctx, localConn{w}); err != nil && ctx.Err() == nil {
			o.logger.Error("local worker exited", zap.Int("worker", index), zap.Error(err))
		}
	}()

	return w
}

// LocalFactory returns a Factory producing local workers configured with
// opts. Each worker gets its own runtime and loads its own capability.
func LocalFactory(load Loader, opts ...Option) Factory {
	return func(index int) (Worker, error) {
		return NewLocal(NewRuntime(load, opts...), index, opts...), nil
	}
}

func (w *localWorker) Post(frame []byte) error {
	select {
	case <-w.quit:
		return ErrTerminated
	case <-w.exited:
		return ErrTerminated
	default:
	}

	select {
	case w.inbox <- frame:
		return nil
	case <-w.quit:
		return ErrTerminated
	case <-w.exited:
		return ErrTerminated
	}
}

func (w *localWorker) Messages() <-chan []byte {
	return w.outbox
}

func (w *localWorker) Terminate() error {
	w.stopOnce.Do(func() {
		close(w.quit)
		w.cancel()
	})
	return nil
}

// localConn is the runtime's side of a localWorker.
type localConn struct {
	w *localWorker
}

func (c localConn) Recv() ([]byte, error) {
	select {
	case f := <-c.w.inbox:
		return f, nil
	case <-c.w.quit:
		return nil, ErrTerminated
	}
}

func (c localConn) Send(frame []byte) error {
	select {
	case c.w.outbox <- frame:
		return nil
	case <-c.w.quit:
		return ErrTerminated
	}
}
