package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/utkarsh5026/tilegen/internal/types"
	"github.com/utkarsh5026/tilegen/protocol"
	"github.com/utkarsh5026/tilegen/worker"
)

// fakeWorker is a worker driven by the test: requests posted to it are
// decoded onto the requests channel and the test decides what to send back.
type fakeWorker struct {
	t          *testing.T
	requests   chan *protocol.Request
	out        chan []byte
	postErr    error
	closeOnce  sync.Once
	terminated atomic.Bool
}

func newFakeWorker(t *testing.T) *fakeWorker {
	return &fakeWorker{
		t:        t,
		requests: make(chan *protocol.Request, 64),
		out:      make(chan []byte, 64),
	}
}

func (f *fakeWorker) Post(frame []byte) error {
	if f.postErr != nil {
		return f.postErr
	}
	if f.terminated.Load() {
		return worker.ErrTerminated
	}
	req, err := protocol.DecodeRequest(protocol.Msgpack(), frame)
	if err != nil {
		return err
	}
	f.requests <- req
	return nil
}

func (f *fakeWorker) Messages() <-chan []byte {
	return f.out
}

func (f *fakeWorker) Terminate() error {
	f.terminated.Store(true)
	return nil
}

func (f *fakeWorker) send(msg *protocol.Message) {
	f.t.Helper()
	frame, err := protocol.Msgpack().Marshal(msg)
	if err != nil {
		f.t.Fatalf("marshal: %v", err)
	}
	f.out <- frame
}

func (f *fakeWorker) ready()                          { f.send(protocol.NewReady()) }
func (f *fakeWorker) reply(id uint64, payload []byte) { f.send(protocol.NewResponse(id, payload)) }
func (f *fakeWorker) fail(id uint64, text string)     { f.send(protocol.NewErrorResponse(id, text)) }
func (f *fakeWorker) exit()                           { f.closeOnce.Do(func() { close(f.out) }) }

// echo answers every request with "ok" until the test ends.
func (f *fakeWorker) echo() {
	stop := make(chan struct{})
	f.t.Cleanup(func() { close(stop) })
	go func() {
		for {
			select {
			case msg := <-f.requests:
				frame, _ := protocol.Msgpack().Marshal(protocol.NewResponse(msg.ID, []byte("ok")))
				f.out <- frame
			case <-stop:
				return
			}
		}
	}()
}

func (f *fakeWorker) nextRequest() *protocol.Request {
	f.t.Helper()
	select {
	case msg := <-f.requests:
		return msg
	case <-time.After(5 * time.Second):
		f.t.Fatal("timed out waiting for request")
	}
	return nil
}

func (f *fakeWorker) expectNoRequest(d time.Duration) {
	f.t.Helper()
	select {
	case msg := <-f.requests:
		f.t.Fatalf("expected no request, got id %d", msg.ID)
	case <-time.After(d):
	}
}

func factoryOf(workers ...*fakeWorker) worker.Factory {
	return func(index int) (worker.Worker, error) {
		if workers[index] == nil {
			return nil, errors.New("spawn failed")
		}
		return workers[index], nil
	}
}

func newTestPool(t *testing.T, workers []*fakeWorker, opts ...WorkerPoolOption) *WorkerPool {
	t.Helper()
	opts = append([]WorkerPoolOption{WithWorkerCount(len(workers))}, opts...)
	p := New(factoryOf(workers...), opts...)
	t.Cleanup(p.Destroy)
	return p
}

func await(t *testing.T, f *types.Future[[]byte]) ([]byte, error) {
	t.Helper()
	select {
	case <-f.Done():
		return f.Get()
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for future %d", f.ID())
	}
	return nil, nil
}

func waitReady(t *testing.T, p *WorkerPool, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for p.Stats().ReadyWorkers < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d ready workers, got %d", n, p.Stats().ReadyWorkers)
		}
		time.Sleep(time.Millisecond)
	}
}

func request(x int) protocol.GenerateBiomes {
	return protocol.GenerateBiomes{Seed: 42, X: x, Z: -x}
}
