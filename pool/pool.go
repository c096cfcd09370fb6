package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/tilegen/internal/scheduler"
	"github.com/utkarsh5026/tilegen/internal/types"
	"github.com/utkarsh5026/tilegen/protocol"
	"github.com/utkarsh5026/tilegen/worker"
)

// WorkerPool owns a fixed set of workers and multiplexes requests over them.
// Requests are correlated with responses by id, so callers may have any
// number of requests in flight and each receives its own response
// regardless of completion order.
type WorkerPool struct {
	id      string
	conf    *workerPoolConfig
	logger  *zap.Logger
	workers []*workerHandle
	failed  []*ConstructionError

	selector scheduler.Selector
	submitMu sync.Mutex
	nextID   atomic.Uint64

	anyReady *readinessGate
	pending  *correlator

	dispatched atomic.Uint64
	resolved   atomic.Uint64
	rejected   atomic.Uint64

	quit        chan struct{}
	destroyed   atomic.Bool
	destroyOnce sync.Once
	listeners   errgroup.Group
}

type workerHandle struct {
	index  int // position among live workers
	slot   int // factory index
	worker worker.Worker
	ready  *readinessGate
}

// New creates a pool and spawns its workers through factory. A worker the
// factory fails to create is logged and left out of the pool; a pool whose
// every worker failed is still returned, and rejects each request with
// ErrNoWorkers.
func New(factory worker.Factory, opts ...WorkerPoolOption) *WorkerPool {
	cfg := createConfig(opts...)

	p := &WorkerPool{
		id:       uuid.NewString(),
		conf:     cfg,
		anyReady: newReadinessGate(),
		pending:  newCorrelator(),
		quit:     make(chan struct{}),
	}
	p.logger = cfg.logger.With(zap.String("pool", p.id))

	for slot := range cfg.workerCount {
		w, err := factory(slot)
		if err != nil {
			cerr := &ConstructionError{Index: slot, Err: err}
			p.failed = append(p.failed, cerr)
			p.logger.Error("failed to create worker", zap.Int("slot", slot), zap.Error(err))
			continue
		}
		p.workers = append(p.workers, &workerHandle{
			index:  len(p.workers),
			slot:   slot,
			worker: w,
			ready:  newReadinessGate(),
		})
	}

	if n := len(p.workers); n > 0 {
		if cfg.affinityFunc != nil {
			p.selector = scheduler.NewAffinity(n)
		} else {
			p.selector = scheduler.NewRoundRobin(n)
		}
	}

	for _, h := range p.workers {
		p.listeners.Go(func() error {
			p.listen(h)
			return nil
		})
	}

	p.logger.Info("worker pool started",
		zap.Int("workers", len(p.workers)),
		zap.Int("requested", cfg.workerCount),
		zap.String("codec", cfg.codec.Name()))
	return p
}

// ID returns the pool's instance identifier, used to tag its log lines.
func (p *WorkerPool) ID() string {
	return p.id
}

// Size returns the number of live workers.
func (p *WorkerPool) Size() int {
	return len(p.workers)
}

// ConstructionErrors returns the errors of workers the factory failed to
// create.
func (p *WorkerPool) ConstructionErrors() []*ConstructionError {
	return p.failed
}

// Submit sends payload to the next worker and returns a future for its
// response. The k-th submission on a pool of S workers goes to worker k mod
// S unless WithAffinity is set.
//
// Dispatch is asynchronous: the request first waits for readiness (bounded
// by the readiness timeout), then for the rate limiter, then is registered
// and posted. Any failure along the way rejects the future.
func (p *WorkerPool) Submit(ctx context.Context, payload protocol.Payload) *types.Future[[]byte] {
	if len(p.workers) == 0 {
		future := types.NewFuture[[]byte](p.nextID.Add(1))
		p.reject(future, ErrNoWorkers)
		return future
	}

	p.submitMu.Lock()
	id := p.nextID.Add(1)
	h := p.workers[p.selector.Select(p.affinityKey(payload))]
	p.submitMu.Unlock()

	future := types.NewFuture[[]byte](id)
	if p.destroyed.Load() {
		p.reject(future, ErrPoolDestroyed)
		return future
	}

	frame, err := p.encode(id, payload)
	if err != nil {
		p.reject(future, &DispatchError{ID: id, Worker: h.index, Err: err})
		return future
	}

	go p.dispatch(ctx, h, future, frame)
	return future
}

// Request submits payload and waits for its response.
func (p *WorkerPool) Request(ctx context.Context, payload protocol.Payload) ([]byte, error) {
	ctx, span := p.conf.tracer.Start(ctx, "tilegen.pool.request",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("tilegen.pool.id", p.id),
			attribute.String("tilegen.request.type", string(payload.Kind())),
		),
	)
	defer span.End()

	future := p.Submit(ctx, payload)
	span.SetAttributes(attribute.Int64("tilegen.request.id", int64(future.ID())))

	out, err := future.GetWithContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("tilegen.response.bytes", len(out)))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

// Ready reports whether at least one worker has signalled readiness.
func (p *WorkerPool) Ready() bool {
	return p.anyReady.isOpen()
}

// WaitReady blocks until a worker is ready, ctx is done or the pool is
// destroyed.
func (p *WorkerPool) WaitReady(ctx context.Context) error {
	if len(p.workers) == 0 {
		return ErrNoWorkers
	}
	select {
	case <-p.anyReady.done():
		return nil
	case <-p.quit:
		return ErrPoolDestroyed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Destroy terminates every worker and rejects every pending request with
// ErrPoolDestroyed. Requests submitted afterwards are rejected the same way.
// Destroy is idempotent.
func (p *WorkerPool) Destroy() {
	p.destroyOnce.Do(func() {
		p.destroyed.Store(true)
		close(p.quit)

		for _, h := range p.workers {
			if err := h.worker.Terminate(); err != nil {
				p.logger.Warn("failed to terminate worker", zap.Int("worker", h.index), zap.Error(err))
			}
		}

		entries := p.pending.close()
		for _, entry := range entries {
			p.reject(entry.future, ErrPoolDestroyed)
		}

		_ = p.listeners.Wait()
		p.logger.Info("worker pool destroyed", zap.Int("rejected", len(entries)))
	})
}

func (p *WorkerPool) affinityKey(payload protocol.Payload) string {
	if p.conf.affinityFunc == nil {
		return ""
	}
	return p.conf.affinityFunc(payload)
}

func (p *WorkerPool) encode(id uint64, payload protocol.Payload) ([]byte, error) {
	return protocol.EncodeRequest(p.conf.codec, id, payload)
}

func (p *WorkerPool) dispatch(ctx context.Context, h *workerHandle, future *types.Future[[]byte], frame []byte) {
	gate := p.anyReady.done()
	if p.conf.strictReadiness {
		gate = h.ready.done()
	}

	ready, err := waitUntil(ctx, gate, p.quit, p.conf.readinessTimeout)
	if err != nil {
		p.reject(future, err)
		return
	}
	if !ready {
		p.logger.Debug("readiness wait timed out, dispatching anyway",
			zap.Uint64("id", future.ID()),
			zap.Int("worker", h.index),
			zap.Duration("timeout", p.conf.readinessTimeout))
	}

	if p.conf.rateLimiter != nil {
		if err := p.conf.rateLimiter.Wait(ctx); err != nil {
			p.reject(future, err)
			return
		}
	}

	if err := p.pending.register(future.ID(), pendingEntry{future: future, worker: h.index}); err != nil {
		p.reject(future, err)
		return
	}

	p.dispatched.Add(1)
	if err := h.worker.Post(frame); err != nil {
		p.dispatched.Add(^uint64(0))
		// Teardown may have claimed the entry already.
		if _, ok := p.pending.take(future.ID()); ok {
			p.reject(future, &DispatchError{ID: future.ID(), Worker: h.index, Err: err})
		}
	}
}

// listen routes one worker's messages until its stream closes or the pool
// is destroyed.
func (p *WorkerPool) listen(h *workerHandle) {
	for {
		select {
		case frame, ok := <-h.worker.Messages():
			if !ok {
				p.workerExited(h)
				return
			}
			p.route(h, frame)
		case <-p.quit:
			return
		}
	}
}

func (p *WorkerPool) route(h *workerHandle, frame []byte) {
	var msg protocol.Message
	if err := p.conf.codec.Unmarshal(frame, &msg); err != nil {
		p.logger.Warn("dropping undecodable message", zap.Int("worker", h.index), zap.Error(err))
		return
	}

	if msg.IsReady() {
		if h.ready.open() {
			p.anyReady.open()
			p.logger.Debug("worker ready", zap.Int("worker", h.index), zap.Int("slot", h.slot))
		}
		return
	}

	entry, ok := p.pending.take(msg.ID)
	if !ok {
		p.logger.Debug("dropping response without pending request",
			zap.Uint64("id", msg.ID), zap.Int("worker", h.index))
		return
	}

	switch {
	case msg.Failed():
		p.reject(entry.future, &WorkerError{ID: msg.ID, Message: msg.Error})
	case len(msg.Payload) == 0:
		p.reject(entry.future, ErrEmptyResponse)
	default:
		p.resolved.Add(1)
		entry.future.Resolve(msg.Payload)
	}
}

func (p *WorkerPool) workerExited(h *workerHandle) {
	if p.destroyed.Load() {
		return
	}
	entries := p.pending.takeWorker(h.index)
	for _, entry := range entries {
		p.reject(entry.future, fmt.Errorf("%w: worker %d", ErrWorkerExited, h.index))
	}
	p.logger.Warn("worker exited", zap.Int("worker", h.index), zap.Int("rejected", len(entries)))
}

// reject settles a future the caller has exclusive claim on, so the
// counter is bumped before waiters can observe the outcome.
func (p *WorkerPool) reject(future *types.Future[[]byte], err error) {
	p.rejected.Add(1)
	future.Reject(err)
}
