// Package pool multiplexes generation requests over a fixed set of workers.
//
// A WorkerPool owns its workers for its whole lifetime. Each request gets a
// fresh id, is routed to one worker and resolves the future waiting on that
// id when the worker answers. Workers answer in any order; the id alone
// decides which caller a response belongs to.
//
// # Basic Usage
//
//	p := pool.New(worker.LocalFactory(worker.BiomeLoader()), pool.WithWorkerCount(4))
//	defer p.Destroy()
//
//	rgb, err := p.Request(ctx, protocol.GenerateBiomes{Seed: 1, X: 0, Z: 0})
//
// # Readiness
//
// Workers load their capability after they start and announce it with a
// ready message. A request waits until a worker is ready, bounded by the
// readiness timeout (2s by default). After the timeout the request is sent
// anyway. WithStrictReadiness waits for the selected worker instead of any
// worker.
//
// # Routing
//
// Requests go to workers in round robin order: the k-th request on a pool
// of S workers goes to worker k mod S, whether or not that worker is ready.
// WithAffinity routes by a key derived from the payload instead.
//
// # Configuration Options
//
//   - WithWorkerCount(n): Number of workers (default: GOMAXPROCS)
//   - WithReadinessTimeout(d): Upper bound on the readiness wait
//   - WithStrictReadiness(): Wait on the selected worker's readiness
//   - WithRateLimit(perSecond, burst): Limit dispatch throughput
//   - WithAffinity(fn): Key-based routing
//   - WithCodec(c): Wire codec shared with the workers (default: msgpack)
//   - WithLogger(l), WithTracer(t): Observability
//
// # Error Handling
//
// A worker that replies with an error rejects the request with a
// *WorkerError whose message is the worker's text. Failure to post rejects
// with a *DispatchError. Destroy rejects everything still pending with
// ErrPoolDestroyed, and a worker whose execution context exits rejects its
// own pending requests with ErrWorkerExited.
package pool
