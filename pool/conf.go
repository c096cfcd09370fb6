package pool

import (
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/tilegen/protocol"
)

// DefaultReadinessTimeout bounds how long a dispatch waits for a ready worker
// before sending anyway.
const DefaultReadinessTimeout = 2 * time.Second

const tracerName = "github.com/utkarsh5026/tilegen/pool"

// WorkerPoolOption is a functional option for configuring the worker pool.
type WorkerPoolOption func(*workerPoolConfig)

type workerPoolConfig struct {
	workerCount      int
	readinessTimeout time.Duration
	strictReadiness  bool
	rateLimiter      *rate.Limiter
	affinityFunc     func(protocol.Payload) string
	codec            protocol.Codec
	logger           *zap.Logger
	tracer           trace.Tracer
}

func createConfig(opts ...WorkerPoolOption) *workerPoolConfig {
	cfg := &workerPoolConfig{
		workerCount:      runtime.GOMAXPROCS(0),
		readinessTimeout: DefaultReadinessTimeout,
		codec:            protocol.Msgpack(),
		logger:           zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	return cfg
}

// WithWorkerCount sets the number of workers the pool spawns.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(count int) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if count > 0 {
			cfg.workerCount = count
		}
	}
}

// WithReadinessTimeout sets how long a request waits for a ready worker.
// When the wait times out the request is dispatched anyway; the worker
// queues it until its capability has loaded. A zero timeout disables the
// wait entirely.
func WithReadinessTimeout(timeout time.Duration) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if timeout >= 0 {
			cfg.readinessTimeout = timeout
		}
	}
}

// WithStrictReadiness makes each request wait for its selected worker to be
// ready instead of any worker in the pool.
func WithStrictReadiness() WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		cfg.strictReadiness = true
	}
}

// WithRateLimit sets a rate limiter for controlling dispatch throughput.
// requestsPerSecond specifies the maximum number of requests posted per
// second, burst the number that may be posted at once.
// If not specified, no rate limiting is applied.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 requests/sec with burst of 5
func WithRateLimit(requestsPerSecond float64, burst int) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if requestsPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
		}
	}
}

// WithAffinity routes requests by hashing the key returned by keyFn, so
// equal keys always land on the same worker. An empty key falls back to
// round robin.
func WithAffinity(keyFn func(protocol.Payload) string) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		cfg.affinityFunc = keyFn
	}
}

// WithCodec sets the codec used to encode requests and decode responses.
// It must match the codec of the workers.
func WithCodec(c protocol.Codec) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if c != nil {
			cfg.codec = c
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(l *zap.Logger) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithTracer sets the tracer used for request spans. Defaults to the global
// OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if t != nil {
			cfg.tracer = t
		}
	}
}
