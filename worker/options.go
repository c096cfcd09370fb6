package worker

import (
	"go.uber.org/zap"

	"github.com/utkarsh5026/tilegen/protocol"
)

// Option configures runtimes and transports.
type Option func(*options)

type options struct {
	codec       protocol.Codec
	logger      *zap.Logger
	buffer      int
	cpuAffinity bool
}

func newOptions(opts ...Option) *options {
	o := &options{
		codec:  protocol.Msgpack(),
		logger: zap.NewNop(),
		buffer: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCodec sets the codec used for frames. Pool and workers must agree.
func WithCodec(c protocol.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBuffer sets how many request frames a local worker accepts before Post
// blocks. If not specified, defaults to 1.
func WithBuffer(size int) Option {
	return func(o *options) {
		if size >= 0 {
			o.buffer = size
		}
	}
}

// WithCPUAffinity pins each local worker goroutine to the CPU matching its
// pool index.
func WithCPUAffinity(enable bool) Option {
	return func(o *options) {
		o.cpuAffinity = enable
	}
}
