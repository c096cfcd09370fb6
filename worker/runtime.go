package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"

	"github.com/utkarsh5026/tilegen/protocol"
)

// Conn carries encoded frames between a runtime and its pool.
type Conn interface {
	// Recv blocks until the next request frame arrives.
	Recv() ([]byte, error)
	// Send delivers one response frame.
	Send(frame []byte) error
}

// Runtime answers worker-protocol requests with a generation capability.
type Runtime struct {
	load   Loader
	codec  protocol.Codec
	logger *zap.Logger
}

// NewRuntime returns a runtime serving the capability produced by load.
func NewRuntime(load Loader, opts ...Option) *Runtime {
	o := newOptions(opts...)
	return &Runtime{
		load:   load,
		codec:  o.codec,
		logger: o.logger,
	}
}

// Serve loads the capability, announces readiness and then handles requests
// from conn one at a time until conn is closed or ctx is done.
//
// If loading fails no readiness message is sent and the load error is
// returned. A clean end of the request stream returns nil.
func (rt *Runtime) Serve(ctx context.Context, conn Conn) error {
	capability, err := rt.load()
	if err != nil {
		return fmt.Errorf("load capability: %w", err)
	}

	ready, err := rt.codec.Marshal(protocol.NewReady())
	if err != nil {
		return fmt.Errorf("encode ready message: %w", err)
	}
	if err := conn.Send(ready); err != nil {
		return fmt.Errorf("send ready message: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := conn.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrTerminated) {
				return nil
			}
			return fmt.Errorf("receive request: %w", err)
		}

		resp := rt.handle(capability, frame)
		if resp == nil {
			continue
		}

		out, err := rt.codec.Marshal(resp)
		if err != nil {
			rt.logger.Error("encode response", zap.Uint64("id", resp.ID), zap.Error(err))
			out, err = rt.codec.Marshal(protocol.NewErrorResponse(resp.ID, err.Error()))
			if err != nil {
				continue
			}
		}
		if err := conn.Send(out); err != nil {
			if errors.Is(err, ErrTerminated) {
				return nil
			}
			return fmt.Errorf("send response %d: %w", resp.ID, err)
		}
	}
}

// handle decodes one request frame and computes its response. It returns nil
// when the frame carries no usable request id.
func (rt *Runtime) handle(capability Capability, frame []byte) *protocol.Message {
	req, err := protocol.DecodeRequest(rt.codec, frame)
	if err != nil {
		rt.logger.Warn("dropping undecodable request frame", zap.Int("bytes", len(frame)), zap.Error(err))
		return nil
	}
	if req.ID == 0 {
		rt.logger.Warn("dropping request without id", zap.String("type", string(req.Type)))
		return nil
	}

	payload, err := rt.compute(capability, req)
	if err != nil {
		return protocol.NewErrorResponse(req.ID, err.Error())
	}
	return protocol.NewResponse(req.ID, payload)
}

// compute runs one request against the capability, converting panics into
// errors so a faulty capability cannot take the worker down.
func (rt *Runtime) compute(capability Capability, req *protocol.Request) (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			rt.logger.Error("capability panic",
				zap.Uint64("id", req.ID),
				zap.Any("panic", r),
				zap.ByteString("stack", buf[:n]))
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	p, err := protocol.DecodePayload(rt.codec, req.Type, req.Body)
	if err != nil {
		return nil, err
	}

	switch p := p.(type) {
	case protocol.GenerateBiomes:
		p = p.WithDefaults()
		return capability.Compute(p.Seed, p.X, p.Z, p.Y, p.Pix4Cell)
	default:
		return nil, &protocol.UnknownKindError{Kind: req.Type}
	}
}
