package worker

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/utkarsh5026/tilegen/protocol"
)

// streamConn carries length-prefixed frames over a byte stream.
type streamConn struct {
	r  *bufio.Reader
	mu sync.Mutex
	w  *bufio.Writer
}

// NewStreamConn returns a Conn reading request frames from r and writing
// response frames to w.
func NewStreamConn(r io.Reader, w io.Writer) Conn {
	return &streamConn{
		r: bufio.NewReader(r),
		w: bufio.NewWriter(w),
	}
}

func (c *streamConn) Recv() ([]byte, error) {
	return protocol.ReadFrame(c.r)
}

func (c *streamConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := protocol.WriteFrame(c.w, frame); err != nil {
		return err
	}
	return c.w.Flush()
}

// ServeStdio runs rt on the process's standard input and output. It is the
// entry point of a worker child process; nothing else may write to stdout.
func ServeStdio(ctx context.Context, rt *Runtime) error {
	return rt.Serve(ctx, NewStreamConn(os.Stdin, os.Stdout))
}
