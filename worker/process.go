package worker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/utkarsh5026/tilegen/protocol"
)

// processWorker drives a child process running ServeStdio.
type processWorker struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	messages chan []byte
	quit     chan struct{}
	exited   chan struct{} // closed when stdout ends
	stopOnce sync.Once
	writeMu  sync.Mutex
	logger   *zap.Logger
}

// StartProcess starts cmd and returns its handle. cmd must run a worker
// runtime on its stdio (see ServeStdio); its stdin and stdout must be unset.
// The child's stderr is inherited unless already set.
func StartProcess(cmd *exec.Cmd, opts ...Option) (Worker, error) {
	o := newOptions(opts...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	w := &processWorker{
		cmd:      cmd,
		stdin:    stdin,
		messages: make(chan []byte, 1),
		quit:     make(chan struct{}),
		exited:   make(chan struct{}),
		logger:   o.logger,
	}
	go w.readLoop(stdout)
	return w, nil
}

// ProcessFactory returns a Factory starting one child process per pool slot.
// build must return a fresh command for every call.
func ProcessFactory(build func(index int) *exec.Cmd, opts ...Option) Factory {
	return func(index int) (Worker, error) {
		return StartProcess(build(index), opts...)
	}
}

func (w *processWorker) readLoop(stdout io.Reader) {
	defer close(w.messages)
	defer close(w.exited)

	r := bufio.NewReader(stdout)
	for {
		frame, err := protocol.ReadFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				w.logger.Warn("worker process stream ended", zap.Int("pid", w.pid()), zap.Error(err))
			}
			break
		}
		select {
		case w.messages <- frame:
		case <-w.quit:
			// Keep draining so the child never blocks on a full pipe.
		}
	}

	if err := w.cmd.Wait(); err != nil {
		select {
		case <-w.quit:
		default:
			w.logger.Warn("worker process exited", zap.Int("pid", w.pid()), zap.Error(err))
		}
	}
}

func (w *processWorker) pid() int {
	if w.cmd.Process == nil {
		return 0
	}
	return w.cmd.Process.Pid
}

func (w *processWorker) Post(frame []byte) error {
	select {
	case <-w.quit:
		return ErrTerminated
	case <-w.exited:
		return ErrTerminated
	default:
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := protocol.WriteFrame(w.stdin, frame); err != nil {
		return fmt.Errorf("post to worker process: %w", err)
	}
	return nil
}

func (w *processWorker) Messages() <-chan []byte {
	return w.messages
}

func (w *processWorker) Terminate() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.quit)
		_ = w.stdin.Close()
		if w.cmd.Process != nil {
			if kerr := w.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
				err = kerr
			}
		}
	})
	return err
}
