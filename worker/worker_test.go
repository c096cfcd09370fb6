package worker

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/utkarsh5026/tilegen/protocol"
)

const helperEnv = "TILEGEN_WORKER_HELPER"

func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		if err := ServeStdio(context.Background(), NewRuntime(BiomeLoader())); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// recv reads the next frame from w or fails the test after a timeout.
func recv(t *testing.T, w Worker) *protocol.Message {
	t.Helper()
	select {
	case frame, ok := <-w.Messages():
		if !ok {
			t.Fatal("worker message stream closed")
		}
		var msg protocol.Message
		if err := protocol.Msgpack().Unmarshal(frame, &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return &msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for worker message")
	}
	return nil
}

func post(t *testing.T, w Worker, id uint64, p protocol.Payload) {
	t.Helper()
	frame, err := protocol.EncodeRequest(protocol.Msgpack(), id, p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := w.Post(frame); err != nil {
		t.Fatalf("post: %v", err)
	}
}

// postRaw posts an arbitrary envelope, for requests EncodeRequest cannot
// build.
func postRaw(t *testing.T, w Worker, env map[string]any) {
	t.Helper()
	frame, err := protocol.Msgpack().Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := w.Post(frame); err != nil {
		t.Fatalf("post: %v", err)
	}
}

func stubLoader(fn CapabilityFunc) Loader {
	return func() (Capability, error) { return fn, nil }
}

func TestLocalWorker_Protocol(t *testing.T) {
	w := NewLocal(NewRuntime(BiomeLoader()), 0)
	defer w.Terminate()

	t.Run("ready first", func(t *testing.T) {
		if msg := recv(t, w); !msg.IsReady() {
			t.Fatalf("expected ready message, got %+v", msg)
		}
	})

	t.Run("generate biomes", func(t *testing.T) {
		post(t, w, 1, protocol.GenerateBiomes{Seed: 1234567890123456789, Pix4Cell: 4, ZoomLevel: 4})
		msg := recv(t, w)
		if msg.ID != 1 || msg.Failed() {
			t.Fatalf("unexpected response %+v", msg)
		}
		if len(msg.Payload) != 3*64*64 {
			t.Errorf("expected 12288 bytes, got %d", len(msg.Payload))
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		post(t, w, 2, protocol.GenerateBiomes{Seed: 5})
		msg := recv(t, w)
		if len(msg.Payload) != 3*64*64 {
			t.Errorf("expected default pix4cell 4 (12288 bytes), got %d", len(msg.Payload))
		}
	})

	t.Run("capability error", func(t *testing.T) {
		post(t, w, 3, protocol.GenerateBiomes{Seed: 0})
		msg := recv(t, w)
		if msg.ID != 3 || !msg.Failed() {
			t.Fatalf("expected error response for id 3, got %+v", msg)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		postRaw(t, w, map[string]any{"id": 4, "type": "renderCaves", "payload": map[string]any{}})
		msg := recv(t, w)
		if msg.ID != 4 || msg.Error != "unknown message type: renderCaves" {
			t.Fatalf("unexpected response %+v", msg)
		}
	})

	t.Run("frames without id are dropped", func(t *testing.T) {
		if err := w.Post([]byte{0xc1}); err != nil { // 0xc1 is never valid msgpack
			t.Fatal(err)
		}
		postRaw(t, w, map[string]any{"type": "generateBiomes", "payload": map[string]any{"seed": 1}})
		post(t, w, 5, protocol.GenerateBiomes{Seed: 9})
		if msg := recv(t, w); msg.ID != 5 {
			t.Fatalf("expected the next response to be id 5, got %+v", msg)
		}
	})
}

func TestRuntime_ErrorMessageVerbatim(t *testing.T) {
	rt := NewRuntime(stubLoader(func(uint64, int, int, int, int) ([]byte, error) {
		return nil, errors.New("boom")
	}))
	w := NewLocal(rt, 0)
	defer w.Terminate()

	recv(t, w)
	post(t, w, 11, protocol.GenerateBiomes{Seed: 1})
	msg := recv(t, w)
	if msg.ID != 11 || msg.Error != "boom" {
		t.Errorf("expected {11, boom}, got %+v", msg)
	}
}

func TestRuntime_PanicBecomesError(t *testing.T) {
	calls := 0
	rt := NewRuntime(stubLoader(func(uint64, int, int, int, int) ([]byte, error) {
		calls++
		if calls == 1 {
			panic("kaboom")
		}
		return []byte{1, 2, 3}, nil
	}))
	w := NewLocal(rt, 0)
	defer w.Terminate()

	recv(t, w)
	post(t, w, 1, protocol.GenerateBiomes{Seed: 1})
	if msg := recv(t, w); msg.ID != 1 || msg.Error != "worker panic: kaboom" {
		t.Fatalf("unexpected response %+v", msg)
	}

	post(t, w, 2, protocol.GenerateBiomes{Seed: 1})
	if msg := recv(t, w); msg.ID != 2 || msg.Failed() {
		t.Fatalf("worker should survive a panic, got %+v", msg)
	}
}

func TestRuntime_LoadFailure(t *testing.T) {
	rt := NewRuntime(func() (Capability, error) { return nil, errors.New("no module") })
	w := NewLocal(rt, 0)
	defer w.Terminate()

	select {
	case _, ok := <-w.Messages():
		if ok {
			t.Fatal("a worker that failed to load must not send anything")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message stream should close after load failure")
	}

	if err := w.Post([]byte{1}); !errors.Is(err, ErrTerminated) {
		t.Errorf("expected ErrTerminated from an exited worker, got %v", err)
	}
	if err := w.Post([]byte{2}); !errors.Is(err, ErrTerminated) {
		t.Errorf("expected Post to keep failing without blocking, got %v", err)
	}
}

func TestRuntime_LoadsOnce(t *testing.T) {
	loads := 0
	rt := NewRuntime(func() (Capability, error) {
		loads++
		return CapabilityFunc(func(uint64, int, int, int, int) ([]byte, error) { return []byte{0}, nil }), nil
	})
	w := NewLocal(rt, 0)
	defer w.Terminate()

	recv(t, w)
	for id := uint64(1); id <= 3; id++ {
		post(t, w, id, protocol.GenerateBiomes{Seed: 1})
		recv(t, w)
	}
	if loads != 1 {
		t.Errorf("expected one load, got %d", loads)
	}
}

func TestLocalWorker_Terminate(t *testing.T) {
	w := NewLocal(NewRuntime(BiomeLoader()), 0, WithCPUAffinity(true))
	recv(t, w)

	if err := w.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := w.Terminate(); err != nil {
		t.Fatalf("second terminate: %v", err)
	}
	if err := w.Post([]byte{1}); !errors.Is(err, ErrTerminated) {
		t.Errorf("expected ErrTerminated, got %v", err)
	}

	select {
	case _, ok := <-w.Messages():
		if ok {
			t.Error("unexpected message after terminate")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message stream not closed after terminate")
	}
}

func TestProcessWorker(t *testing.T) {
	factory := ProcessFactory(func(int) *exec.Cmd {
		cmd := exec.Command(os.Args[0], "-test.run=^$")
		cmd.Env = append(os.Environ(), helperEnv+"=1")
		return cmd
	})

	w, err := factory(0)
	if err != nil {
		t.Fatalf("start helper process: %v", err)
	}
	defer w.Terminate()

	if msg := recv(t, w); !msg.IsReady() {
		t.Fatalf("expected ready, got %+v", msg)
	}

	post(t, w, 1, protocol.GenerateBiomes{Seed: 1234567890123456789, Pix4Cell: 4, ZoomLevel: 4})
	post(t, w, 2, protocol.GenerateBiomes{Seed: 0})

	first, second := recv(t, w), recv(t, w)
	if first.ID != 1 || len(first.Payload) != 12288 {
		t.Errorf("unexpected first response id=%d len=%d err=%q", first.ID, len(first.Payload), first.Error)
	}
	if second.ID != 2 || !second.Failed() {
		t.Errorf("expected error response for id 2, got %+v", second)
	}

	if err := w.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := w.Post([]byte{1}); !errors.Is(err, ErrTerminated) {
		t.Errorf("expected ErrTerminated after terminate, got %v", err)
	}
}
