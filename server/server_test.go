package server

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/utkarsh5026/tilegen/pool"
	"github.com/utkarsh5026/tilegen/protocol"
	"github.com/utkarsh5026/tilegen/tile"
)

type stubStatus struct {
	ready bool
	stats pool.Stats
}

func (s stubStatus) Ready() bool       { return s.ready }
func (s stubStatus) Stats() pool.Stats { return s.stats }

// requesterFunc adapts a function to tile.Requester.
type requesterFunc func(ctx context.Context, payload protocol.Payload) ([]byte, error)

func (f requesterFunc) Request(ctx context.Context, payload protocol.Payload) ([]byte, error) {
	return f(ctx, payload)
}

func newTestServer(t *testing.T, req tile.Requester, status PoolStatus) *httptest.Server {
	t.Helper()
	producer, err := tile.NewProducer(req, tile.WithTileSize(64))
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	t.Cleanup(func() { producer.Close() })

	srv := httptest.NewServer(New(producer, status, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_Tile(t *testing.T) {
	var got protocol.GenerateBiomes
	req := requesterFunc(func(_ context.Context, payload protocol.Payload) ([]byte, error) {
		got = payload.(protocol.GenerateBiomes)
		return make([]byte, 3*64*64), nil
	})
	srv := newTestServer(t, req, stubStatus{ready: true})

	resp, err := http.Get(srv.URL + "/tiles/4/3/-2.png")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	if state := resp.Header.Get("X-Tile-State"); state != tile.StatePaintedSuccess.String() {
		t.Errorf("expected state %s, got %s", tile.StatePaintedSuccess, state)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 64, 64) {
		t.Errorf("expected 64x64 tile, got %v", img.Bounds())
	}
	if got.X != 48 || got.Z != 32 {
		t.Errorf("expected domain (48, 32), got (%d, %d)", got.X, got.Z)
	}
}

func TestServer_TileFallback(t *testing.T) {
	req := requesterFunc(func(context.Context, protocol.Payload) ([]byte, error) {
		return nil, pool.ErrNoWorkers
	})
	srv := newTestServer(t, req, stubStatus{})

	resp, err := http.Get(srv.URL + "/tiles/4/0/0.png")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected fallback tile with 200, got %d", resp.StatusCode)
	}
	if state := resp.Header.Get("X-Tile-State"); state != tile.StatePaintedFallback.String() {
		t.Errorf("expected state %s, got %s", tile.StatePaintedFallback, state)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected fallback to be uncacheable, got %q", cc)
	}
}

func TestServer_BadAddress(t *testing.T) {
	srv := newTestServer(t, nil, stubStatus{})

	for _, path := range []string{"/tiles/4/a/0.png", "/tiles/4/0/0.jpg", "/tiles/x/0/0.png"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name   string
		status stubStatus
		code   int
	}{
		{"ready", stubStatus{ready: true, stats: pool.Stats{Workers: 4, ReadyWorkers: 4}}, http.StatusOK},
		{"not ready", stubStatus{stats: pool.Stats{Workers: 4}}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil, tt.status)

			resp, err := http.Get(srv.URL + "/healthz")
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.code {
				t.Errorf("expected %d, got %d", tt.code, resp.StatusCode)
			}
			var body health
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Pool != tt.status.stats {
				t.Errorf("expected stats %+v, got %+v", tt.status.stats, body.Pool)
			}
		})
	}
}
