// Package server exposes painted tiles over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/utkarsh5026/tilegen/pool"
	"github.com/utkarsh5026/tilegen/tile"
)

// Renderer paints one tile and waits for it. *tile.Producer satisfies it.
type Renderer interface {
	Render(ctx context.Context, c tile.Coord) *tile.Tile
}

// PoolStatus reports pool health. *pool.WorkerPool satisfies it.
type PoolStatus interface {
	Ready() bool
	Stats() pool.Stats
}

// Server serves GET /tiles/{z}/{x}/{y}.png and GET /healthz.
type Server struct {
	renderer Renderer
	status   PoolStatus
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New builds the HTTP handler.
func New(renderer Renderer, status PoolStatus, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		renderer: renderer,
		status:   status,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /tiles/{z}/{x}/{file}", s.handleTile)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	c, ok := parseCoord(r)
	if !ok {
		http.Error(w, "tile address must be /tiles/{z}/{x}/{y}.png with integer components", http.StatusBadRequest)
		return
	}

	start := time.Now()
	t := s.renderer.Render(r.Context(), c)

	var buf bytes.Buffer
	if err := t.EncodePNG(&buf); err != nil {
		s.logger.Error("failed to encode tile", zap.Stringer("tile", c), zap.Error(err))
		http.Error(w, "encode tile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Tile-State", t.State().String())
	if t.State() == tile.StatePaintedSuccess {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	_, _ = w.Write(buf.Bytes())

	s.logger.Debug("served tile",
		zap.Stringer("tile", c),
		zap.Stringer("state", t.State()),
		zap.Duration("elapsed", time.Since(start)))
}

type health struct {
	Ready bool       `json:"ready"`
	Pool  pool.Stats `json:"pool"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := health{Ready: s.status.Ready(), Pool: s.status.Stats()}

	w.Header().Set("Content-Type", "application/json")
	if !h.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(h)
}

func parseCoord(r *http.Request) (tile.Coord, bool) {
	file, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		return tile.Coord{}, false
	}

	z, err := strconv.Atoi(r.PathValue("z"))
	if err != nil {
		return tile.Coord{}, false
	}
	x, err := strconv.Atoi(r.PathValue("x"))
	if err != nil {
		return tile.Coord{}, false
	}
	y, err := strconv.Atoi(file)
	if err != nil {
		return tile.Coord{}, false
	}
	return tile.Coord{X: x, Y: y, Z: z}, true
}
