package tile

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"
	"sync/atomic"
)

// State is the paint state of a tile. Both painted states are terminal.
type State int32

const (
	StateRequested State = iota
	StatePaintedSuccess
	StatePaintedFallback
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StatePaintedSuccess:
		return "painted"
	case StatePaintedFallback:
		return "fallback"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// DoneFunc is called exactly once per tile when it has been painted. err is
// always nil: failures are painted as the fallback, never reported.
type DoneFunc func(err error, t *Tile)

// Tile is a display surface for one tile address.
type Tile struct {
	Coord Coord

	state atomic.Int32
	done  chan struct{}

	mu    sync.Mutex
	img   *image.RGBA
	cause error
}

func newTile(c Coord) *Tile {
	return &Tile{Coord: c, done: make(chan struct{})}
}

// State returns the tile's current paint state.
func (t *Tile) State() State {
	return State(t.state.Load())
}

// Done returns a channel closed once the tile is painted.
func (t *Tile) Done() <-chan struct{} {
	return t.done
}

// Image returns the painted surface, or nil while the tile is requested.
func (t *Tile) Image() *image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.img
}

// Cause returns the error that led to the fallback, if any.
func (t *Tile) Cause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cause
}

// EncodePNG writes the painted surface as PNG.
func (t *Tile) EncodePNG(w io.Writer) error {
	img := t.Image()
	if img == nil {
		return fmt.Errorf("tile %s: not painted", t.Coord)
	}
	return png.Encode(w, img)
}

// paint moves the tile to a terminal state. Only the first call has any
// effect.
func (t *Tile) paint(state State, img *image.RGBA, cause error) bool {
	t.mu.Lock()
	if !t.state.CompareAndSwap(int32(StateRequested), int32(state)) {
		t.mu.Unlock()
		return false
	}
	t.img = img
	t.cause = cause
	t.mu.Unlock()

	close(t.done)
	return true
}
