package tile

import "go.uber.org/zap"

// Reference configuration: 16 cells of 4 pixels generated per tile, shown
// at 512 pixels.
const (
	DefaultCellsPerTile  = 16
	DefaultPixelsPerCell = 4
	DefaultTileSize      = 512
	DefaultZoomLevel     = 4
)

// Option configures a Producer.
type Option func(*options)

type options struct {
	seed          uint64
	y             int
	zoomLevel     int
	cellsPerTile  int
	pixelsPerCell int
	tileSize      int
	grid          bool
	labels        bool
	logger        *zap.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{
		seed:          1,
		zoomLevel:     DefaultZoomLevel,
		cellsPerTile:  DefaultCellsPerTile,
		pixelsPerCell: DefaultPixelsPerCell,
		tileSize:      DefaultTileSize,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSeed sets the world seed sent with every request.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithY sets the vertical slice of the world.
func WithY(y int) Option {
	return func(o *options) {
		o.y = y
	}
}

// WithZoomLevel sets the zoom level sent with every request.
func WithZoomLevel(level int) Option {
	return func(o *options) {
		if level > 0 {
			o.zoomLevel = level
		}
	}
}

// WithCellsPerTile sets how many domain cells a tile spans per axis. It must
// match the number of cells the capability renders per request, or every
// buffer is rejected and the tile falls back.
func WithCellsPerTile(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cellsPerTile = n
		}
	}
}

// WithPixelsPerCell sets the generation resolution of one cell.
func WithPixelsPerCell(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pixelsPerCell = n
		}
	}
}

// WithTileSize sets the display size of a tile in pixels.
func WithTileSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.tileSize = px
		}
	}
}

// WithGrid draws cell grid lines over painted tiles.
func WithGrid(enable bool) Option {
	return func(o *options) {
		o.grid = enable
	}
}

// WithLabels draws the tile address on painted tiles.
func WithLabels(enable bool) Option {
	return func(o *options) {
		o.labels = enable
	}
}

// WithLogger sets the producer logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
