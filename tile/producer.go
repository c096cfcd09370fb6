package tile

import (
	"context"
	"fmt"
	"image"

	"github.com/gogpu/gg/text"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/utkarsh5026/tilegen/protocol"
)

// Requester sends a generation request and waits for its buffer.
// *pool.WorkerPool satisfies it.
type Requester interface {
	Request(ctx context.Context, payload protocol.Payload) ([]byte, error)
}

// Producer turns tile addresses into painted tiles. It is the error
// boundary between the worker pool and the rendering host: every tile it
// creates ends up painted, with generated biomes or with the fallback.
type Producer struct {
	req    Requester
	opts   *options
	logger *zap.Logger
	font   *text.FontSource
}

// NewProducer creates a producer that requests tiles through req.
func NewProducer(req Requester, opts ...Option) (*Producer, error) {
	o := newOptions(opts...)

	font, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}

	return &Producer{
		req:    req,
		opts:   o,
		logger: o.logger,
		font:   font,
	}, nil
}

// Close releases the label font.
func (p *Producer) Close() error {
	return p.font.Close()
}

// Request builds the generation request for tile c.
func (p *Producer) Request(c Coord) protocol.GenerateBiomes {
	d := TileToDomain(c.X, c.Y, p.opts.cellsPerTile)
	return protocol.GenerateBiomes{
		Seed:      p.opts.seed,
		X:         d.X,
		Z:         d.Z,
		Y:         p.opts.y,
		Pix4Cell:  p.opts.pixelsPerCell,
		ZoomLevel: p.opts.zoomLevel,
	}
}

// CreateTile returns the surface for c immediately, in StateRequested, and
// paints it in the background. done, if non-nil, is called exactly once
// after the tile is painted.
func (p *Producer) CreateTile(ctx context.Context, c Coord, done DoneFunc) *Tile {
	t := newTile(c)
	go p.produce(ctx, t, done)
	return t
}

// Render creates tile c and waits until it is painted.
func (p *Producer) Render(ctx context.Context, c Coord) *Tile {
	t := p.CreateTile(ctx, c, nil)
	<-t.Done()
	return t
}

func (p *Producer) produce(ctx context.Context, t *Tile, done DoneFunc) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("paint tile %s: panic: %v", t.Coord, r)
			p.logger.Error("tile painting panicked", zap.Stringer("tile", t.Coord), zap.Error(err))
			t.paint(StatePaintedFallback, blank(p.opts.tileSize, FallbackColor(t.Coord.X, t.Coord.Y)), err)
		}
		if done != nil {
			done(nil, t)
		}
	}()

	img, err := p.generate(ctx, t.Coord)
	if err != nil {
		p.logger.Warn("tile generation failed, painting fallback",
			zap.Stringer("tile", t.Coord), zap.Error(err))
		t.paint(StatePaintedFallback, p.paintFallback(t.Coord), err)
		return
	}
	t.paint(StatePaintedSuccess, img, nil)
}

func (p *Producer) generate(ctx context.Context, c Coord) (*image.RGBA, error) {
	rgb, err := p.req.Request(ctx, p.Request(c))
	if err != nil {
		return nil, err
	}
	return p.paintSuccess(rgb, c)
}
