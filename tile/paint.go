package tile

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// ErrBadBuffer is returned when a generated buffer does not hold exactly
// one RGB triple per pixel.
var ErrBadBuffer = errors.New("tile: malformed rgb buffer")

const borderColor = "#a0a0a0"

// decodeRGB expands a row-major RGB buffer of w×h pixels into an opaque
// image.
func decodeRGB(rgb []byte, w, h int) (*image.RGBA, error) {
	if want := 3 * w * h; len(rgb) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadBuffer, len(rgb), want)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < len(rgb); i, j = i+3, j+4 {
		img.Pix[j] = rgb[i]
		img.Pix[j+1] = rgb[i+1]
		img.Pix[j+2] = rgb[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// upscale resizes src to a size×size square with nearest-neighbor sampling,
// keeping cell edges hard.
func upscale(src *image.RGBA, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func (p *Producer) paintSuccess(rgb []byte, c Coord) (*image.RGBA, error) {
	res := p.opts.cellsPerTile * p.opts.pixelsPerCell
	src, err := decodeRGB(rgb, res, res)
	if err != nil {
		return nil, err
	}

	img := upscale(src, p.opts.tileSize)
	if !p.opts.grid && !p.opts.labels {
		return img, nil
	}

	dc := gg.NewContextForImage(img)
	defer dc.Close()

	if p.opts.grid {
		if err := p.drawGrid(dc); err != nil {
			return nil, fmt.Errorf("draw grid: %w", err)
		}
	}
	if p.opts.labels {
		p.drawLabel(dc, c)
	}
	return toRGBA(dc.Image()), nil
}

// paintFallback draws the checkerboard placeholder for c. It never fails;
// a stroke error only loses the border.
func (p *Producer) paintFallback(c Coord) *image.RGBA {
	size := p.opts.tileSize
	dc := gg.NewContext(size, size)
	defer dc.Close()

	dc.ClearWithColor(gg.Hex(FallbackColor(c.X, c.Y)))

	dc.SetHexColor(borderColor)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(size-2), float64(size-2))
	if err := dc.Stroke(); err != nil {
		p.logger.Debug("fallback border not drawn", zap.Stringer("tile", c), zap.Error(err))
	}

	p.drawLabel(dc, c)
	return toRGBA(dc.Image())
}

func (p *Producer) drawGrid(dc *gg.Context) error {
	size := float64(p.opts.tileSize)
	step := size / float64(p.opts.cellsPerTile)

	dc.SetRGBA(0, 0, 0, 0.15)
	dc.SetLineWidth(1)
	for i := 1; i < p.opts.cellsPerTile; i++ {
		v := float64(i) * step
		dc.DrawLine(v, 0, v, size)
		dc.DrawLine(0, v, size, v)
	}
	return dc.Stroke()
}

func (p *Producer) drawLabel(dc *gg.Context, c Coord) {
	size := float64(p.opts.tileSize)
	dc.SetFont(p.font.Face(size / 16))
	dc.SetRGBA(0, 0, 0, 0.75)
	dc.DrawStringAnchored(c.String(), size/2, size/2, 0.5, 0.5)
}

// blank is the last-resort surface used when painting itself failed.
func blank(size int, hex string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	col := gg.Hex(hex).Color()
	draw.Draw(img, img.Bounds(), &image.Uniform{C: col}, image.Point{}, draw.Src)
	return img
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
