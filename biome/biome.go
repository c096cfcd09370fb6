// Package biome is a deterministic reference implementation of the
// generation capability: given a world seed and a chunk origin it returns the
// RGB image of the biomes covering that chunk.
//
// The pool and tile packages treat it as an opaque library; any type with the
// same Compute signature can replace it.
package biome

import (
	"errors"
	"fmt"
)

// CellsPerChunk is the number of biome cells along each side of a chunk.
const CellsPerChunk = 16

// MaxPixelsPerCell bounds the image size a single Compute call may allocate.
const MaxPixelsPerCell = 64

// ErrInvalidSeed is returned for the zero seed, which has no world.
var ErrInvalidSeed = errors.New("biome: invalid seed 0")

// Generator produces biome images. A Generator is immutable after Load and
// safe for concurrent use.
type Generator struct {
	palette [biomeCount][3]byte
}

// Load prepares a Generator. It is the expensive, once-per-worker step.
func Load() (*Generator, error) {
	g := &Generator{}
	for id, b := range biomes {
		g.palette[id] = b.color
	}
	return g, nil
}

// ImageSize returns the side length in pixels of a chunk image rendered with
// pixelsPerCell pixels per cell.
func ImageSize(pixelsPerCell int) int {
	return CellsPerChunk * pixelsPerCell
}

// Compute renders the CellsPerChunk x CellsPerChunk cells whose first cell is
// the domain coordinate (x, z), sampled at height y. Each cell becomes a
// pixelsPerCell square. The result is row-major RGB, three bytes per pixel,
// with rows running along +z.
func (g *Generator) Compute(seed uint64, x, z, y, pixelsPerCell int) ([]byte, error) {
	if seed == 0 {
		return nil, ErrInvalidSeed
	}
	if pixelsPerCell <= 0 || pixelsPerCell > MaxPixelsPerCell {
		return nil, fmt.Errorf("biome: pixels per cell %d out of range [1, %d]", pixelsPerCell, MaxPixelsPerCell)
	}

	ids := make([]ID, CellsPerChunk*CellsPerChunk)
	for cz := range CellsPerChunk {
		for cx := range CellsPerChunk {
			ids[cz*CellsPerChunk+cx] = g.Sample(seed, x+cx, z+cz, y)
		}
	}

	size := ImageSize(pixelsPerCell)
	rgb := make([]byte, 3*size*size)
	for py := range size {
		row := ids[(py/pixelsPerCell)*CellsPerChunk:]
		for px := range size {
			c := g.palette[row[px/pixelsPerCell]]
			i := 3 * (py*size + px)
			rgb[i], rgb[i+1], rgb[i+2] = c[0], c[1], c[2]
		}
	}
	return rgb, nil
}

// Sample returns the biome of the single cell (x, z) at height y.
func (g *Generator) Sample(seed uint64, x, z, y int) ID {
	fx, fz := float64(x), float64(z)
	// y shifts the sampled slice of every field so different heights differ.
	fy := float64(y) / 64

	continent := fbm(seed^saltContinent, fx/96+fy, fz/96, 4)
	temperature := fbm(seed^saltTemperature, fx/64, fz/64+fy, 3)
	humidity := fbm(seed^saltHumidity, fx/48+fy, fz/48-fy, 3)
	erosion := fbm(seed^saltErosion, fx/24, fz/24, 2)

	return classify(continent, temperature, humidity, erosion)
}
