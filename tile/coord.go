package tile

import "fmt"

// Fallback checkerboard colors.
const (
	FallbackLight = "#e0e0e0"
	FallbackDark  = "#c0c0c0"
)

// Coord addresses a tile in display space.
type Coord struct {
	X, Y, Z int
}

// String formats the address the way tile labels show it: (z, x, y).
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.Z, c.X, c.Y)
}

// Domain is a location in generation space.
type Domain struct {
	X, Z int
}

// TileToDomain maps a tile address to the domain coordinate of its origin
// cell. The vertical axis is inverted: tile y grows downward while domain z
// grows upward.
func TileToDomain(x, y, cellsPerTile int) Domain {
	return Domain{X: x * cellsPerTile, Z: -y * cellsPerTile}
}

// FallbackColor returns the placeholder color for tile (x, y). Adjacent
// tiles alternate, so a failed region reads as a checkerboard.
func FallbackColor(x, y int) string {
	if abs(x%2) == abs(y%2) {
		return FallbackLight
	}
	return FallbackDark
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
