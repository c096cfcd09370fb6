// Package tile paints map tiles from worker-generated biome buffers.
//
// A Producer converts a tile address to a domain coordinate, requests the
// biome buffer for it and paints the result at display resolution. When the
// request fails in any way the tile is painted as a checkerboard
// placeholder instead, so a tile handed to the host is always completed.
package tile
