package biome

import "math"

// Per-field salts so each climate field uses an independent lattice.
const (
	saltContinent   uint64 = 0x9e3779b97f4a7c15
	saltTemperature uint64 = 0xbf58476d1ce4e5b9
	saltHumidity    uint64 = 0x94d049bb133111eb
	saltErosion     uint64 = 0xd6e8feb86659fd93
)

// mix64 is the splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// lattice returns a value in [0, 1) for integer lattice point (ix, iz).
func lattice(seed uint64, ix, iz int64) float64 {
	h := mix64(seed ^ mix64(uint64(ix)*0x632be59bd9b4e019+uint64(iz)*0x85157af5))
	return float64(h>>11) / (1 << 53)
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// valueNoise is bilinear value noise with smoothstep easing, in [0, 1).
func valueNoise(seed uint64, x, z float64) float64 {
	x0, z0 := math.Floor(x), math.Floor(z)
	ix, iz := int64(x0), int64(z0)
	tx, tz := smoothstep(x-x0), smoothstep(z-z0)

	v00 := lattice(seed, ix, iz)
	v10 := lattice(seed, ix+1, iz)
	v01 := lattice(seed, ix, iz+1)
	v11 := lattice(seed, ix+1, iz+1)

	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*tz
}

// fbm sums octaves of value noise, normalized back to [0, 1).
func fbm(seed uint64, x, z float64, octaves int) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for o := range octaves {
		sum += amp * valueNoise(mix64(seed+uint64(o)), x*freq, z*freq)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}
