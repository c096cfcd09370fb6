package biome

// ID identifies a biome.
type ID uint8

// Biomes known to the generator.
const (
	DeepOcean ID = iota
	Ocean
	FrozenOcean
	Beach
	River
	Plains
	Desert
	Savanna
	Badlands
	Forest
	BirchForest
	DarkForest
	Jungle
	Swamp
	Taiga
	SnowyTundra
	Mountains
	SnowyPeaks
	biomeCount
)

type biomeInfo struct {
	name  string
	color [3]byte
}

var biomes = [biomeCount]biomeInfo{
	DeepOcean:   {"deep_ocean", [3]byte{0, 0, 48}},
	Ocean:       {"ocean", [3]byte{0, 0, 112}},
	FrozenOcean: {"frozen_ocean", [3]byte{112, 112, 214}},
	Beach:       {"beach", [3]byte{250, 222, 85}},
	River:       {"river", [3]byte{0, 0, 255}},
	Plains:      {"plains", [3]byte{141, 179, 96}},
	Desert:      {"desert", [3]byte{250, 148, 24}},
	Savanna:     {"savanna", [3]byte{189, 178, 95}},
	Badlands:    {"badlands", [3]byte{217, 69, 21}},
	Forest:      {"forest", [3]byte{5, 102, 33}},
	BirchForest: {"birch_forest", [3]byte{48, 116, 68}},
	DarkForest:  {"dark_forest", [3]byte{64, 81, 26}},
	Jungle:      {"jungle", [3]byte{83, 123, 9}},
	Swamp:       {"swamp", [3]byte{7, 249, 178}},
	Taiga:       {"taiga", [3]byte{11, 102, 89}},
	SnowyTundra: {"snowy_tundra", [3]byte{255, 255, 255}},
	Mountains:   {"mountains", [3]byte{96, 96, 96}},
	SnowyPeaks:  {"snowy_peaks", [3]byte{210, 225, 235}},
}

// String returns the biome's snake_case name.
func (id ID) String() string {
	if id >= biomeCount {
		return "unknown"
	}
	return biomes[id].name
}

// Color returns the biome's map color.
func (id ID) Color() (r, g, b byte) {
	if id >= biomeCount {
		return 0, 0, 0
	}
	c := biomes[id].color
	return c[0], c[1], c[2]
}

// classify maps climate values in [0, 1) to a biome.
func classify(continent, temperature, humidity, erosion float64) ID {
	switch {
	case continent < 0.30:
		if temperature < 0.30 {
			return FrozenOcean
		}
		return DeepOcean
	case continent < 0.42:
		if temperature < 0.25 {
			return FrozenOcean
		}
		return Ocean
	case continent < 0.45:
		return Beach
	}

	if erosion > 0.47 && erosion < 0.50 {
		return River
	}
	if continent > 0.78 {
		if temperature < 0.40 {
			return SnowyPeaks
		}
		return Mountains
	}

	switch {
	case temperature < 0.28:
		if humidity < 0.5 {
			return SnowyTundra
		}
		return Taiga
	case temperature < 0.50:
		switch {
		case humidity < 0.35:
			return Plains
		case humidity < 0.55:
			return BirchForest
		case humidity < 0.70:
			return Forest
		default:
			return DarkForest
		}
	case temperature < 0.68:
		switch {
		case humidity < 0.40:
			return Plains
		case humidity < 0.65:
			return Forest
		default:
			return Swamp
		}
	default:
		switch {
		case humidity < 0.30:
			if erosion < 0.35 {
				return Badlands
			}
			return Desert
		case humidity < 0.55:
			return Savanna
		default:
			return Jungle
		}
	}
}
