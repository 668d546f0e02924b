package refdata

import "log/slog"

// Link is one named lookup strategy in a fallback chain.
type Link[K any] struct {
	Name   string
	Lookup func(K) (float64, bool)
}

// Chain resolves a value by trying its links in order and settling on a
// constant when every link misses. The order is data, not control flow,
// so it can be listed and tested on its own.
type Chain[K any] struct {
	Name     string
	Links    []Link[K]
	Fallback float64
}

// SourceFallback names the terminal constant of every chain.
const SourceFallback = "fallback"

// Resolve returns the first hit and the name of the link that produced it.
func (c Chain[K]) Resolve(key K) (float64, string) {
	for i, link := range c.Links {
		v, ok := link.Lookup(key)
		if !ok {
			continue
		}
		if i > 0 {
			slog.Debug("reference lookup fell back", "chain", c.Name, "key", key, "source", link.Name)
		}
		return v, link.Name
	}
	slog.Debug("reference lookup used constant", "chain", c.Name, "key", key, "value", c.Fallback)
	return c.Fallback, SourceFallback
}

// Order lists the link names followed by the constant, for auditing.
func (c Chain[K]) Order() []string {
	names := make([]string, 0, len(c.Links)+1)
	for _, l := range c.Links {
		names = append(names, l.Name)
	}
	return append(names, SourceFallback)
}

// CropSoil keys the compatibility chains.
type CropSoil struct {
	Crop string
	Soil string
}

// Link names.
const (
	SourceCropSoilTable = "crop_soil_table"
	SourceSoilDefaults  = "soil_defaults"
	SourceHistory       = "history"
	SourceDefaultYields = "default_yields"
)

// yieldCompatibilityChain: crop×soil table → soil-only table → constant.
func yieldCompatibilityChain(c *Catalog) Chain[CropSoil] {
	return Chain[CropSoil]{
		Name: "yield_compatibility",
		Links: []Link[CropSoil]{
			{Name: SourceCropSoilTable, Lookup: c.cropSoil},
			{Name: SourceSoilDefaults, Lookup: func(k CropSoil) (float64, bool) {
				v, ok := c.SoilDefaults[k.Soil]
				return v, ok
			}},
		},
		Fallback: c.FallbackCompatibility,
	}
}

// riskCompatibilityChain skips the soil-only table: risk treats an unknown
// pairing as the neutral constant.
func riskCompatibilityChain(c *Catalog) Chain[CropSoil] {
	return Chain[CropSoil]{
		Name:     "risk_compatibility",
		Links:    []Link[CropSoil]{{Name: SourceCropSoilTable, Lookup: c.cropSoil}},
		Fallback: c.FallbackCompatibility,
	}
}

// baseYieldChain: latest recorded yield → default table → constant.
func baseYieldChain(c *Catalog, h *History) Chain[string] {
	return Chain[string]{
		Name: "base_yield",
		Links: []Link[string]{
			{Name: SourceHistory, Lookup: func(crop string) (float64, bool) {
				return h.LatestYield(crop, SeasonTotal)
			}},
			{Name: SourceDefaultYields, Lookup: func(crop string) (float64, bool) {
				v, ok := c.DefaultYields[crop]
				return v, ok
			}},
		},
		Fallback: c.FallbackYield,
	}
}

func (c *Catalog) cropSoil(k CropSoil) (float64, bool) {
	row, ok := c.Compatibility[k.Crop]
	if !ok {
		return 0, false
	}
	v, ok := row[k.Soil]
	return v, ok
}
