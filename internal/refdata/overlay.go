package refdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCatalog returns the built-in catalog with the YAML file at path laid
// over it. Top-level tables present in the file replace the defaults key by
// key; absent ones are kept. An empty path returns the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	if err := ApplyOverlay(c, data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ApplyOverlay decodes YAML onto an existing catalog and checks the result.
func ApplyOverlay(c *Catalog, data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse reference data: %w", err)
	}
	return c.Validate()
}

// Validate rejects tables that would make the models divide by zero or
// produce out-of-range scores.
func (c *Catalog) Validate() error {
	for crop, t := range c.NPKTargets {
		if t.N <= 0 || t.P <= 0 || t.K <= 0 {
			return fmt.Errorf("npk target for %s must be positive", crop)
		}
	}
	if c.DefaultNPK.N <= 0 || c.DefaultNPK.P <= 0 || c.DefaultNPK.K <= 0 {
		return fmt.Errorf("default npk target must be positive")
	}
	for crop, r := range c.OptimalRainfall {
		if r.Min <= 0 || r.Max < r.Min {
			return fmt.Errorf("optimal rainfall for %s must satisfy 0 < min <= max", crop)
		}
	}
	if c.DefaultRainfall.Min <= 0 || c.DefaultRainfall.Max < c.DefaultRainfall.Min {
		return fmt.Errorf("default optimal rainfall must satisfy 0 < min <= max")
	}
	for crop, row := range c.Compatibility {
		for soil, v := range row {
			if v < 0 || v > 1 {
				return fmt.Errorf("compatibility %s/%s must be in [0,1], got %v", crop, soil, v)
			}
		}
	}
	sim := c.Simulation
	if sim.ForecastHorizonDays < 1 || sim.DaysPerSaleMonth < 0 {
		return fmt.Errorf("forecast horizon must be >= 1 and days per sale month >= 0")
	}
	if sim.MinTrials < 1 || sim.MaxTrials < sim.MinTrials {
		return fmt.Errorf("trial bounds must satisfy 1 <= min <= max")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"rainfall_variance", sim.RainfallVariance},
		{"fertilizer_variance", sim.FertilizerVariance},
		{"price_variance", sim.PriceVariance},
	} {
		if !(f.v >= 0 && f.v < 1) {
			return fmt.Errorf("%s must be in [0,1), got %v", f.name, f.v)
		}
	}
	if !(sim.PestProbMin >= 0 && sim.PestProbMin <= sim.PestProbMax && sim.PestProbMax <= 1) {
		return fmt.Errorf("pest probability range must satisfy 0 <= min <= max <= 1, got [%v,%v]", sim.PestProbMin, sim.PestProbMax)
	}
	return nil
}
