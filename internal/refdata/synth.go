package refdata

import (
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// SynthConfig controls the demo history generator.
type SynthConfig struct {
	Seed      int64
	Crops     []string  // empty = every catalog crop
	Years     int       // yield records per crop, ending the year before End
	PriceDays int       // daily price records per crop, ending at End
	End       time.Time // last price date
}

// DefaultSynthConfig returns ten years of yields and a year of daily prices.
func DefaultSynthConfig(end time.Time) SynthConfig {
	return SynthConfig{Seed: 42, Years: 10, PriceDays: 365, End: end}
}

// Synthesize produces smooth, plausible yield and price series for demos and
// tests. Output is fully determined by the config: two noise fields (yield,
// price) sampled along time with one row of the field per crop.
func Synthesize(c *Catalog, cfg SynthConfig) ([]YieldPoint, []PricePoint) {
	crops := cfg.Crops
	if len(crops) == 0 {
		crops = c.Crops
	}
	yieldNoise := opensimplex.NewNormalized(cfg.Seed)
	priceNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	end := cfg.End.UTC().Truncate(24 * time.Hour)
	var yields []YieldPoint
	var prices []PricePoint

	for ci, crop := range crops {
		row := float64(ci) * 7.31 // keep crops far apart in noise space

		base, ok := c.DefaultYields[crop]
		if !ok {
			base = c.FallbackYield
		}
		for y := 0; y < cfg.Years; y++ {
			year := end.Year() - cfg.Years + y
			// ±15% around the default yield, drifting slowly year to year.
			n := octaveNoise(yieldNoise, float64(y)*0.35, row, 3, 1.0, 0.5)
			yields = append(yields, YieldPoint{
				Crop:      crop,
				Season:    SeasonTotal,
				Year:      year,
				YieldKgHa: math.Round(base * (0.85 + 0.30*n)),
			})
		}

		// Price level per crop from the field's first column, 0.6×–1.4× the default mean.
		level := c.DefaultPriceStats.Mean * (0.6 + 0.8*priceNoise.Eval2(0, row))
		start := end.AddDate(0, 0, -(cfg.PriceDays - 1))
		for d := 0; d < cfg.PriceDays; d++ {
			n := octaveNoise(priceNoise, float64(d)/45.0, row, 4, 1.0, 0.55)
			modal := level * (0.8 + 0.4*n)
			spread := modal * 0.06
			prices = append(prices, PricePoint{
				Commodity:   crop,
				ArrivalDate: start.AddDate(0, 0, d),
				MinPrice:    math.Round(modal - spread),
				MaxPrice:    math.Round(modal + spread),
				ModalPrice:  math.Round(modal),
			})
		}
	}
	return yields, prices
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
