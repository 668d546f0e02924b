// Package yield estimates crop yield from a baseline and six independent,
// multiplicatively combined modifiers: soil, rainfall, irrigation,
// fertilizer, seed quality and pest pressure.
package yield

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/agrisim/internal/farm"
	"github.com/talgya/agrisim/internal/refdata"
	"github.com/talgya/agrisim/internal/stats"
	"github.com/talgya/agrisim/internal/weather"
)

// Confidence bounds.
const (
	MinConfidence = 0.4
	MaxConfidence = 0.95
)

// Reference is the slice of the reference data service the estimator reads.
type Reference interface {
	BaseYield(crop string) (float64, string)
	YieldCompatibility(crop, soil string) (float64, string)
	OptimalRainfall(crop string) refdata.RainfallRange
	FertilizerNutrients(name string) (refdata.Fertilizer, bool)
	NPKTarget(crop string) refdata.NPK
}

// Modifiers are the per-factor multipliers applied to the base yield.
type Modifiers struct {
	Soil       float64 `json:"soil"`
	Rainfall   float64 `json:"rainfall"`
	Irrigation float64 `json:"irrigation"`
	Fertilizer float64 `json:"fertilizer"`
	Seed       float64 `json:"seed_quality"`
	Pest       float64 `json:"pest_impact"`
	Total      float64 `json:"total"`
}

// Estimate is the yield model's output for one plan.
type Estimate struct {
	YieldPerHectare         float64     `json:"yield_per_hectare"`   // kg/ha
	TotalProductionKg       float64     `json:"total_production_kg"` // kg
	TotalProductionQuintals float64     `json:"total_production_quintals"`
	BaseYield               float64     `json:"base_yield"`
	BaseYieldSource         string      `json:"base_yield_source"`
	SoilSource              string      `json:"soil_source"`
	Confidence              float64     `json:"confidence"`
	Modifiers               Modifiers   `json:"modifiers"`
	Nutrients               refdata.NPK `json:"nutrients_applied"` // kg/ha
}

// Estimator computes yield estimates. Stateless and safe for concurrent use.
type Estimator struct {
	ref Reference
}

// NewEstimator creates an estimator over the given reference data.
func NewEstimator(ref Reference) *Estimator {
	return &Estimator{ref: ref}
}

// Estimate runs the yield model. It fails only on a plan that breaks the
// caller contract; missing reference data falls back to defaults.
func (e *Estimator) Estimate(p farm.Plan) (Estimate, error) {
	if err := p.Validate(); err != nil {
		return Estimate{}, fmt.Errorf("estimate yield: %w", err)
	}

	base, baseSrc := e.ref.BaseYield(p.Crop)
	soil, soilSrc := e.ref.YieldCompatibility(p.Crop, p.SoilType)
	nutrients := e.Nutrients(p.Fertilizer)

	m := Modifiers{
		Soil:       soil,
		Rainfall:   RainfallModifier(p.RainfallMM, p.RainfallDelayDays, e.ref.OptimalRainfall(p.Crop)),
		Irrigation: IrrigationModifier(p.IrrigationFrequency, p.RainfallMM),
		Fertilizer: e.fertilizerModifier(p.Crop, p.Fertilizer, nutrients),
		Seed:       SeedModifier(p.SeedQuality),
		Pest:       PestModifier(p.PestProbability),
	}
	m.Total = m.Soil * m.Rainfall * m.Irrigation * m.Fertilizer * m.Seed * m.Pest

	perHa := base * m.Total
	total := perHa * p.AreaHectares

	return Estimate{
		YieldPerHectare:         perHa,
		TotalProductionKg:       total,
		TotalProductionQuintals: total / 100,
		BaseYield:               base,
		BaseYieldSource:         baseSrc,
		SoilSource:              soilSrc,
		Confidence:              Confidence(p.SeedQuality, p.PestProbability, m.Soil, m.Rainfall),
		Modifiers:               m,
		Nutrients:               nutrients,
	}, nil
}

// Nutrients totals the N, P and K (kg/ha) a fertilizer mix supplies.
// Unknown sources contribute nothing and are logged.
func (e *Estimator) Nutrients(mix farm.FertilizerMix) refdata.NPK {
	var total refdata.NPK
	for _, name := range mix.Sources() {
		f, ok := e.ref.FertilizerNutrients(name)
		if !ok {
			slog.Debug("unknown fertilizer source ignored", "source", name)
			continue
		}
		qty := mix[name]
		total.N += qty * f.N / 100
		total.P += qty * f.P / 100
		total.K += qty * f.K / 100
	}
	return total
}

// RainfallModifier combines the rainfall adequacy factor with the monsoon
// delay factor.
func RainfallModifier(mm float64, delayDays int, optimal refdata.RainfallRange) float64 {
	return weather.RainfallFactor(mm, optimal) * weather.DelayFactor(delayDays)
}

// IrrigationModifier gives 1% per event when rain is plentiful, otherwise
// 3% per event scaled up by the deficit. Capped at 1.3.
func IrrigationModifier(frequency int, rainfallMM float64) float64 {
	events := float64(max(0, frequency))
	var benefit float64
	if rainfallMM > weather.HighRainfallMM {
		benefit = 1.0 + events*0.01
	} else {
		deficit := math.Max(0, (weather.HighRainfallMM-rainfallMM)/weather.HighRainfallMM)
		benefit = 1.0 + events*0.03*(1+deficit)
	}
	return math.Min(1.3, benefit)
}

// fertilizerModifier scores each nutrient by closeness to the crop target
// (deviation capped at 50%) and maps the mean score onto [0.7, 1.2].
// No fertilizer at all is a flat 0.7.
func (e *Estimator) fertilizerModifier(crop string, mix farm.FertilizerMix, applied refdata.NPK) float64 {
	if len(mix) == 0 {
		return 0.7
	}
	target := e.ref.NPKTarget(crop)
	score := func(got, want float64) float64 {
		return 1.0 - math.Min(0.5, math.Abs(got-want)/want)
	}
	avg := (score(applied.N, target.N) + score(applied.P, target.P) + score(applied.K, target.K)) / 3
	return 0.7 + avg*0.5
}

// SeedModifier maps seed quality [0,1] onto [0.6, 1.1].
func SeedModifier(quality float64) float64 {
	return 0.6 + quality*0.5
}

// PestModifier loses up to 40% of yield at pest probability 1.
func PestModifier(probability float64) float64 {
	return 1.0 - probability*0.4
}

// Confidence averages seed quality with the soil and rainfall modifiers,
// discounts up to 30% for pest pressure and clamps to [0.4, 0.95].
func Confidence(seedQuality, pestProbability, soil, rainfall float64) float64 {
	base := (seedQuality + soil + rainfall) / 3
	return stats.Clamp(base*(1.0-pestProbability*0.3), MinConfidence, MaxConfidence)
}
