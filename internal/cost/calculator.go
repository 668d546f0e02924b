// Package cost prices a farming plan: seven direct cost items, market fees,
// logistics and a miscellaneous overhead on the direct items.
package cost

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/agrisim/internal/farm"
	"github.com/talgya/agrisim/internal/refdata"
	"github.com/talgya/agrisim/internal/stats"
)

// Reference is the slice of the reference data service the calculator reads.
type Reference interface {
	CostConstants() refdata.CostConstants
	FertilizerNutrients(name string) (refdata.Fertilizer, bool)
}

// Items are the ten additive line items, in ₹.
type Items struct {
	Seed            float64 `json:"seed"`
	Fertilizer      float64 `json:"fertilizer"`
	Irrigation      float64 `json:"irrigation"`
	Labour          float64 `json:"labour"`
	PestControl     float64 `json:"pest_control"`
	LandPreparation float64 `json:"land_preparation"`
	Harvesting      float64 `json:"harvesting"`
	MarketFees      float64 `json:"market_fees"`
	Logistics       float64 `json:"logistics"`
	Miscellaneous   float64 `json:"miscellaneous"`
}

// Direct sums the production costs the overhead is levied on.
func (it Items) Direct() float64 {
	return it.Seed + it.Fertilizer + it.Irrigation + it.Labour +
		it.PestControl + it.LandPreparation + it.Harvesting
}

// Breakdown is the cost model's output for one plan.
type Breakdown struct {
	Total      float64 `json:"total_cost"`
	PerQuintal float64 `json:"cost_per_quintal"`
	PerHectare float64 `json:"cost_per_hectare"`
	Items      Items   `json:"breakdown"`
}

// Calculator computes cost breakdowns. Stateless and safe for concurrent use.
type Calculator struct {
	ref Reference
}

// NewCalculator creates a calculator over the given reference data.
func NewCalculator(ref Reference) *Calculator {
	return &Calculator{ref: ref}
}

// Calculate prices the plan for the given production in quintals.
func (c *Calculator) Calculate(p farm.Plan, quintals float64) (Breakdown, error) {
	if err := p.Validate(); err != nil {
		return Breakdown{}, fmt.Errorf("calculate cost: %w", err)
	}
	if math.IsNaN(quintals) || math.IsInf(quintals, 0) || quintals < 0 {
		return Breakdown{}, fmt.Errorf("calculate cost: %w: production %v", farm.ErrInvalidPlan, quintals)
	}

	k := c.ref.CostConstants()
	area := p.AreaHectares

	irrigation := float64(p.IrrigationFrequency) * k.WaterPerIrrigationMM * area * k.IrrigationPerMM
	if p.RainfallMM > k.HighRainfallMM {
		irrigation *= 1 - k.HighRainfallDiscount
	}

	it := Items{
		Seed:            p.SeedQuantityKg * k.SeedCostPerKg(p.Crop),
		Fertilizer:      c.fertilizer(p.Fertilizer, area),
		Irrigation:      irrigation,
		Labour:          p.LabourDays * k.LabourPerDay,
		PestControl:     k.PestControlBase * area * PestMultiplier(p.PestControlIntensity),
		LandPreparation: k.LandPreparationPerHa * area,
		Harvesting:      k.HarvestingPerHa * area,
		MarketFees:      quintals * k.MarketReferencePrice * k.MarketFeePercent / 100,
		Logistics:       quintals * k.LogisticsPerQuintal,
	}
	direct := it.Direct()
	it.Miscellaneous = direct * k.MiscellaneousRate

	b := Breakdown{
		Total: direct + it.MarketFees + it.Logistics + it.Miscellaneous,
		Items: it,
	}
	if area > 0 {
		b.PerHectare = b.Total / area
	}
	if quintals > 0 {
		b.PerQuintal = b.Total / quintals
	}
	return b, nil
}

// PestMultiplier maps control intensity [0,1] onto [0.5, 1.5].
func PestMultiplier(intensity float64) float64 {
	return 0.5 + stats.Clamp(intensity, 0, 1)
}

func (c *Calculator) fertilizer(mix farm.FertilizerMix, area float64) float64 {
	total := 0.0
	for _, name := range mix.Sources() {
		f, ok := c.ref.FertilizerNutrients(name)
		if !ok {
			slog.Debug("no price for fertilizer source", "source", name)
			continue
		}
		total += mix[name] * area * f.CostPerKg
	}
	return total
}
