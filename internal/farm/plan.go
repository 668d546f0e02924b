// Package farm defines the farming plan that every model consumes.
// A Plan is a value: scenario transforms copy it and override fields,
// they never mutate the caller's plan.
package farm

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidPlan is wrapped by every validation failure.
var ErrInvalidPlan = errors.New("invalid farming plan")

// Defaults applied by the request layer when a field is omitted.
const (
	DefaultLabourDays           = 30.0
	DefaultPestControlIntensity = 0.5
	DefaultSaleMonth            = 2
	DefaultCurrentPrice         = 2000.0 // ₹ per quintal
	DefaultSeedKgPerHectare     = 50.0
	MaxSaleMonth                = 12
)

// Plan is one candidate set of farming decision inputs.
type Plan struct {
	Crop                 string        `json:"crop"`
	SoilType             string        `json:"soil_type"`
	AreaHectares         float64       `json:"area_hectares"`
	SeedQuality          float64       `json:"seed_quality"`         // 0–1
	RainfallMM           float64       `json:"expected_rainfall"`    // mm over the season
	RainfallDelayDays    int           `json:"rainfall_delay"`       // monsoon delay
	IrrigationFrequency  int           `json:"irrigation_frequency"` // events per month
	Fertilizer           FertilizerMix `json:"fertilizer_mix"`       // kg per hectare
	PestProbability      float64       `json:"pest_probability"`     // 0–1
	LabourDays           float64       `json:"labour_days"`
	PestControlIntensity float64       `json:"pest_control_intensity"` // 0–1
	SaleMonth            int           `json:"sale_month"`             // months after harvest
	CurrentPrice         float64       `json:"current_market_price"`   // ₹ per quintal
	SeedQuantityKg       float64       `json:"seed_quantity_kg"`
}

// Clone returns a deep copy so derived plans never share the fertilizer map.
func (p Plan) Clone() Plan {
	p.Fertilizer = p.Fertilizer.Clone()
	return p
}

// Validate checks the caller contract. The request layer enforces the same
// bounds; models call this again at their boundary.
func (p Plan) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(p.Crop != "", "crop is required")
	check(p.SoilType != "", "soil type is required")
	check(finite(p.AreaHectares) && p.AreaHectares >= 0, "area must be >= 0, got %v", p.AreaHectares)
	check(unit(p.SeedQuality), "seed quality must be in [0,1], got %v", p.SeedQuality)
	check(finite(p.RainfallMM) && p.RainfallMM >= 0, "rainfall must be >= 0, got %v", p.RainfallMM)
	check(p.RainfallDelayDays >= 0, "rainfall delay must be >= 0, got %d", p.RainfallDelayDays)
	check(p.IrrigationFrequency >= 0, "irrigation frequency must be >= 0, got %d", p.IrrigationFrequency)
	check(unit(p.PestProbability), "pest probability must be in [0,1], got %v", p.PestProbability)
	check(finite(p.LabourDays) && p.LabourDays >= 0, "labour days must be >= 0, got %v", p.LabourDays)
	check(unit(p.PestControlIntensity), "pest control intensity must be in [0,1], got %v", p.PestControlIntensity)
	check(p.SaleMonth >= 0 && p.SaleMonth <= MaxSaleMonth, "sale month must be in [0,%d], got %d", MaxSaleMonth, p.SaleMonth)
	check(finite(p.CurrentPrice) && p.CurrentPrice > 0, "current price must be > 0, got %v", p.CurrentPrice)
	check(finite(p.SeedQuantityKg) && p.SeedQuantityKg >= 0, "seed quantity must be >= 0, got %v", p.SeedQuantityKg)
	if err := p.Fertilizer.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidPlan, problems)
}

// FertilizerMix maps a nutrient source name to kg applied per hectare.
type FertilizerMix map[string]float64

// Clone copies the mix. A nil mix stays nil.
func (m FertilizerMix) Clone() FertilizerMix {
	if m == nil {
		return nil
	}
	out := make(FertilizerMix, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Scale returns a copy with every quantity multiplied by factor.
func (m FertilizerMix) Scale(factor float64) FertilizerMix {
	if m == nil {
		return nil
	}
	out := make(FertilizerMix, len(m))
	for k, v := range m {
		out[k] = v * factor
	}
	return out
}

// Sources returns the source names in sorted order so sums are reproducible.
func (m FertilizerMix) Sources() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both mixes hold the same sources and quantities.
func (m FertilizerMix) Equal(other FertilizerMix) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Validate rejects malformed entries: blank names, negative or non-finite quantities.
func (m FertilizerMix) Validate() error {
	for _, name := range m.Sources() {
		qty := m[name]
		if name == "" {
			return fmt.Errorf("%w: fertilizer entry with empty name", ErrInvalidPlan)
		}
		if !finite(qty) || qty < 0 {
			return fmt.Errorf("%w: fertilizer %q has malformed quantity %v", ErrInvalidPlan, name, qty)
		}
	}
	return nil
}

// DefaultSeedQuantity is the seed requirement assumed when none is given.
func DefaultSeedQuantity(areaHectares float64) float64 {
	return areaHectares * DefaultSeedKgPerHectare
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func unit(v float64) bool {
	return finite(v) && v >= 0 && v <= 1
}
