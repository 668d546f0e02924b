package engine

import (
	"math"

	"github.com/talgya/agrisim/internal/farm"
)

// Strategy turns a base plan into a scenario plan. Implementations must not
// modify the base plan; Apply returns an independent copy.
type Strategy interface {
	Name() string
	Apply(base farm.Plan) farm.Plan
}

// Strategies selects the transforms used for the named scenarios. Swapping
// one (for a grid search, say) leaves the orchestration untouched.
type Strategies struct {
	Current Strategy
	Optimal Strategy
	Worst   Strategy
}

// MixSource supplies balanced fertilizer mixes by crop.
type MixSource interface {
	BalancedMix(crop string) (farm.FertilizerMix, bool)
}

// DefaultStrategies returns the identity and the two fixed heuristic transforms.
func DefaultStrategies(mixes MixSource, favorableSaleMonth int) Strategies {
	return Strategies{
		Current: Current{},
		Optimal: HeuristicOptimal{Mixes: mixes, SaleMonth: favorableSaleMonth},
		Worst:   HeuristicWorst{},
	}
}

// Current leaves the plan as the farmer wrote it.
type Current struct{}

func (Current) Name() string { return "current" }

func (Current) Apply(base farm.Plan) farm.Plan { return base.Clone() }

// HeuristicOptimal nudges every controllable input in the favorable
// direction. It is a fixed rule set, not a search, and does not guarantee a
// better profit than the base plan.
type HeuristicOptimal struct {
	Mixes     MixSource // nil keeps the farmer's mix
	SaleMonth int
}

func (HeuristicOptimal) Name() string { return "heuristic-optimal" }

func (h HeuristicOptimal) Apply(base farm.Plan) farm.Plan {
	p := base.Clone()
	p.SeedQuality = math.Min(0.95, base.SeedQuality+0.15)
	if base.RainfallMM < 600 {
		p.IrrigationFrequency = base.IrrigationFrequency + 2
	}
	if h.Mixes != nil {
		if mix, ok := h.Mixes.BalancedMix(base.Crop); ok {
			p.Fertilizer = mix
		}
	}
	p.PestControlIntensity = math.Min(0.9, base.PestControlIntensity+0.3)
	p.PestProbability = math.Max(0.05, base.PestProbability-0.15)
	p.SaleMonth = h.SaleMonth
	return p
}

// HeuristicWorst degrades every input: poor seed, late and short rain, less
// water and fertilizer, heavy pests and a forced immediate sale.
type HeuristicWorst struct{}

func (HeuristicWorst) Name() string { return "heuristic-worst" }

func (HeuristicWorst) Apply(base farm.Plan) farm.Plan {
	p := base.Clone()
	p.SeedQuality = math.Max(0.3, base.SeedQuality-0.3)
	p.RainfallMM = base.RainfallMM * 0.7
	p.RainfallDelayDays = base.RainfallDelayDays + 15
	p.IrrigationFrequency = max(0, base.IrrigationFrequency-2)
	p.Fertilizer = base.Fertilizer.Scale(0.6)
	p.PestProbability = math.Min(0.8, base.PestProbability+0.3)
	p.PestControlIntensity = math.Max(0.2, base.PestControlIntensity-0.3)
	p.SaleMonth = 0
	return p
}
