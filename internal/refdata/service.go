package refdata

import (
	"github.com/talgya/agrisim/internal/farm"
)

// Service answers every reference lookup the models make. It holds only
// immutable data and is safe for concurrent use.
type Service struct {
	catalog *Catalog
	history *History

	yieldCompat Chain[CropSoil]
	riskCompat  Chain[CropSoil]
	baseYield   Chain[string]
}

// NewService wires the catalog and an optional history snapshot. A nil
// catalog means the built-in defaults; a nil history means "no records".
func NewService(c *Catalog, h *History) *Service {
	if c == nil {
		c = DefaultCatalog()
	}
	return &Service{
		catalog:     c,
		history:     h,
		yieldCompat: yieldCompatibilityChain(c),
		riskCompat:  riskCompatibilityChain(c),
		baseYield:   baseYieldChain(c, h),
	}
}

// Catalog exposes the static tables for enumeration endpoints. Callers must
// not modify it.
func (s *Service) Catalog() *Catalog { return s.catalog }

// HasHistory reports whether any historical record was loaded.
func (s *Service) HasHistory() bool { return !s.history.Empty() }

// DefaultYield returns the built-in yield for the crop (kg/ha).
func (s *Service) DefaultYield(crop string) float64 {
	if v, ok := s.catalog.DefaultYields[crop]; ok {
		return v
	}
	return s.catalog.FallbackYield
}

// BaseYield resolves the baseline yield through the history → defaults →
// constant chain and reports which source answered.
func (s *Service) BaseYield(crop string) (float64, string) {
	return s.baseYield.Resolve(crop)
}

// CropSoilCompatibility is the raw table lookup, absent for unknown pairs.
func (s *Service) CropSoilCompatibility(crop, soil string) (float64, bool) {
	return s.catalog.cropSoil(CropSoil{Crop: crop, Soil: soil})
}

// YieldCompatibility resolves crop×soil suitability for the yield model.
func (s *Service) YieldCompatibility(crop, soil string) (float64, string) {
	return s.yieldCompat.Resolve(CropSoil{Crop: crop, Soil: soil})
}

// RiskCompatibility resolves crop×soil suitability for the risk model.
func (s *Service) RiskCompatibility(crop, soil string) (float64, string) {
	return s.riskCompat.Resolve(CropSoil{Crop: crop, Soil: soil})
}

// FertilizerNutrients returns the nutrient content of a source.
func (s *Service) FertilizerNutrients(name string) (Fertilizer, bool) {
	f, ok := s.catalog.Fertilizers[name]
	return f, ok
}

// NPKTarget returns the crop's nutrient target, or the generic one.
func (s *Service) NPKTarget(crop string) NPK {
	if t, ok := s.catalog.NPKTargets[crop]; ok {
		return t
	}
	return s.catalog.DefaultNPK
}

// OptimalRainfall returns the crop's optimal rainfall interval.
func (s *Service) OptimalRainfall(crop string) RainfallRange {
	if r, ok := s.catalog.OptimalRainfall[crop]; ok {
		return r
	}
	return s.catalog.DefaultRainfall
}

// BalancedMix returns a copy of the crop's balanced fertilizer mix, if defined.
func (s *Service) BalancedMix(crop string) (farm.FertilizerMix, bool) {
	m, ok := s.catalog.BalancedMixes[crop]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// CostConstants returns the cost model rates.
func (s *Service) CostConstants() CostConstants { return s.catalog.Costs }

// RiskWeights returns the composite risk weights.
func (s *Service) RiskWeights() RiskWeights { return s.catalog.RiskWeights }

// Simulation returns the scenario and Monte Carlo parameters.
func (s *Service) Simulation() SimulationParams { return s.catalog.Simulation }

// HistoricalYieldTrend returns recorded yields for the crop, oldest first.
func (s *Service) HistoricalYieldTrend(crop string) []YieldPoint {
	return s.history.YieldTrend(crop)
}

// RecentPrices returns up to days most recent price records, oldest first.
func (s *Service) RecentPrices(commodity string, days int) []PricePoint {
	return s.history.RecentPrices(commodity, days)
}

// RecentModalPrices returns the modal price series the forecaster fits on.
func (s *Service) RecentModalPrices(commodity string, days int) []float64 {
	return ModalPrices(s.RecentPrices(commodity, days))
}

// PriceStatistics summarizes the history window of modal prices, falling
// back to fixed defaults when there is not enough data.
func (s *Service) PriceStatistics(commodity string) PriceStats {
	modal := s.RecentModalPrices(commodity, s.catalog.Simulation.HistoryWindowDays)
	return computePriceStats(modal, s.catalog.DefaultPriceStats)
}
