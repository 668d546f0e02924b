// Package refdata is the read-only reference data service: crop and soil
// enumerations, agronomic tables, cost constants, risk weights and the
// optional historical yield/price records. Every lookup has a documented
// default, so a missing record degrades the answer instead of failing it.
package refdata

import "github.com/talgya/agrisim/internal/farm"

// Fertilizer is the nutrient content (percent by mass) and unit cost of one source.
type Fertilizer struct {
	N         float64 `yaml:"n" json:"n"`
	P         float64 `yaml:"p" json:"p"`
	K         float64 `yaml:"k" json:"k"`
	CostPerKg float64 `yaml:"cost_per_kg" json:"cost_per_kg"`
}

// NPK is a nitrogen/phosphorus/potassium triple in kg per hectare.
type NPK struct {
	N float64 `yaml:"n" json:"n"`
	P float64 `yaml:"p" json:"p"`
	K float64 `yaml:"k" json:"k"`
}

// RainfallRange is the optimal seasonal rainfall interval for a crop, in mm.
type RainfallRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// CostConstants are the ₹ rates used by the cost model.
type CostConstants struct {
	SeedPerKg            map[string]float64 `yaml:"seed_cost_per_kg"`
	DefaultSeedPerKg     float64            `yaml:"default_seed_cost_per_kg"`
	IrrigationPerMM      float64            `yaml:"irrigation_cost_per_mm"` // per hectare per mm of water
	WaterPerIrrigationMM float64            `yaml:"water_per_irrigation_mm"`
	HighRainfallMM       float64            `yaml:"high_rainfall_mm"`
	HighRainfallDiscount float64            `yaml:"high_rainfall_discount"`
	LabourPerDay         float64            `yaml:"labour_cost_per_day"`
	PestControlBase      float64            `yaml:"pesticide_cost_base"` // per hectare
	LandPreparationPerHa float64            `yaml:"land_preparation_per_ha"`
	HarvestingPerHa      float64            `yaml:"harvesting_per_ha"`
	MarketFeePercent     float64            `yaml:"market_fee_percent"`
	MarketReferencePrice float64            `yaml:"market_reference_price"` // ₹ per quintal the fee is levied on
	LogisticsPerQuintal  float64            `yaml:"logistics_cost_per_quintal"`
	MiscellaneousRate    float64            `yaml:"miscellaneous_rate"`
}

// SeedCostPerKg returns the crop's seed price, or the default rate.
func (c CostConstants) SeedCostPerKg(crop string) float64 {
	if v, ok := c.SeedPerKg[crop]; ok {
		return v
	}
	return c.DefaultSeedPerKg
}

// RiskWeights weight the four risk components into the composite score.
type RiskWeights struct {
	Weather float64 `yaml:"weather_uncertainty" json:"weather_uncertainty"`
	Price   float64 `yaml:"price_volatility" json:"price_volatility"`
	Pest    float64 `yaml:"pest_severity" json:"pest_severity"`
	Soil    float64 `yaml:"soil_mismatch" json:"soil_mismatch"`
}

// SimulationParams configure scenario transforms and Monte Carlo trials.
type SimulationParams struct {
	DefaultTrials       int     `yaml:"num_simulations"`
	MinTrials           int     `yaml:"min_simulations"`
	MaxTrials           int     `yaml:"max_simulations"`
	RecommendTrials     int     `yaml:"recommend_simulations"`
	RainfallVariance    float64 `yaml:"rainfall_variance"`
	PestProbMin         float64 `yaml:"pest_prob_min"`
	PestProbMax         float64 `yaml:"pest_prob_max"`
	FertilizerVariance  float64 `yaml:"fertilizer_variance"`
	PriceVariance       float64 `yaml:"price_variance"`
	FavorableSaleMonth  int     `yaml:"favorable_sale_month"`
	ForecastHorizonDays int     `yaml:"forecast_horizon_days"`
	DaysPerSaleMonth    int     `yaml:"days_per_sale_month"`
	HistoryWindowDays   int     `yaml:"history_window_days"`
}

// Catalog holds every static table. Treat it as immutable once handed to a Service.
type Catalog struct {
	Crops     []string `yaml:"crops"`
	SoilTypes []string `yaml:"soil_types"`
	Seasons   []string `yaml:"seasons"`

	Compatibility         map[string]map[string]float64 `yaml:"crop_soil_compatibility"`
	SoilDefaults          map[string]float64            `yaml:"soil_defaults"`
	FallbackCompatibility float64                       `yaml:"fallback_compatibility"`

	DefaultYields map[string]float64 `yaml:"default_yields"` // kg per hectare
	FallbackYield float64            `yaml:"fallback_yield"`

	Fertilizers     map[string]Fertilizer         `yaml:"fertilizers"`
	NPKTargets      map[string]NPK                `yaml:"npk_targets"`
	DefaultNPK      NPK                           `yaml:"default_npk_target"`
	BalancedMixes   map[string]farm.FertilizerMix `yaml:"balanced_mixes"`
	OptimalRainfall map[string]RainfallRange      `yaml:"optimal_rainfall"`
	DefaultRainfall RainfallRange                 `yaml:"default_optimal_rainfall"`

	Costs             CostConstants    `yaml:"costs"`
	RiskWeights       RiskWeights      `yaml:"risk_weights"`
	Simulation        SimulationParams `yaml:"simulation"`
	DefaultPriceStats PriceStats       `yaml:"default_price_stats"`
}

// DefaultCatalog returns the built-in tables.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Crops: []string{
			"Rice", "Wheat", "Maize", "Barley", "Bajra", "Jowar", "Ragi",
			"Tur", "Gram", "Urad", "Moong", "Lentil", "Cotton", "Sugarcane",
			"Groundnut", "Soybean", "Sunflower", "Potato", "Onion", "Tomato",
		},
		SoilTypes: []string{
			"Alluvial", "Black", "Red", "Laterite", "Desert", "Mountain", "Clay", "Sandy",
		},
		Seasons: []string{"Kharif", "Rabi", "Summer"},

		Compatibility: map[string]map[string]float64{
			"Rice":      {"Alluvial": 0.95, "Black": 0.7, "Red": 0.6, "Laterite": 0.5, "Desert": 0.2, "Mountain": 0.4, "Clay": 0.9, "Sandy": 0.3},
			"Wheat":     {"Alluvial": 0.9, "Black": 0.85, "Red": 0.7, "Laterite": 0.5, "Desert": 0.3, "Mountain": 0.6, "Clay": 0.8, "Sandy": 0.4},
			"Maize":     {"Alluvial": 0.85, "Black": 0.9, "Red": 0.8, "Laterite": 0.6, "Desert": 0.4, "Mountain": 0.7, "Clay": 0.75, "Sandy": 0.5},
			"Cotton":    {"Alluvial": 0.8, "Black": 0.95, "Red": 0.75, "Laterite": 0.6, "Desert": 0.5, "Mountain": 0.5, "Clay": 0.85, "Sandy": 0.6},
			"Sugarcane": {"Alluvial": 0.9, "Black": 0.85, "Red": 0.7, "Laterite": 0.6, "Desert": 0.3, "Mountain": 0.5, "Clay": 0.8, "Sandy": 0.4},
		},
		SoilDefaults: map[string]float64{
			"Alluvial": 0.8, "Black": 0.75, "Red": 0.7, "Laterite": 0.6,
			"Desert": 0.4, "Mountain": 0.6, "Clay": 0.75, "Sandy": 0.5,
		},
		FallbackCompatibility: 0.7,

		DefaultYields: map[string]float64{
			"Rice": 2899, "Wheat": 3587, "Maize": 3518, "Barley": 3049,
			"Bajra": 1507, "Jowar": 1225, "Ragi": 1492, "Tur": 823,
			"Gram": 1180, "Urad": 697, "Moong": 685, "Lentil": 1038,
			"Cotton": 500, "Sugarcane": 75000, "Groundnut": 1800,
			"Soybean": 1200, "Sunflower": 800, "Potato": 22000,
			"Onion": 18000, "Tomato": 25000,
		},
		FallbackYield: 2000,

		Fertilizers: map[string]Fertilizer{
			"Urea":    {N: 46, P: 0, K: 0, CostPerKg: 6},
			"DAP":     {N: 18, P: 46, K: 0, CostPerKg: 27},
			"MOP":     {N: 0, P: 0, K: 60, CostPerKg: 17},
			"NPK":     {N: 12, P: 32, K: 16, CostPerKg: 22},
			"Organic": {N: 5, P: 3, K: 2, CostPerKg: 8},
		},
		NPKTargets: map[string]NPK{
			"Rice":   {N: 80, P: 40, K: 40},
			"Wheat":  {N: 120, P: 60, K: 40},
			"Maize":  {N: 100, P: 50, K: 50},
			"Cotton": {N: 100, P: 50, K: 50},
		},
		DefaultNPK: NPK{N: 80, P: 40, K: 40},
		BalancedMixes: map[string]farm.FertilizerMix{
			"Rice":  {"Urea": 150, "DAP": 80, "MOP": 60},
			"Wheat": {"Urea": 180, "DAP": 100, "MOP": 60},
			"Maize": {"Urea": 160, "DAP": 90, "MOP": 70},
		},
		OptimalRainfall: map[string]RainfallRange{
			"Rice":      {Min: 1000, Max: 1500},
			"Wheat":     {Min: 400, Max: 600},
			"Maize":     {Min: 600, Max: 900},
			"Cotton":    {Min: 600, Max: 1000},
			"Sugarcane": {Min: 1200, Max: 1800},
		},
		DefaultRainfall: RainfallRange{Min: 500, Max: 800},

		Costs: CostConstants{
			SeedPerKg:            map[string]float64{"Rice": 40, "Wheat": 25, "Maize": 35, "Cotton": 800},
			DefaultSeedPerKg:     50,
			IrrigationPerMM:      15,
			WaterPerIrrigationMM: 50,
			HighRainfallMM:       800,
			HighRainfallDiscount: 0.30,
			LabourPerDay:         400,
			PestControlBase:      2500,
			LandPreparationPerHa: 3500,
			HarvestingPerHa:      4000,
			MarketFeePercent:     2.5,
			MarketReferencePrice: 50,
			LogisticsPerQuintal:  50,
			MiscellaneousRate:    0.10,
		},
		RiskWeights: RiskWeights{Weather: 0.30, Price: 0.25, Pest: 0.25, Soil: 0.20},
		Simulation: SimulationParams{
			DefaultTrials:       500,
			MinTrials:           100,
			MaxTrials:           2000,
			RecommendTrials:     300,
			RainfallVariance:    0.20,
			PestProbMin:         0,
			PestProbMax:         0.30,
			FertilizerVariance:  0.15,
			PriceVariance:       0.10,
			FavorableSaleMonth:  2,
			ForecastHorizonDays: 60,
			DaysPerSaleMonth:    15,
			HistoryWindowDays:   180,
		},
		DefaultPriceStats: PriceStats{Mean: 2000, Std: 500, Min: 1000, Max: 5000, Volatility: 0.25},
	}
}
