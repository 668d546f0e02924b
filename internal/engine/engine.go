// Package engine runs farming scenarios end to end: yield, cost, price
// forecast, profit and risk for one plan, the current/optimal/worst-case
// comparison, and a Monte Carlo spread over perturbed inputs.
package engine

import (
	"fmt"
	"runtime"
	"time"

	"github.com/talgya/agrisim/internal/cost"
	"github.com/talgya/agrisim/internal/entropy"
	"github.com/talgya/agrisim/internal/farm"
	"github.com/talgya/agrisim/internal/market"
	"github.com/talgya/agrisim/internal/refdata"
	"github.com/talgya/agrisim/internal/risk"
	"github.com/talgya/agrisim/internal/yield"
)

// Reference is everything the engine and its models read from reference data.
type Reference interface {
	yield.Reference
	cost.Reference
	risk.Reference
	market.PriceHistory
	MixSource
	PriceStatistics(commodity string) refdata.PriceStats
	Simulation() refdata.SimulationParams
}

// Kind names a scenario.
type Kind string

const (
	KindCurrent Kind = "current"
	KindOptimal Kind = "optimal"
	KindWorst   Kind = "worst"
	KindTrial   Kind = "micro"
)

// ScenarioResult is the full outcome of simulating one plan.
type ScenarioResult struct {
	Kind              Kind            `json:"scenario_type"`
	Strategy          string          `json:"strategy"`
	Yield             yield.Estimate  `json:"yield"`
	Cost              cost.Breakdown  `json:"costs"`
	Forecast          market.Forecast `json:"price_forecast"`
	SaleDay           int             `json:"sale_day"`
	ExpectedSalePrice float64         `json:"expected_selling_price"`
	Revenue           float64         `json:"revenue"`
	Profit            float64         `json:"profit"`
	ROIPercent        float64         `json:"roi_percentage"`
	Risk              risk.Assessment `json:"risk"`
	Plan              farm.Plan       `json:"parameters_used"`
}

// Options tune an Engine. The zero value is usable.
type Options struct {
	// Workers bounds Monte Carlo parallelism. Zero means GOMAXPROCS.
	Workers int
	// SharedTrialMarket makes every trial sell on the run's named-scenario
	// price path (common random numbers) instead of its own.
	SharedTrialMarket bool
	// Strategies overrides the optimal/worst transforms.
	Strategies *Strategies
	// Clock stamps forecast dates. Nil means time.Now.
	Clock func() time.Time
}

// Engine wires the four models together. Safe for concurrent use: it holds
// only immutable references.
type Engine struct {
	ref        Reference
	yield      *yield.Estimator
	cost       *cost.Calculator
	risk       *risk.Engine
	forecaster *market.Forecaster
	strategies Strategies
	params     refdata.SimulationParams
	workers    int
	sharedMkt  bool
}

// New builds an engine over the reference data.
func New(ref Reference, opts Options) *Engine {
	params := ref.Simulation()

	forecaster := market.NewForecaster(ref, params.HistoryWindowDays)
	if opts.Clock != nil {
		forecaster = forecaster.WithClock(opts.Clock)
	}
	strategies := DefaultStrategies(ref, params.FavorableSaleMonth)
	if opts.Strategies != nil {
		strategies = *opts.Strategies
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Engine{
		ref:        ref,
		yield:      yield.NewEstimator(ref),
		cost:       cost.NewCalculator(ref),
		risk:       risk.NewEngine(ref),
		forecaster: forecaster,
		strategies: strategies,
		params:     params,
		workers:    workers,
		sharedMkt:  opts.SharedTrialMarket,
	}
}

// Forecaster exposes the engine's price forecaster.
func (e *Engine) Forecaster() *market.Forecaster { return e.forecaster }

// Params returns the simulation parameters in effect.
func (e *Engine) Params() refdata.SimulationParams { return e.params }

// Simulate runs the single-scenario pipeline on an unmodified plan. A zero
// seed draws a fresh one.
func (e *Engine) Simulate(p farm.Plan, seed int64) (ScenarioResult, error) {
	if seed == 0 {
		seed = entropy.NewSeed()
	}
	r := e.newRun(p.Crop, seed)
	return e.evaluate(r, KindCurrent, Current{}.Name(), p.Clone(), r.marketSeed)
}

// run holds what every scenario of one request shares.
type run struct {
	seed       int64
	marketSeed int64
	model      market.Model
	prices     refdata.PriceStats
}

func (e *Engine) newRun(crop string, seed int64) run {
	return run{
		seed:       seed,
		marketSeed: entropy.Derive(seed, entropy.StreamMarket, 0),
		model:      e.forecaster.Fit(crop),
		prices:     e.ref.PriceStatistics(crop),
	}
}

// SaleDay converts months after harvest into a forecast day index.
func (e *Engine) SaleDay(saleMonth int) int {
	return min(e.params.ForecastHorizonDays-1, saleMonth*e.params.DaysPerSaleMonth)
}

// evaluate is the single-scenario pipeline: yield → cost → forecast →
// revenue/profit/ROI → risk. Any model error aborts the scenario.
func (e *Engine) evaluate(r run, kind Kind, strategy string, p farm.Plan, marketSeed int64) (ScenarioResult, error) {
	est, err := e.yield.Estimate(p)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("%s scenario: %w", kind, err)
	}
	costs, err := e.cost.Calculate(p, est.TotalProductionQuintals)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("%s scenario: %w", kind, err)
	}
	fc, err := e.forecaster.ForecastWith(r.model, p.Crop, p.CurrentPrice, e.params.ForecastHorizonDays, marketSeed)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("%s scenario: %w", kind, err)
	}

	saleDay := e.SaleDay(p.SaleMonth)
	price := fc.PriceAt(saleDay)
	revenue := est.TotalProductionQuintals * price
	profit := revenue - costs.Total
	roi := 0.0
	if costs.Total > 0 {
		roi = profit / costs.Total * 100
	}

	assessment, err := e.risk.Score(p, r.prices, est.Confidence)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("%s scenario: %w", kind, err)
	}

	return ScenarioResult{
		Kind:              kind,
		Strategy:          strategy,
		Yield:             est,
		Cost:              costs,
		Forecast:          fc,
		SaleDay:           saleDay,
		ExpectedSalePrice: farm.RoundMoney(price),
		Revenue:           farm.RoundMoney(revenue),
		Profit:            farm.RoundMoney(profit),
		ROIPercent:        farm.Round(roi, 2),
		Risk:              assessment,
		Plan:              p,
	}, nil
}
