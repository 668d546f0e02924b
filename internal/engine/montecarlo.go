package engine

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/agrisim/internal/entropy"
	"github.com/talgya/agrisim/internal/farm"
	"github.com/talgya/agrisim/internal/stats"
)

// Perturbation is the set of random draws applied to one trial's plan.
type Perturbation struct {
	RainfallFactor   float64 `json:"rainfall_factor"`
	PestProbability  float64 `json:"pest_probability"`
	FertilizerFactor float64 `json:"fertilizer_factor"`
	PriceFactor      float64 `json:"price_factor"`
}

// Trial is one micro-simulation's outcome.
type Trial struct {
	Index           int          `json:"index"`
	Draws           Perturbation `json:"draws"`
	Profit          float64      `json:"profit"`
	YieldPerHectare float64      `json:"yield_per_hectare"`
	RiskScore       float64      `json:"risk_score"`
}

// Distribution summarizes one output across trials.
type Distribution struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	StdErr float64 `json:"std_error"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ProfitDistribution adds the interquartile points.
type ProfitDistribution struct {
	Distribution
	P25 float64 `json:"percentile_25"`
	P75 float64 `json:"percentile_75"`
}

// MonteCarlo is the aggregate of every trial in a run.
type MonteCarlo struct {
	Trials              int                `json:"num_simulations"`
	SharedMarketPath    bool               `json:"shared_market_path"`
	Profit              ProfitDistribution `json:"profit_stats"`
	Yield               Distribution       `json:"yield_stats"`
	Risk                Distribution       `json:"risk_stats"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"` // percent
	Samples             []Trial            `json:"-"`
}

// Perturb draws one trial's variation. Draw order is fixed so a trial seed
// always produces the same plan.
func (e *Engine) Perturb(rng *rand.Rand) Perturbation {
	sp := e.params
	return Perturbation{
		RainfallFactor:   1 + uniform(rng, -sp.RainfallVariance, sp.RainfallVariance),
		PestProbability:  uniform(rng, sp.PestProbMin, sp.PestProbMax),
		FertilizerFactor: uniform(rng, 1-sp.FertilizerVariance, 1+sp.FertilizerVariance),
		PriceFactor:      uniform(rng, 1-sp.PriceVariance, 1+sp.PriceVariance),
	}
}

// Apply returns a copy of base with the draws applied.
func (d Perturbation) Apply(base farm.Plan) farm.Plan {
	p := base.Clone()
	p.RainfallMM = base.RainfallMM * d.RainfallFactor
	p.PestProbability = d.PestProbability
	p.Fertilizer = base.Fertilizer.Scale(d.FertilizerFactor)
	p.CurrentPrice = base.CurrentPrice * d.PriceFactor
	return p
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// monteCarlo runs n trials over at most e.workers goroutines. Trial i always
// draws from the seed derived for index i and writes only slot i, so the
// result is identical for any worker count or scheduling.
func (e *Engine) monteCarlo(ctx context.Context, r run, base farm.Plan, n int) (MonteCarlo, error) {
	trials := make([]Trial, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := e.trial(r, base, i)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			trials[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonteCarlo{}, err
	}

	mc := Summarize(trials)
	mc.SharedMarketPath = e.sharedMkt
	return mc, nil
}

func (e *Engine) trial(r run, base farm.Plan, i int) (Trial, error) {
	rng := entropy.New(e.trialSeed(r, i))
	draws := e.Perturb(rng)

	res, err := e.evaluate(r, KindTrial, "perturbed", draws.Apply(base), e.trialMarketSeed(r, i))
	if err != nil {
		return Trial{}, err
	}
	return Trial{
		Index:           i,
		Draws:           draws,
		Profit:          res.Profit,
		YieldPerHectare: res.Yield.YieldPerHectare,
		RiskScore:       res.Risk.Overall,
	}, nil
}

// trialSeed seeds trial i's perturbation draws.
func (e *Engine) trialSeed(r run, i int) int64 {
	return entropy.Derive(r.seed, entropy.StreamTrial, i)
}

// trialMarketSeed seeds trial i's price path: its own stream by default, the
// run's named-scenario path when trials share one market.
func (e *Engine) trialMarketSeed(r run, i int) int64 {
	if e.sharedMkt {
		return r.marketSeed
	}
	return entropy.Derive(r.seed, entropy.StreamTrialMarket, i)
}

// Summarize reduces trials to their distributions. Probability of profit is
// the exact share of trials with profit > 0, in percent.
func Summarize(trials []Trial) MonteCarlo {
	n := len(trials)
	profits := make([]float64, n)
	yields := make([]float64, n)
	risks := make([]float64, n)
	profitable := 0
	for i, t := range trials {
		profits[i] = t.Profit
		yields[i] = t.YieldPerHectare
		risks[i] = t.RiskScore
		if t.Profit > 0 {
			profitable++
		}
	}

	mc := MonteCarlo{
		Trials: n,
		Profit: ProfitDistribution{
			Distribution: describe(profits),
			P25:          farm.RoundMoney(stats.Percentile(profits, 25)),
			P75:          farm.RoundMoney(stats.Percentile(profits, 75)),
		},
		Yield:   describe(yields),
		Risk:    describe(risks),
		Samples: trials,
	}
	if n > 0 {
		mc.ProbabilityOfProfit = float64(profitable) / float64(n) * 100
	}
	return mc
}

func describe(xs []float64) Distribution {
	return Distribution{
		Mean:   farm.Round(stats.Mean(xs), 2),
		Std:    farm.Round(stats.StdDev(xs), 2),
		StdErr: farm.Round(stats.StdErr(xs), 2),
		Min:    farm.Round(stats.Min(xs), 2),
		Max:    farm.Round(stats.Max(xs), 2),
	}
}
