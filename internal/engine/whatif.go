package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/agrisim/internal/entropy"
	"github.com/talgya/agrisim/internal/farm"
)

// ErrInvalidTrialCount is returned when a run asks for no trials.
var ErrInvalidTrialCount = errors.New("trial count must be positive")

// Request is one What-If run.
type Request struct {
	ID     uuid.UUID // Nil draws a fresh ID
	Seed   int64     // zero derives the seed from ID
	Plan   farm.Plan
	Trials int
}

// Summary is the complete What-If result. It is never returned partially
// filled: any failure aborts the run.
type Summary struct {
	RequestID      uuid.UUID      `json:"request_id"`
	Seed           int64          `json:"seed"`
	Current        ScenarioResult `json:"current_plan"`
	Optimal        ScenarioResult `json:"ai_optimal_plan"`
	Worst          ScenarioResult `json:"worst_case_plan"`
	MonteCarlo     MonteCarlo     `json:"micro_simulations_summary"`
	Recommendation Recommendation `json:"recommendation"`
}

// RunWhatIf compares the current plan against the optimal and worst-case
// transforms and runs req.Trials perturbed micro-simulations.
func (e *Engine) RunWhatIf(ctx context.Context, req Request) (*Summary, error) {
	if req.Trials <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTrialCount, req.Trials)
	}
	if err := req.Plan.Validate(); err != nil {
		return nil, err
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	start := time.Now()
	seed := entropy.Resolve(req.Seed, req.ID)
	r := e.newRun(req.Plan.Crop, seed)

	sum := &Summary{RequestID: req.ID, Seed: seed}
	var err error
	if sum.Current, err = e.scenario(r, KindCurrent, e.strategies.Current, req.Plan); err != nil {
		return nil, err
	}
	if sum.Optimal, err = e.scenario(r, KindOptimal, e.strategies.Optimal, req.Plan); err != nil {
		return nil, err
	}
	if sum.Worst, err = e.scenario(r, KindWorst, e.strategies.Worst, req.Plan); err != nil {
		return nil, err
	}

	mc, err := e.monteCarlo(ctx, r, req.Plan, req.Trials)
	if err != nil {
		return nil, fmt.Errorf("monte carlo: %w", err)
	}
	sum.MonteCarlo = mc

	rec, err := Recommend(sum.Current, sum.Optimal)
	if err != nil {
		return nil, err
	}
	sum.Recommendation = rec

	slog.Info("what-if complete",
		"request_id", req.ID,
		"crop", req.Plan.Crop,
		"seed", seed,
		"trials", req.Trials,
		"workers", e.workers,
		"current_profit", sum.Current.Profit,
		"optimal_profit", sum.Optimal.Profit,
		"prob_profit", fmt.Sprintf("%.1f", mc.ProbabilityOfProfit),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return sum, nil
}

func (e *Engine) scenario(r run, kind Kind, s Strategy, base farm.Plan) (ScenarioResult, error) {
	return e.evaluate(r, kind, s.Name(), s.Apply(base), r.marketSeed)
}
