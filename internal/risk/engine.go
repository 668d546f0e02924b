// Package risk scores a plan's exposure on four independent 0–100 axes
// (weather, price, pest, soil) and combines them into a weighted composite
// with a category and one insight per axis.
package risk

import (
	"fmt"
	"math"

	"github.com/talgya/agrisim/internal/farm"
	"github.com/talgya/agrisim/internal/refdata"
	"github.com/talgya/agrisim/internal/stats"
	"github.com/talgya/agrisim/internal/weather"
)

// Categories of the composite score.
const (
	CategoryLow      = "Low Risk"
	CategoryModerate = "Moderate Risk"
	CategoryHigh     = "High Risk"
	CategoryVeryHigh = "Very High Risk"
)

// Categories lists every label Categorize can return, lowest first.
var Categories = []string{CategoryLow, CategoryModerate, CategoryHigh, CategoryVeryHigh}

// Reference is the slice of the reference data service the engine reads.
type Reference interface {
	RiskWeights() refdata.RiskWeights
	RiskCompatibility(crop, soil string) (float64, string)
}

// Components are the four sub-scores, each in [0,100].
type Components struct {
	Weather float64 `json:"weather_risk"`
	Price   float64 `json:"price_volatility_risk"`
	Pest    float64 `json:"pest_risk"`
	Soil    float64 `json:"soil_mismatch_risk"`
}

// Insight is one human-readable observation about a component.
type Insight struct {
	Component string `json:"component"`
	Level     string `json:"level"` // high, moderate, low
	Message   string `json:"message"`
}

// Assessment is the risk model's output for one plan.
type Assessment struct {
	Overall           float64    `json:"overall_risk_score"`
	Category          string     `json:"risk_category"`
	Components        Components `json:"components"`
	ConfidencePenalty float64    `json:"confidence_penalty"`
	Insights          []Insight  `json:"insights"`
}

// Messages returns the insight sentences in component order.
func (a Assessment) Messages() []string {
	out := make([]string, len(a.Insights))
	for i, in := range a.Insights {
		out[i] = in.Message
	}
	return out
}

// Engine scores plans. Stateless and safe for concurrent use.
type Engine struct {
	ref Reference
}

// NewEngine creates a risk engine over the given reference data.
func NewEngine(ref Reference) *Engine {
	return &Engine{ref: ref}
}

// Score assesses the plan given the commodity's price statistics and the
// yield model's confidence.
func (e *Engine) Score(p farm.Plan, ps refdata.PriceStats, confidence float64) (Assessment, error) {
	if err := p.Validate(); err != nil {
		return Assessment{}, fmt.Errorf("score risk: %w", err)
	}

	compat, _ := e.ref.RiskCompatibility(p.Crop, p.SoilType)
	c := Components{
		Weather: weather.Assess(p.RainfallMM, p.RainfallDelayDays).Risk(),
		Price:   PriceRisk(ps.Volatility),
		Pest:    p.PestProbability * 100,
		Soil:    (1 - compat) * 100,
	}

	w := e.ref.RiskWeights()
	penalty := (1 - stats.Clamp(confidence, 0, 1)) * 10
	overall := c.Weather*w.Weather + c.Price*w.Price + c.Pest*w.Pest + c.Soil*w.Soil + penalty
	overall = stats.Clamp(overall, 0, 100)

	return Assessment{
		Overall:           overall,
		Category:          Categorize(overall),
		Components:        c,
		ConfidencePenalty: penalty,
		Insights:          Insights(c),
	}, nil
}

// PriceRisk bands price volatility. Non-finite volatility is treated as the
// worst band.
func PriceRisk(volatility float64) float64 {
	switch {
	case math.IsNaN(volatility):
		return 80
	case volatility < 0.15:
		return 20
	case volatility < 0.25:
		return 40
	case volatility < 0.35:
		return 60
	default:
		return 80
	}
}

// Categorize maps a composite score onto its label.
func Categorize(score float64) string {
	switch {
	case score < 25:
		return CategoryLow
	case score < 50:
		return CategoryModerate
	case score < 70:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}

type band struct {
	high, moderate float64
	messages       [3]string // high, moderate, low
}

var insightBands = []struct {
	component string
	score     func(Components) float64
	band
}{
	{"weather", func(c Components) float64 { return c.Weather }, band{60, 40, [3]string{
		"High weather uncertainty due to inadequate or excess rainfall patterns",
		"Moderate weather risk - consider contingency irrigation plans",
		"Weather conditions appear favorable",
	}}},
	{"price", func(c Components) float64 { return c.Price }, band{60, 40, [3]string{
		"High market price volatility detected - timing of sale is critical",
		"Moderate price fluctuations expected in market",
		"Stable market prices expected",
	}}},
	{"pest", func(c Components) float64 { return c.Pest }, band{60, 30, [3]string{
		"Significant pest threat - invest in preventive pest management",
		"Moderate pest risk - monitor crop health regularly",
		"Low pest risk for this season",
	}}},
	{"soil", func(c Components) float64 { return c.Soil }, band{60, 40, [3]string{
		"Soil compatibility is poor - consider alternative crops or soil amendments",
		"Soil is moderately suitable - optimize fertilizer usage",
		"Excellent soil compatibility for this crop",
	}}},
}

// Insights produces one sentence per component from its threshold band.
func Insights(c Components) []Insight {
	out := make([]Insight, 0, len(insightBands))
	for _, b := range insightBands {
		s := b.score(c)
		var in Insight
		switch {
		case s > b.high:
			in = Insight{Level: "high", Message: b.messages[0]}
		case s > b.moderate:
			in = Insight{Level: "moderate", Message: b.messages[1]}
		default:
			in = Insight{Level: "low", Message: b.messages[2]}
		}
		in.Component = b.component
		out = append(out, in)
	}
	return out
}
