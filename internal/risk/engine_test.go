package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/agrisim/internal/farm"
	"github.com/talgya/agrisim/internal/refdata"
)

func wheatPlan() farm.Plan {
	return farm.Plan{
		Crop:                 "Wheat",
		SoilType:             "Alluvial",
		AreaHectares:         1,
		SeedQuality:          0.8,
		RainfallMM:           500,
		IrrigationFrequency:  4,
		Fertilizer:           farm.FertilizerMix{"Urea": 120, "DAP": 60},
		PestProbability:      0.1,
		LabourDays:           30,
		PestControlIntensity: 0.5,
		SaleMonth:            2,
		CurrentPrice:         2000,
		SeedQuantityKg:       50,
	}
}

func newEngine() *Engine {
	return NewEngine(refdata.NewService(nil, nil))
}

func TestWheatAlluvialScore(t *testing.T) {
	ps := refdata.PriceStats{Mean: 2000, Std: 500, Volatility: 0.25}
	a, err := newEngine().Score(wheatPlan(), ps, 0.9)
	require.NoError(t, err)

	assert.Equal(t, 40.0, a.Components.Weather)
	assert.Equal(t, 60.0, a.Components.Price)
	assert.InDelta(t, 10.0, a.Components.Pest, 1e-12)
	assert.InDelta(t, 10.0, a.Components.Soil, 1e-12)
	assert.InDelta(t, 1.0, a.ConfidencePenalty, 1e-12)

	want := 40*0.30 + 60*0.25 + 10*0.25 + 10*0.20 + 1.0
	assert.InDelta(t, want, a.Overall, 1e-9)
	assert.Equal(t, CategoryModerate, a.Category)
	assert.Contains(t, Categories, a.Category)
	assert.Len(t, a.Insights, 4)
}

func TestOverallStaysInRange(t *testing.T) {
	e := newEngine()
	for _, rain := range []float64{0, 700, 5000} {
		for _, delay := range []int{0, 100} {
			for _, pest := range []float64{0, 1} {
				for _, conf := range []float64{0, 0.4, 0.95, 2} {
					p := wheatPlan()
					p.RainfallMM, p.RainfallDelayDays, p.PestProbability = rain, delay, pest
					p.SoilType = "Desert"

					a, err := e.Score(p, refdata.PriceStats{Volatility: math.NaN()}, conf)
					require.NoError(t, err)
					assert.GreaterOrEqual(t, a.Overall, 0.0)
					assert.LessOrEqual(t, a.Overall, 100.0)
					assert.Contains(t, Categories, a.Category)
				}
			}
		}
	}
}

func TestSoilRiskIgnoresSoilOnlyDefaults(t *testing.T) {
	p := wheatPlan()
	p.Crop = "Barley"
	p.SoilType = "Desert"

	a, err := newEngine().Score(p, refdata.PriceStats{Volatility: 0.1}, 0.9)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, a.Components.Soil, 1e-9, "unknown crop uses compatibility 0.7")
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, CategoryLow, Categorize(24.99))
	assert.Equal(t, CategoryModerate, Categorize(25))
	assert.Equal(t, CategoryHigh, Categorize(50))
	assert.Equal(t, CategoryVeryHigh, Categorize(70))
}

func TestPriceRiskBands(t *testing.T) {
	assert.Equal(t, 20.0, PriceRisk(0.1))
	assert.Equal(t, 40.0, PriceRisk(0.15))
	assert.Equal(t, 60.0, PriceRisk(0.3))
	assert.Equal(t, 80.0, PriceRisk(0.35))
}

func TestInsightBands(t *testing.T) {
	in := Insights(Components{Weather: 80, Price: 50, Pest: 31, Soil: 10})

	require.Len(t, in, 4)
	assert.Equal(t, Insight{Component: "weather", Level: "high",
		Message: "High weather uncertainty due to inadequate or excess rainfall patterns"}, in[0])
	assert.Equal(t, "moderate", in[1].Level)
	assert.Equal(t, "moderate", in[2].Level, "pest moderate band starts above 30")
	assert.Equal(t, "low", in[3].Level)
	assert.Equal(t, "Excellent soil compatibility for this crop", in[3].Message)
}
