package farm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wheatPlan() Plan {
	return Plan{
		Crop:                 "Wheat",
		SoilType:             "Alluvial",
		AreaHectares:         1,
		SeedQuality:          0.8,
		RainfallMM:           500,
		IrrigationFrequency:  4,
		Fertilizer:           FertilizerMix{"Urea": 120, "DAP": 60},
		PestProbability:      0.1,
		LabourDays:           DefaultLabourDays,
		PestControlIntensity: DefaultPestControlIntensity,
		SaleMonth:            DefaultSaleMonth,
		CurrentPrice:         DefaultCurrentPrice,
		SeedQuantityKg:       DefaultSeedQuantity(1),
	}
}

func TestValidPlanPasses(t *testing.T) {
	assert.NoError(t, wheatPlan().Validate())

	p := wheatPlan()
	p.AreaHectares = 0
	assert.NoError(t, p.Validate(), "zero area is a degenerate plan, not an invalid one")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	p := wheatPlan()
	p.AreaHectares = -1
	p.SeedQuality = 1.5
	p.SaleMonth = 13
	p.CurrentPrice = 0

	err := p.Validate()
	require.ErrorIs(t, err, ErrInvalidPlan)
	assert.Contains(t, err.Error(), "area")
	assert.Contains(t, err.Error(), "seed quality")
	assert.Contains(t, err.Error(), "sale month")
	assert.Contains(t, err.Error(), "current price")
}

func TestFertilizerMixRejectsMalformedEntries(t *testing.T) {
	assert.ErrorIs(t, FertilizerMix{"Urea": -5}.Validate(), ErrInvalidPlan)
	assert.ErrorIs(t, FertilizerMix{"Urea": math.NaN()}.Validate(), ErrInvalidPlan)
	assert.ErrorIs(t, FertilizerMix{"": 10}.Validate(), ErrInvalidPlan)
	assert.NoError(t, FertilizerMix{"Unobtainium": 10}.Validate(), "unknown sources are a lookup miss, not malformed")
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := wheatPlan()
	c := p.Clone()
	c.Fertilizer["Urea"] = 1

	assert.Equal(t, 120.0, p.Fertilizer["Urea"])
}

func TestScaleAndEqual(t *testing.T) {
	m := FertilizerMix{"Urea": 100, "MOP": 50}
	s := m.Scale(0.6)

	assert.Equal(t, FertilizerMix{"Urea": 60, "MOP": 30}, s)
	assert.False(t, m.Equal(s))
	assert.True(t, m.Equal(m.Clone()))
	assert.Nil(t, FertilizerMix(nil).Scale(2))
	assert.Equal(t, []string{"MOP", "Urea"}, m.Sources())
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 0.13, RoundMoney(0.125))
	assert.Equal(t, 1234.57, RoundMoney(1234.5678))
	assert.True(t, math.IsInf(RoundMoney(math.Inf(1)), 1))
}
