package refdata

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYieldCompatibilityChainOrder(t *testing.T) {
	svc := NewService(nil, nil)

	assert.Equal(t,
		[]string{SourceCropSoilTable, SourceSoilDefaults, SourceFallback},
		svc.yieldCompat.Order())

	v, src := svc.YieldCompatibility("Wheat", "Alluvial")
	assert.Equal(t, 0.9, v)
	assert.Equal(t, SourceCropSoilTable, src)

	v, src = svc.YieldCompatibility("Barley", "Black")
	assert.Equal(t, 0.75, v, "unknown crop uses the soil-only table")
	assert.Equal(t, SourceSoilDefaults, src)

	v, src = svc.YieldCompatibility("Barley", "Peat")
	assert.Equal(t, 0.7, v)
	assert.Equal(t, SourceFallback, src)
}

func TestRiskCompatibilitySkipsSoilDefaults(t *testing.T) {
	svc := NewService(nil, nil)

	assert.Equal(t, []string{SourceCropSoilTable, SourceFallback}, svc.riskCompat.Order())

	v, src := svc.RiskCompatibility("Barley", "Desert")
	assert.Equal(t, 0.7, v, "soil-only table would have said 0.4")
	assert.Equal(t, SourceFallback, src)
}

func TestChainResolvesInOrder(t *testing.T) {
	var calls []string
	link := func(name string, v float64, ok bool) Link[string] {
		return Link[string]{Name: name, Lookup: func(string) (float64, bool) {
			calls = append(calls, name)
			return v, ok
		}}
	}
	c := Chain[string]{
		Name:     "test",
		Links:    []Link[string]{link("a", 1, false), link("b", 2, true), link("c", 3, true)},
		Fallback: 9,
	}

	v, src := c.Resolve("k")
	assert.Equal(t, 2.0, v)
	assert.Equal(t, "b", src)
	assert.Equal(t, []string{"a", "b"}, calls, "links after the first hit are never consulted")
}

func TestBaseYieldPrefersHistory(t *testing.T) {
	h := NewHistory([]YieldPoint{
		{Crop: "Wheat", Season: SeasonTotal, Year: 2020, YieldKgHa: 3300},
		{Crop: "Wheat", Season: SeasonTotal, Year: 2022, YieldKgHa: 3450},
		{Crop: "Wheat", Season: "Rabi", Year: 2023, YieldKgHa: 9999},
	}, nil)
	svc := NewService(nil, h)

	v, src := svc.BaseYield("Wheat")
	assert.Equal(t, 3450.0, v)
	assert.Equal(t, SourceHistory, src)

	v, src = svc.BaseYield("Rice")
	assert.Equal(t, 2899.0, v)
	assert.Equal(t, SourceDefaultYields, src)

	v, src = svc.BaseYield("Quinoa")
	assert.Equal(t, 2000.0, v)
	assert.Equal(t, SourceFallback, src)
	assert.Equal(t, 2000.0, svc.DefaultYield("Quinoa"))
}

func TestPriceStatisticsDefaultsWithoutHistory(t *testing.T) {
	svc := NewService(nil, nil)

	ps := svc.PriceStatistics("Wheat")
	assert.Equal(t, PriceStats{Mean: 2000, Std: 500, Min: 1000, Max: 5000, Volatility: 0.25}, ps)
	assert.Empty(t, svc.RecentModalPrices("Wheat", 60))
	assert.Empty(t, svc.HistoricalYieldTrend("Wheat"))
	assert.False(t, svc.HasHistory())
}

func TestRecentPricesMatchAndOrder(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	h := NewHistory(nil, []PricePoint{
		{Commodity: "Wheat", ArrivalDate: day(3), ModalPrice: 2100},
		{Commodity: "Rice", ArrivalDate: day(2), ModalPrice: 3000},
		{Commodity: "wheat (dara)", ArrivalDate: day(1), ModalPrice: 2000},
		{Commodity: "Wheat", ArrivalDate: day(4), ModalPrice: 2200},
	})
	svc := NewService(nil, h)

	got := svc.RecentModalPrices("WHEAT", 2)
	assert.Equal(t, []float64{2100, 2200}, got, "two most recent, oldest first")

	all := svc.RecentModalPrices("wheat", 10)
	assert.Equal(t, []float64{2000, 2100, 2200}, all)

	ps := svc.PriceStatistics("Wheat")
	assert.InDelta(t, 2100, ps.Mean, 1e-9)
	assert.InDelta(t, 100, ps.Std, 1e-9, "sample standard deviation")
	assert.InDelta(t, 100.0/2100.0, ps.Volatility, 1e-12)
	assert.Equal(t, 2000.0, ps.Min)
	assert.Equal(t, 2200.0, ps.Max)
}

func TestBalancedMixIsACopy(t *testing.T) {
	svc := NewService(nil, nil)

	m, ok := svc.BalancedMix("Wheat")
	require.True(t, ok)
	m["Urea"] = 1

	again, _ := svc.BalancedMix("Wheat")
	assert.Equal(t, 180.0, again["Urea"])

	_, ok = svc.BalancedMix("Onion")
	assert.False(t, ok)
}

func TestStoreRoundTrip(t *testing.T) {
	st, err := OpenStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer st.Close()

	h, err := st.LoadHistory()
	assert.ErrorIs(t, err, ErrNoHistory)
	assert.True(t, h.Empty())

	yields, prices := Synthesize(DefaultCatalog(), SynthConfig{
		Seed:      7,
		Crops:     []string{"Wheat", "Rice"},
		Years:     5,
		PriceDays: 30,
		End:       time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, st.SaveYields(yields))
	require.NoError(t, st.SavePrices(prices))

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h, err = st.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, logs.String(), "startup reports the load once, from the caller")

	ny, np := h.Counts()
	assert.Equal(t, 10, ny)
	assert.Equal(t, 60, np)

	trend := h.YieldTrend("Wheat")
	require.Len(t, trend, 5)
	assert.Equal(t, 2019, trend[0].Year)
	assert.Equal(t, 2023, trend[4].Year)

	recent := h.RecentPrices("Rice", 30)
	require.Len(t, recent, 30)
	assert.Equal(t, "2024-06-30", recent[29].ArrivalDate.Format(DateLayout))
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	cfg := SynthConfig{Seed: 11, Crops: []string{"Maize"}, Years: 4, PriceDays: 20,
		End: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

	y1, p1 := Synthesize(DefaultCatalog(), cfg)
	y2, p2 := Synthesize(DefaultCatalog(), cfg)

	assert.Equal(t, y1, y2)
	assert.Equal(t, p1, p2)
	for _, y := range y1 {
		assert.InDelta(t, 3518, y.YieldKgHa, 3518*0.16)
	}
	for _, p := range p1 {
		assert.Positive(t, p.ModalPrice)
		assert.LessOrEqual(t, p.MinPrice, p.ModalPrice)
		assert.GreaterOrEqual(t, p.MaxPrice, p.ModalPrice)
	}
}

func TestApplyOverlay(t *testing.T) {
	c := DefaultCatalog()
	err := ApplyOverlay(c, []byte(`
risk_weights:
  weather_uncertainty: 0.4
  price_volatility: 0.2
  pest_severity: 0.2
  soil_mismatch: 0.2
default_yields:
  Quinoa: 1500
`))
	require.NoError(t, err)

	assert.Equal(t, 0.4, c.RiskWeights.Weather)
	assert.Equal(t, 1500.0, c.DefaultYields["Quinoa"])
	assert.Equal(t, 3587.0, c.DefaultYields["Wheat"], "keys absent from the overlay are kept")
	assert.Equal(t, 25.0, c.Costs.SeedCostPerKg("Wheat"))
	assert.Equal(t, 50.0, c.Costs.SeedCostPerKg("Onion"))
}

func TestApplyOverlayRejectsBadTables(t *testing.T) {
	err := ApplyOverlay(DefaultCatalog(), []byte(`
npk_targets:
  Wheat: {n: 0, p: 60, k: 40}
`))
	assert.Error(t, err)

	err = ApplyOverlay(DefaultCatalog(), []byte("crops: [unterminated"))
	assert.Error(t, err)
}

func TestLoadCatalogWithoutPath(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, c.Crops, 20)
	assert.NoError(t, c.Validate())
}

func TestApplyOverlayRejectsOutOfRangeSimulationParams(t *testing.T) {
	cases := map[string]string{
		"rainfall variance above 1":  "simulation: {rainfall_variance: 1.5}",
		"price variance of 1":        "simulation: {price_variance: 1}",
		"negative fertilizer spread": "simulation: {fertilizer_variance: -0.1}",
		"pest max above 1":           "simulation: {pest_prob_max: 1.2}",
		"pest range inverted":        "simulation: {pest_prob_min: 0.5, pest_prob_max: 0.2}",
		"negative pest min":          "simulation: {pest_prob_min: -0.1}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ApplyOverlay(DefaultCatalog(), []byte(doc)))
		})
	}

	c := DefaultCatalog()
	require.NoError(t, ApplyOverlay(c, []byte("simulation: {price_variance: 0.3, pest_prob_min: 0.1, pest_prob_max: 1}")))
	assert.Equal(t, 0.3, c.Simulation.PriceVariance)
	assert.Equal(t, 0.2, c.Simulation.RainfallVariance, "unset keys keep their defaults")
}
