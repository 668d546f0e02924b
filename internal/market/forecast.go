// Package market forecasts commodity prices over a short horizon and finds
// the window in which to sell.
//
// The model is a seeded random walk with drift: trend and volatility are
// fitted from recent modal prices when enough exist, and a 30-day ±2%
// sinusoid adds seasonality. The path never drops below half the current
// price. Identical inputs and seed always give the identical path.
package market

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/talgya/agrisim/internal/entropy"
	"github.com/talgya/agrisim/internal/stats"
)

// ErrInvalidForecast is returned for a non-positive price or horizon.
var ErrInvalidForecast = errors.New("invalid forecast request")

// Model constants.
const (
	MinHistoryPoints  = 10
	DefaultTrend      = 0.001
	DefaultVolatility = 0.15
	MinVolatility     = 0.05
	FloorFraction     = 0.5  // of current price
	WindowFraction    = 0.95 // of peak price
	SeasonalAmplitude = 0.02
	SeasonalPeriod    = 30.0 // days
	DefaultWindowDays = 180
)

// Model sources.
const (
	SourceHistory  = "history"
	SourceDefaults = "defaults"
)

// PriceHistory supplies recent modal prices, oldest first.
type PriceHistory interface {
	RecentModalPrices(commodity string, days int) []float64
}

// Model is the fitted random-walk parameters.
type Model struct {
	Trend         float64 `json:"trend"`
	Volatility    float64 `json:"volatility"`
	HistoryPoints int     `json:"history_points"`
	Source        string  `json:"source"`
}

// Stats summarizes a forecast path.
type Stats struct {
	Mean   float64 `json:"mean_forecast"`
	Min    float64 `json:"min_forecast"`
	Max    float64 `json:"max_forecast"`
	StdDev float64 `json:"std_deviation"`
}

// Window is the optimal selling window: every day priced within 5% of the peak.
type Window struct {
	RecommendedDay int     `json:"recommended_day"`
	StartDay       int     `json:"window_start_day"`
	EndDay         int     `json:"window_end_day"`
	Days           []int   `json:"favorable_days"`
	PeakPrice      float64 `json:"expected_peak_price"`
	Advice         string  `json:"recommendation"`
}

// Forecast is one simulated price path and its derived summaries.
type Forecast struct {
	Commodity       string    `json:"commodity"`
	CurrentPrice    float64   `json:"current_price"`
	Prices          []float64 `json:"forecast_prices"`
	Dates           []string  `json:"forecast_dates"`
	Stats           Stats     `json:"statistics"`
	Window          Window    `json:"optimal_selling_window"`
	Model           Model     `json:"model"`
	TrendLabel      string    `json:"trend"`
	VolatilityLabel string    `json:"volatility_level"`
	Seed            int64     `json:"seed"`
}

// PriceAt returns the forecast price on day, clamped to the horizon.
func (f Forecast) PriceAt(day int) float64 {
	if len(f.Prices) == 0 {
		return f.CurrentPrice
	}
	return f.Prices[stats.Clamp(day, 0, len(f.Prices)-1)]
}

// Forecaster builds price forecasts. Safe for concurrent use.
type Forecaster struct {
	history    PriceHistory
	windowDays int
	now        func() time.Time
}

// NewForecaster creates a forecaster fitting on up to windowDays of history.
// A nil history always uses the default model.
func NewForecaster(history PriceHistory, windowDays int) *Forecaster {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Forecaster{history: history, windowDays: windowDays, now: time.Now}
}

// WithClock returns a copy whose forecast dates start at now().
func (f *Forecaster) WithClock(now func() time.Time) *Forecaster {
	c := *f
	c.now = now
	return &c
}

// Fit derives trend and volatility for the commodity.
func (f *Forecaster) Fit(commodity string) Model {
	var prices []float64
	if f.history != nil {
		prices = f.history.RecentModalPrices(commodity, f.windowDays)
	}
	if len(prices) < MinHistoryPoints {
		return Model{Trend: DefaultTrend, Volatility: DefaultVolatility, HistoryPoints: len(prices), Source: SourceDefaults}
	}
	returns := stats.Returns(prices)
	return Model{
		Trend:         stats.Mean(returns),
		Volatility:    math.Max(MinVolatility, stats.StdDev(returns)),
		HistoryPoints: len(prices),
		Source:        SourceHistory,
	}
}

// Forecast simulates horizon days of prices starting at current.
func (f *Forecaster) Forecast(commodity string, current float64, horizon int, seed int64) (Forecast, error) {
	if math.IsNaN(current) || math.IsInf(current, 0) || current <= 0 {
		return Forecast{}, fmt.Errorf("%w: current price %v", ErrInvalidForecast, current)
	}
	if horizon < 1 {
		return Forecast{}, fmt.Errorf("%w: horizon %d", ErrInvalidForecast, horizon)
	}
	return f.ForecastWith(f.Fit(commodity), commodity, current, horizon, seed)
}

// ForecastWith simulates using an already fitted model, skipping the history
// lookup. Callers forecasting the same commodity many times fit once.
func (f *Forecaster) ForecastWith(m Model, commodity string, current float64, horizon int, seed int64) (Forecast, error) {
	if math.IsNaN(current) || math.IsInf(current, 0) || current <= 0 || horizon < 1 {
		return Forecast{}, fmt.Errorf("%w: price %v over %d days", ErrInvalidForecast, current, horizon)
	}
	prices := Path(current, m.Trend, m.Volatility, horizon, seed)

	return Forecast{
		Commodity:    commodity,
		CurrentPrice: current,
		Prices:       prices,
		Dates:        dates(f.now(), horizon),
		Stats: Stats{
			Mean:   stats.Mean(prices),
			Min:    stats.Min(prices),
			Max:    stats.Max(prices),
			StdDev: stats.StdDev(prices),
		},
		Window:          SellingWindow(prices),
		Model:           m,
		TrendLabel:      TrendLabel(m.Trend),
		VolatilityLabel: VolatilityLabel(m.Volatility),
		Seed:            seed,
	}, nil
}

// Path generates the price walk. Day 0 is the current price; each later day
// moves by drift, a normal shock and the seasonal term, floored at half the
// current price.
func Path(current, trend, volatility float64, horizon int, seed int64) []float64 {
	rng := entropy.New(seed)
	floor := current * FloorFraction

	prices := make([]float64, horizon)
	prices[0] = current
	for i := 1; i < horizon; i++ {
		shock := rng.NormFloat64() * volatility
		prev := prices[i-1]
		prices[i] = math.Max(floor, prev+prev*(trend+shock+Seasonal(i)))
	}
	return prices
}

// Seasonal is the fixed 30-day cycle applied on day i.
func Seasonal(i int) float64 {
	return SeasonalAmplitude * math.Sin(2*math.Pi*float64(i)/SeasonalPeriod)
}

// SellingWindow finds the days priced within 5% of the peak. The window may
// be scattered; start and end are its first and last day.
func SellingWindow(prices []float64) Window {
	peak := stats.ArgMax(prices)
	if peak < 0 {
		return Window{}
	}
	threshold := prices[peak] * WindowFraction

	var days []int
	for i, p := range prices {
		if p >= threshold {
			days = append(days, i)
		}
	}
	w := Window{
		RecommendedDay: peak,
		StartDay:       days[0],
		EndDay:         days[len(days)-1],
		Days:           days,
		PeakPrice:      prices[peak],
	}
	w.Advice = fmt.Sprintf("Best to sell around day %d (days %d-%d are favorable)", w.RecommendedDay, w.StartDay, w.EndDay)
	return w
}

// TrendLabel classifies mean daily drift.
func TrendLabel(trend float64) string {
	switch {
	case trend > 0.005:
		return "Upward"
	case trend < -0.005:
		return "Downward"
	default:
		return "Stable"
	}
}

// VolatilityLabel classifies daily return volatility.
func VolatilityLabel(vol float64) string {
	switch {
	case vol > 0.25:
		return "High"
	case vol > 0.15:
		return "Moderate"
	default:
		return "Low"
	}
}

func dates(start time.Time, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i).Format("2006-01-02")
	}
	return out
}
