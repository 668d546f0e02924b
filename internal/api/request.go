package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/talgya/agrisim/internal/farm"
)

const maxBodyBytes = 1 << 20

// Forecast request bounds.
const (
	DefaultForecastDays = 60
	MaxForecastDays     = 180
)

// ValidationError lists every problem found in a request body.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

type validator struct{ problems []string }

func (v *validator) check(ok bool, format string, args ...any) {
	if !ok {
		v.problems = append(v.problems, fmt.Sprintf(format, args...))
	}
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// FarmingInput is the plan as sent by clients. Pointer fields are optional
// and take the documented default when absent.
type FarmingInput struct {
	Crop                 string             `json:"crop"`
	SoilType             string             `json:"soil_type"`
	AreaHectares         *float64           `json:"area_hectares"`
	SeedQuality          *float64           `json:"seed_quality"`
	ExpectedRainfall     *float64           `json:"expected_rainfall"`
	RainfallDelay        int                `json:"rainfall_delay"`
	IrrigationFrequency  *int               `json:"irrigation_frequency"`
	FertilizerMix        map[string]float64 `json:"fertilizer_mix"`
	PestProbability      *float64           `json:"pest_probability"`
	LabourDays           *float64           `json:"labour_days"`
	PestControlIntensity *float64           `json:"pest_control_intensity"`
	SaleMonth            *int               `json:"sale_month"`
	CurrentMarketPrice   *float64           `json:"current_market_price"`
	SeedQuantityKg       *float64           `json:"seed_quantity_kg"`
}

// Plan validates the input and fills defaults.
func (in FarmingInput) Plan() (farm.Plan, error) {
	var v validator
	v.check(strings.TrimSpace(in.Crop) != "", "crop is required")
	v.check(strings.TrimSpace(in.SoilType) != "", "soil_type is required")
	v.check(in.AreaHectares != nil && finite(*in.AreaHectares) && *in.AreaHectares > 0, "area_hectares must be > 0")
	v.check(in.SeedQuality != nil && unit(*in.SeedQuality), "seed_quality must be in [0,1]")
	v.check(in.ExpectedRainfall != nil && finite(*in.ExpectedRainfall) && *in.ExpectedRainfall >= 0, "expected_rainfall must be >= 0")
	v.check(in.RainfallDelay >= 0, "rainfall_delay must be >= 0")
	v.check(in.IrrigationFrequency != nil && *in.IrrigationFrequency >= 0, "irrigation_frequency must be >= 0")
	v.check(in.FertilizerMix != nil, "fertilizer_mix is required")
	for name, qty := range in.FertilizerMix {
		v.check(finite(qty) && qty >= 0, "fertilizer_mix[%q] must be >= 0", name)
	}
	v.check(in.PestProbability != nil && unit(*in.PestProbability), "pest_probability must be in [0,1]")
	v.check(in.LabourDays == nil || (finite(*in.LabourDays) && *in.LabourDays > 0), "labour_days must be > 0")
	v.check(in.PestControlIntensity == nil || unit(*in.PestControlIntensity), "pest_control_intensity must be in [0,1]")
	v.check(in.SaleMonth == nil || (*in.SaleMonth >= 0 && *in.SaleMonth <= farm.MaxSaleMonth), "sale_month must be in [0,%d]", farm.MaxSaleMonth)
	v.check(in.CurrentMarketPrice == nil || (finite(*in.CurrentMarketPrice) && *in.CurrentMarketPrice > 0), "current_market_price must be > 0")
	v.check(in.SeedQuantityKg == nil || (finite(*in.SeedQuantityKg) && *in.SeedQuantityKg >= 0), "seed_quantity_kg must be >= 0")
	if err := v.err(); err != nil {
		return farm.Plan{}, err
	}

	p := farm.Plan{
		Crop:                 strings.TrimSpace(in.Crop),
		SoilType:             strings.TrimSpace(in.SoilType),
		AreaHectares:         *in.AreaHectares,
		SeedQuality:          *in.SeedQuality,
		RainfallMM:           *in.ExpectedRainfall,
		RainfallDelayDays:    in.RainfallDelay,
		IrrigationFrequency:  *in.IrrigationFrequency,
		Fertilizer:           farm.FertilizerMix(in.FertilizerMix).Clone(),
		PestProbability:      *in.PestProbability,
		LabourDays:           or(in.LabourDays, farm.DefaultLabourDays),
		PestControlIntensity: or(in.PestControlIntensity, farm.DefaultPestControlIntensity),
		SaleMonth:            or(in.SaleMonth, farm.DefaultSaleMonth),
		CurrentPrice:         or(in.CurrentMarketPrice, farm.DefaultCurrentPrice),
		SeedQuantityKg:       or(in.SeedQuantityKg, farm.DefaultSeedQuantity(*in.AreaHectares)),
	}
	return p, nil
}

// SimulationRequest is the body of the simulate, compare and recommend endpoints.
type SimulationRequest struct {
	FarmingInput   FarmingInput `json:"farming_input"`
	NumSimulations *int         `json:"num_simulations"`
	Seed           int64        `json:"seed"` // zero derives one from the request ID
}

// Trials returns the requested trial count, or def, checked against [lo, hi].
func (r SimulationRequest) Trials(def, lo, hi int) (int, error) {
	n := or(r.NumSimulations, def)
	if n < lo || n > hi {
		return 0, &ValidationError{Problems: []string{fmt.Sprintf("num_simulations must be in [%d,%d], got %d", lo, hi, n)}}
	}
	return n, nil
}

// ForecastRequest is the body of the forecast endpoint.
type ForecastRequest struct {
	Commodity    string  `json:"commodity"`
	CurrentPrice float64 `json:"current_price"`
	ForecastDays *int    `json:"forecast_days"`
	Seed         int64   `json:"seed"`
}

// Validate checks the request and returns the horizon.
func (r ForecastRequest) Validate() (int, error) {
	days := or(r.ForecastDays, DefaultForecastDays)
	var v validator
	v.check(strings.TrimSpace(r.Commodity) != "", "commodity is required")
	v.check(finite(r.CurrentPrice) && r.CurrentPrice > 0, "current_price must be > 0")
	v.check(days >= 1 && days <= MaxForecastDays, "forecast_days must be in [1,%d]", MaxForecastDays)
	return days, v.err()
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &ValidationError{Problems: []string{"request body is empty"}}
		}
		return &ValidationError{Problems: []string{"invalid json: " + err.Error()}}
	}
	return nil
}

func or[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func unit(v float64) bool {
	return finite(v) && v >= 0 && v <= 1
}
