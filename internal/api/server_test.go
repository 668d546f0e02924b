package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/agrisim/internal/engine"
	"github.com/talgya/agrisim/internal/refdata"
)

const wheatBody = `{
  "farming_input": {
    "crop": "Wheat",
    "soil_type": "Alluvial",
    "area_hectares": 1,
    "seed_quality": 0.8,
    "expected_rainfall": 500,
    "irrigation_frequency": 4,
    "fertilizer_mix": {"Urea": 120, "DAP": 60},
    "pest_probability": 0.1
  },
  "num_simulations": 100,
  "seed": 42
}`

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details []string        `json:"details"`
}

func newServer(rateLimit int) *Server {
	ref := refdata.NewService(nil, nil)
	eng := engine.New(ref, engine.Options{
		Workers: 2,
		Clock:   func() time.Time { return time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC) },
	})
	return &Server{Engine: eng, Ref: ref, RateLimit: rateLimit, CORSOrigins: []string{"https://farm.example"}}
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestReferenceEndpoints(t *testing.T) {
	h := newServer(0).Handler()

	rec, resp := do(t, h, http.MethodGet, "/api/v1/crops", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	var crops struct{ Crops []string }
	require.NoError(t, json.Unmarshal(resp.Data, &crops))
	assert.Len(t, crops.Crops, 20)

	rec, resp = do(t, h, http.MethodGet, "/api/v1/history/yield?crop=Wheat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"crop":"Wheat","records":[],"default_yield":3587}`, string(resp.Data))

	rec, _ = do(t, h, http.MethodGet, "/api/v1/history/yield", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"healthy"`)
}

func TestSimulate(t *testing.T) {
	rec, resp := do(t, newServer(0).Handler(), http.MethodPost, "/api/v1/simulate", wheatBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var out struct {
		Seed     int64   `json:"seed"`
		Scenario string  `json:"scenario_type"`
		SaleDay  int     `json:"sale_day"`
		Profit   float64 `json:"profit"`
		Plan     struct {
			LabourDays     float64 `json:"labour_days"`
			SeedQuantityKg float64 `json:"seed_quantity_kg"`
			SaleMonth      int     `json:"sale_month"`
		} `json:"parameters_used"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, int64(42), out.Seed)
	assert.Equal(t, "current", out.Scenario)
	assert.Equal(t, 30, out.SaleDay)
	assert.Equal(t, 30.0, out.Plan.LabourDays, "defaults filled in")
	assert.Equal(t, 50.0, out.Plan.SeedQuantityKg)
	assert.Equal(t, 2, out.Plan.SaleMonth)
}

func TestCompareIsReproducibleWithSeed(t *testing.T) {
	h := newServer(0).Handler()

	_, a := do(t, h, http.MethodPost, "/api/v1/compare", wheatBody)
	_, b := do(t, h, http.MethodPost, "/api/v1/compare", wheatBody)
	require.True(t, a.Success)

	var sa, sb struct {
		MC json.RawMessage `json:"micro_simulations_summary"`
	}
	require.NoError(t, json.Unmarshal(a.Data, &sa))
	require.NoError(t, json.Unmarshal(b.Data, &sb))
	assert.JSONEq(t, string(sa.MC), string(sb.MC))
	assert.Contains(t, string(sa.MC), `"num_simulations": 100`)
}

func TestCompareRejectsTrialCountOutOfBounds(t *testing.T) {
	body := strings.Replace(wheatBody, `"num_simulations": 100`, `"num_simulations": 50`, 1)
	rec, resp := do(t, newServer(0).Handler(), http.MethodPost, "/api/v1/compare", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "num_simulations")
}

func TestValidationListsEveryProblem(t *testing.T) {
	body := `{"farming_input": {"crop": "", "soil_type": "Clay", "area_hectares": 0,
		"seed_quality": 2, "expected_rainfall": 500, "irrigation_frequency": 1,
		"fertilizer_mix": {"Urea": -1}, "pest_probability": 0.1, "sale_month": 13}}`
	rec, resp := do(t, newServer(0).Handler(), http.MethodPost, "/api/v1/simulate", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, resp.Details, 5)

	rec, resp = do(t, newServer(0).Handler(), http.MethodPost, "/api/v1/simulate", "{not json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Error, "invalid json")
}

func TestRecommendRendersHTML(t *testing.T) {
	rec, resp := do(t, newServer(0).Handler(), http.MethodPost, "/api/v1/recommend", wheatBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Text     string   `json:"recommendation_text"`
		HTML     string   `json:"recommendation_html"`
		Insights []string `json:"key_insights"`
		Changes  []string `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Contains(t, out.Text, "**Key Recommendations:**")
	assert.Contains(t, out.HTML, "<strong>Key Recommendations:</strong>")
	assert.Contains(t, out.HTML, "<li>")
	assert.Len(t, out.Insights, 4)
	assert.Contains(t, out.Changes, "Optimize fertilizer mix for balanced NPK nutrition")
}

func TestForecastEndpoint(t *testing.T) {
	h := newServer(0).Handler()
	body := `{"commodity": "Onion", "current_price": 1500, "forecast_days": 10, "seed": 3}`

	rec, resp := do(t, h, http.MethodPost, "/api/v1/forecast", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var fc struct {
		Prices []float64 `json:"forecast_prices"`
		Dates  []string  `json:"forecast_dates"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &fc))
	assert.Len(t, fc.Prices, 10)
	assert.Equal(t, "2024-10-01", fc.Dates[0])
	assert.Equal(t, 1500.0, fc.Prices[0])

	rec, _ = do(t, h, http.MethodPost, "/api/v1/forecast", `{"commodity": "Onion", "current_price": 1500, "forecast_days": 181}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRateLimitOnMonteCarloEndpoints(t *testing.T) {
	h := newServer(1).Handler()

	rec, _ := do(t, h, http.MethodPost, "/api/v1/compare", wheatBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := do(t, h, http.MethodPost, "/api/v1/compare", wheatBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", resp.Error)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec, _ = do(t, h, http.MethodPost, "/api/v1/simulate", wheatBody)
	assert.Equal(t, http.StatusOK, rec.Code, "single scenarios are not limited")
}

func TestCORS(t *testing.T) {
	h := newServer(0).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/compare", nil)
	req.Header.Set("Origin", "https://farm.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://farm.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
	assert.Equal(t, 61, rl.RetryAfter("1.2.3.4"), "rounded up past the boundary")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}

func TestWriteFailureStatus(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	rec := httptest.NewRecorder()
	writeFailure(rec, "comparison", fmt.Errorf("trial 3: %w", context.Canceled))
	assert.Empty(t, rec.Body.String(), "nobody is listening")
	assert.Contains(t, logs.String(), `msg="comparison cancelled by client"`)

	rec = httptest.NewRecorder()
	writeFailure(rec, "comparison", fmt.Errorf("%w: got 0", engine.ErrInvalidTrialCount))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	writeFailure(rec, "comparison", fmt.Errorf("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}
