// Package api serves the simulation engine over HTTP.
// GET endpoints expose reference data; POST endpoints run models.
// Monte Carlo endpoints are rate limited per client IP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/agrisim/internal/engine"
	"github.com/talgya/agrisim/internal/entropy"
	"github.com/talgya/agrisim/internal/farm"
	"github.com/talgya/agrisim/internal/market"
	"github.com/talgya/agrisim/internal/refdata"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

// Server serves the engine over HTTP.
type Server struct {
	Engine      *engine.Engine
	Ref         *refdata.Service
	Port        int
	CORSOrigins []string // "*" allows any origin
	RateLimit   int      // Monte Carlo requests per hour per IP; 0 = unlimited
	DefaultSeed int64    // used when a request carries no seed; 0 = derive per request

	limiter *RateLimiter
	http    *http.Server
}

type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	if s.RateLimit > 0 && s.limiter == nil {
		s.limiter = NewRateLimiter(s.RateLimit, time.Hour)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Reference data.
	mux.HandleFunc("GET /api/v1/crops", s.handleCrops)
	mux.HandleFunc("GET /api/v1/soils", s.handleSoils)
	mux.HandleFunc("GET /api/v1/fertilizers", s.handleFertilizers)
	mux.HandleFunc("GET /api/v1/history/yield", s.handleYieldHistory)
	mux.HandleFunc("GET /api/v1/history/prices", s.handlePriceHistory)

	// Models.
	mux.HandleFunc("POST /api/v1/simulate", s.handleSimulate)
	mux.HandleFunc("POST /api/v1/forecast", s.handleForecast)
	mux.HandleFunc("POST /api/v1/compare", RateLimitMiddleware(s.limiter, s.handleCompare))
	mux.HandleFunc("POST /api/v1/recommend", RateLimitMiddleware(s.limiter, s.handleRecommend))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "rate_limit", s.RateLimit, "history", s.Ref.HasHistory())

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	allowAny := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			allowAny = true
		default:
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAny || allowedOrigins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"message": "Farm Decision Simulator API",
		"version": Version,
		"endpoints": []string{
			"/api/v1/simulate", "/api/v1/forecast", "/api/v1/compare", "/api/v1/recommend",
			"/api/v1/crops", "/api/v1/soils", "/api/v1/fertilizers",
			"/api/v1/history/yield", "/api/v1/history/prices",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"status":  "healthy",
		"service": "agrisim",
		"history": s.Ref.HasHistory(),
	})
}

func (s *Server) handleCrops(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{"crops": s.Ref.Catalog().Crops})
}

func (s *Server) handleSoils(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{"soil_types": s.Ref.Catalog().SoilTypes})
}

func (s *Server) handleFertilizers(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{"fertilizers": s.Ref.Catalog().Fertilizers})
}

func (s *Server) handleYieldHistory(w http.ResponseWriter, r *http.Request) {
	crop := strings.TrimSpace(r.URL.Query().Get("crop"))
	if crop == "" {
		writeError(w, http.StatusBadRequest, "crop query parameter is required")
		return
	}
	records := s.Ref.HistoricalYieldTrend(crop)
	if records == nil {
		records = []refdata.YieldPoint{}
	}
	writeData(w, map[string]any{
		"crop":          crop,
		"records":       records,
		"default_yield": s.Ref.DefaultYield(crop),
	})
}

func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	commodity := strings.TrimSpace(q.Get("commodity"))
	if commodity == "" {
		writeError(w, http.StatusBadRequest, "commodity query parameter is required")
		return
	}
	days := s.Engine.Params().HistoryWindowDays
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 3650 {
			writeError(w, http.StatusBadRequest, "days must be an integer in [1,3650]")
			return
		}
		days = n
	}
	records := s.Ref.RecentPrices(commodity, days)
	if records == nil {
		records = []refdata.PricePoint{}
	}
	writeData(w, map[string]any{
		"commodity":  commodity,
		"records":    records,
		"statistics": s.Ref.PriceStatistics(commodity),
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, "simulation", err)
		return
	}
	plan, err := req.FarmingInput.Plan()
	if err != nil {
		writeFailure(w, "simulation", err)
		return
	}

	id := uuid.New()
	seed := entropy.Resolve(s.seed(req.Seed), id)
	res, err := s.Engine.Simulate(plan, seed)
	if err != nil {
		writeFailure(w, "simulation", err)
		return
	}
	w.Header().Set("X-Request-ID", id.String())
	writeData(w, struct {
		RequestID uuid.UUID `json:"request_id"`
		Seed      int64     `json:"seed"`
		engine.ScenarioResult
	}{id, seed, res})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, "forecast", err)
		return
	}
	days, err := req.Validate()
	if err != nil {
		writeFailure(w, "forecast", err)
		return
	}

	seed := s.seed(req.Seed)
	if seed == 0 {
		seed = entropy.NewSeed()
	}
	fc, err := s.Engine.Forecaster().Forecast(strings.TrimSpace(req.Commodity), req.CurrentPrice, days, seed)
	if err != nil {
		writeFailure(w, "forecast", err)
		return
	}
	writeData(w, fc)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	params := s.Engine.Params()
	sum, ok := s.runWhatIf(w, r, func(req SimulationRequest) (int, error) {
		return req.Trials(params.DefaultTrials, params.MinTrials, params.MaxTrials)
	})
	if !ok {
		return
	}
	writeData(w, sum)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.runWhatIf(w, r, func(SimulationRequest) (int, error) {
		return s.Engine.Params().RecommendTrials, nil
	})
	if !ok {
		return
	}

	rec := sum.Recommendation
	html, err := renderMarkdown(rec.Text)
	if err != nil {
		slog.Warn("recommendation markdown render failed", "request_id", sum.RequestID, "error", err)
	}
	writeData(w, map[string]any{
		"request_id":          sum.RequestID,
		"seed":                sum.Seed,
		"recommendation_text": rec.Text,
		"recommendation_html": html,
		"changes":             rec.Changes,
		"selling_day":         rec.SellingDay,
		"current_profit":      sum.Current.Profit,
		"optimal_profit":      sum.Optimal.Profit,
		"profit_improvement":  farm.RoundMoney(rec.ProfitImprovement),
		"current_risk":        sum.Current.Risk.Overall,
		"optimal_risk":        sum.Optimal.Risk.Overall,
		"risk_reduction":      farm.Round(rec.RiskReduction, 2),
		"key_insights":        sum.Optimal.Risk.Messages(),
		"optimal_parameters":  sum.Optimal.Plan,
	})
}

// runWhatIf decodes, validates and runs a What-If request, writing the
// failure response itself when it returns false.
func (s *Server) runWhatIf(w http.ResponseWriter, r *http.Request, trials func(SimulationRequest) (int, error)) (*engine.Summary, bool) {
	var req SimulationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, "comparison", err)
		return nil, false
	}
	plan, err := req.FarmingInput.Plan()
	if err != nil {
		writeFailure(w, "comparison", err)
		return nil, false
	}
	n, err := trials(req)
	if err != nil {
		writeFailure(w, "comparison", err)
		return nil, false
	}

	id := uuid.New()
	w.Header().Set("X-Request-ID", id.String())
	sum, err := s.Engine.RunWhatIf(r.Context(), engine.Request{ID: id, Seed: s.seed(req.Seed), Plan: plan, Trials: n})
	if err != nil {
		writeFailure(w, "comparison", err)
		return nil, false
	}
	return sum, true
}

func (s *Server) seed(requested int64) int64 {
	if requested != 0 {
		return requested
	}
	return s.DefaultSeed
}

// writeFailure maps caller errors to 422 and everything else to 500.
func writeFailure(w http.ResponseWriter, op string, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{Error: verr.Error(), Details: verr.Problems})
	case errors.Is(err, farm.ErrInvalidPlan),
		errors.Is(err, engine.ErrInvalidTrialCount),
		errors.Is(err, market.ErrInvalidForecast):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled):
		slog.Info(op + " cancelled by client")
	default:
		slog.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, op+" error")
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("response write failed", "error", err)
	}
}
