// Command agrisim serves the farm decision simulation engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/agrisim/internal/api"
	"github.com/talgya/agrisim/internal/config"
	"github.com/talgya/agrisim/internal/engine"
	"github.com/talgya/agrisim/internal/refdata"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger(os.Stdout))

	slog.Info("agrisim starting",
		"version", api.Version,
		"port", cfg.Port,
		"workers", cfg.Workers,
		"seed", cfg.Seed,
	)

	// ── Reference data ───────────────────────────────────────────────
	catalog, err := refdata.LoadCatalog(cfg.RefDataFile)
	if err != nil {
		slog.Error("failed to load reference data", "error", err)
		os.Exit(1)
	}
	history := loadHistory(cfg.DBPath)
	ref := refdata.NewService(catalog, history)

	// ── Engine and API ───────────────────────────────────────────────
	eng := engine.New(ref, engine.Options{
		Workers:           cfg.Workers,
		SharedTrialMarket: cfg.SharedTrialMarket,
	})

	apiServer := &api.Server{
		Engine:      eng,
		Ref:         ref,
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		DefaultSeed: cfg.Seed,
	}
	apiServer.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("agrisim stopped")
}

// loadHistory reads the historical store if one is configured. Any failure
// leaves the service on catalog defaults.
func loadHistory(path string) *refdata.History {
	if path == "" {
		slog.Info("no history database configured, using catalog defaults")
		return nil
	}
	st, err := refdata.OpenStore(path)
	if err != nil {
		slog.Warn("history database unavailable, using catalog defaults", "path", path, "error", err)
		return nil
	}
	defer st.Close()

	h, err := st.LoadHistory()
	switch {
	case errors.Is(err, refdata.ErrNoHistory):
		slog.Warn("history database is empty, using catalog defaults", "path", path)
		return nil
	case err != nil:
		slog.Warn("failed to load history, using catalog defaults", "path", path, "error", err)
		return nil
	}
	yields, prices := h.Counts()
	slog.Info("history loaded", "path", path, "yield_records", yields, "price_records", prices)
	return h
}
