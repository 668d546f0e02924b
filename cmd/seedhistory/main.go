// Command seedhistory fills a SQLite history database with synthetic yield
// and price records so the engine can be exercised without real data.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/agrisim/internal/config"
	"github.com/talgya/agrisim/internal/refdata"
)

func main() {
	dbPath := flag.String("db", "data/history.db", "SQLite database to write")
	seed := flag.Int64("seed", 42, "noise seed")
	years := flag.Int("years", 10, "yield records per crop")
	days := flag.Int("days", 365, "daily price records per crop")
	crops := flag.String("crops", "", "comma-separated crops (default: every catalog crop)")
	refFile := flag.String("refdata", "", "optional YAML reference data overlay")
	flag.Parse()

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	catalog, err := refdata.LoadCatalog(*refFile)
	if err != nil {
		slog.Error("failed to load reference data", "error", err)
		os.Exit(1)
	}

	synth := refdata.DefaultSynthConfig(time.Now())
	synth.Seed = *seed
	synth.Years = *years
	synth.PriceDays = *days
	for _, c := range strings.Split(*crops, ",") {
		if c = strings.TrimSpace(c); c != "" {
			synth.Crops = append(synth.Crops, c)
		}
	}

	yields, prices := refdata.Synthesize(catalog, synth)

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}
	st, err := refdata.OpenStore(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.SaveYields(yields); err != nil {
		slog.Error("failed to save yields", "error", err)
		os.Exit(1)
	}
	if err := st.SavePrices(prices); err != nil {
		slog.Error("failed to save prices", "error", err)
		os.Exit(1)
	}

	slog.Info("history seeded",
		"path", *dbPath,
		"yield_records", humanize.Comma(int64(len(yields))),
		"price_records", humanize.Comma(int64(len(prices))),
		"seed", *seed,
	)
}
