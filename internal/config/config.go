// Package config loads runtime settings from the environment, optionally
// seeded from a .env file, and builds the process logger.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the server's runtime configuration.
type Config struct {
	Port              int
	DBPath            string // empty = no history store
	RefDataFile       string // optional YAML overlay
	Seed              int64  // 0 = derive per request
	Workers           int
	SharedTrialMarket bool // trials reuse the named scenarios' price path
	CORSOrigins       []string
	RateLimit         int // Monte Carlo requests per hour per IP
	LogLevel          slog.Level
	LogFormat         string // auto, text or json
}

// Load reads envFile (if it exists) into the environment without overriding
// variables already set, then parses the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv parses configuration through getenv. Every problem is reported.
func FromEnv(getenv func(string) string) (Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v := getenv(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return def
		}
		return n
	}

	c := Config{
		Port:        intVar("AGRISIM_PORT", 8000),
		DBPath:      getenv("AGRISIM_DB_PATH"),
		RefDataFile: getenv("AGRISIM_REFDATA_FILE"),
		Workers:     intVar("AGRISIM_WORKERS", runtime.GOMAXPROCS(0)),
		RateLimit:   intVar("AGRISIM_RATE_LIMIT", 60),
		LogFormat:   strings.ToLower(envOrDefault(getenv, "LOG_FORMAT", "auto")),
		CORSOrigins: splitList(getenv("CORS_ORIGINS")),
	}

	if v := getenv("AGRISIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("AGRISIM_SEED: %w", err))
		}
		c.Seed = seed
	}
	if v := getenv("AGRISIM_SHARED_TRIAL_MARKET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("AGRISIM_SHARED_TRIAL_MARKET: %w", err))
		}
		c.SharedTrialMarket = b
	}
	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault(getenv, "LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("AGRISIM_PORT: %d out of range", c.Port))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("AGRISIM_WORKERS: must be >= 1, got %d", c.Workers))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("AGRISIM_RATE_LIMIT: must be >= 0, got %d", c.RateLimit))
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat))
	}

	return c, errors.Join(errs...)
}

func envOrDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
