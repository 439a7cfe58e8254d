package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// ImportConfig tunes the bulk import pipeline.
type ImportConfig struct {
	BatchSize          int
	MaxUploadBytes     int64
	DefaultCountryCode string
}

// CacheConfig holds per-dataset cache lifetimes and the sweeper cadence.
type CacheConfig struct {
	FeaturedTTL   time.Duration
	RandomTTL     time.Duration
	SweepInterval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL     string
	JWTSecret       string
	Port            string
	LogLevel        string
	LogFormat       string
	DatasetBaseURL  string
	Import          ImportConfig
	Cache           CacheConfig
	RateLimitImport RateLimitConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret"),
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		DatasetBaseURL: strings.TrimRight(os.Getenv("DATASET_BASE_URL"), "/"),
		Import: ImportConfig{
			BatchSize:          parseInt(getEnv("IMPORT_BATCH_SIZE", "100"), 100),
			MaxUploadBytes:     int64(parseInt(getEnv("IMPORT_MAX_UPLOAD_BYTES", "20971520"), 20<<20)),
			DefaultCountryCode: strings.ToUpper(getEnv("DEFAULT_COUNTRY_CODE", "US")),
		},
		Cache: CacheConfig{
			FeaturedTTL:   parseDuration(getEnv("CACHE_FEATURED_TTL", "10m"), 10*time.Minute),
			RandomTTL:     parseDuration(getEnv("CACHE_RANDOM_TTL", "2m"), 2*time.Minute),
			SweepInterval: parseDuration(getEnv("CACHE_SWEEP_INTERVAL", "5m"), 5*time.Minute),
		},
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_IMPORT", "10/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_IMPORT value: %w", err)
	}
	cfg.RateLimitImport = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(input string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
