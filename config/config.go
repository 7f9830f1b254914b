package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime setting the server needs. All values come from
// the environment; Load applies defaults for everything except the catalog
// API key, which is required.
type Config struct {
	Port     string
	LogLevel string

	// Catalog (TMDB-compatible) provider.
	CatalogBaseURL string
	CatalogAPIKey  string

	// Ratings (OMDb-compatible) provider. Optional — enrichment degrades
	// gracefully when unset.
	RatingsBaseURL string
	RatingsAPIKey  string

	// Generative resolver (Gemini-compatible) provider. Optional — the
	// pipeline falls back to deterministic catalog search when unset.
	ResolverBaseURL string
	ResolverAPIKey  string
	ResolverModel   string

	// PrimaryRegion is tried first for watch providers and regional
	// trending; SecondaryRegion is the fallback.
	PrimaryRegion   string
	SecondaryRegion string
	RegionalLangs   []string

	// Platforms maps public platform slugs to catalog provider ids.
	Platforms map[string]int

	CacheSweepInterval time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	HTTPTimeout time.Duration
}

// Load reads configuration from the environment, falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CatalogBaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		CatalogAPIKey:  os.Getenv("TMDB_API_KEY"),

		RatingsBaseURL: getEnv("OMDB_BASE_URL", "https://www.omdbapi.com"),
		RatingsAPIKey:  os.Getenv("OMDB_API_KEY"),

		ResolverBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ResolverAPIKey:  os.Getenv("GEMINI_API_KEY"),
		ResolverModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		PrimaryRegion:   getEnv("WATCH_REGION", "IN"),
		SecondaryRegion: getEnv("WATCH_REGION_FALLBACK", "US"),
		RegionalLangs:   []string{"hi", "ta", "te", "ml", "kn"},

		Platforms: map[string]int{
			"netflix": 8,
			"prime":   119,
			"hotstar": 122,
		},

		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", 10*time.Minute),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
	}

	if cfg.CatalogAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
