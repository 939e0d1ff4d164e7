package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port    string
	GinMode string

	GooglePlacesAPIKey string
	PageSpeedAPIKey    string
	OpenAIAPIKey       string

	// Competitor discovery
	CompetitorRadiusMeters int // default 8047m (~5 miles)
	CompetitorLimit        int // default 5, capped at 8

	// PageSpeed
	PageSpeedMaxRetries int
	PageSpeedTimeout    time.Duration

	// Website parsing
	ParseTimeout  time.Duration
	ParseCacheTTL time.Duration

	StatsDataDir string
}

// Load reads .env.development / .env (if present) and returns a populated Config.
func Load() *Config {
	// Try .env.development first (local development), then fall back to .env
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8082"),
		GinMode: getEnv("GIN_MODE", ""),

		GooglePlacesAPIKey: getEnv("GOOGLE_PLACES_API_KEY", ""),
		PageSpeedAPIKey:    getEnv("PAGESPEED_INSIGHTS_API_KEY", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),

		CompetitorRadiusMeters: getEnvInt("COMPETITOR_RADIUS_METERS", 8047),
		CompetitorLimit:        getEnvInt("COMPETITOR_LIMIT", 5),

		PageSpeedMaxRetries: getEnvInt("PAGESPEED_MAX_RETRIES", 2),
		PageSpeedTimeout:    getEnvDuration("PAGESPEED_TIMEOUT", 60*time.Second),

		ParseTimeout:  getEnvDuration("PARSE_TIMEOUT", 10*time.Second),
		ParseCacheTTL: getEnvDuration("PARSE_CACHE_TTL", 30*time.Minute),

		StatsDataDir: getEnv("STATS_DATA_DIR", "./data"),
	}

	// The source of record used 5 in some call sites and 8 in others; 8 is the
	// hard ceiling to stay under Places rate limits during enrichment fan-out.
	if cfg.CompetitorLimit > 8 {
		cfg.CompetitorLimit = 8
	}
	if cfg.CompetitorLimit < 1 {
		cfg.CompetitorLimit = 5
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
