package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/factortrace/factortrace/internal/emissions"
)

// Config represents the engine configuration.
type Config struct {
	Engine   EngineConfig   `json:"engine"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
}

// EngineConfig controls calculation defaults.
type EngineConfig struct {
	Iterations      int                  `json:"iterations"`
	ConfidenceLevel float64              `json:"confidence_level"`
	GWPVersion      emissions.GWPVersion `json:"gwp_version"`
	CacheTTL        time.Duration        `json:"cache_ttl"`
}

// DatabaseConfig holds the factor store connection settings.
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// Load reads configuration from the environment. A .env file is loaded
// first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Engine: EngineConfig{
			Iterations:      getEnvInt("FT_ITERATIONS", emissions.DefaultIterations),
			ConfidenceLevel: getEnvFloat("FT_CONFIDENCE_LEVEL", emissions.DefaultConfidenceLevel),
			GWPVersion:      emissions.GWPVersion(getEnv("FT_GWP_VERSION", string(emissions.DefaultGWPVersion))),
			CacheTTL:        getEnvDuration("FT_FACTOR_CACHE_TTL", 15*time.Minute),
		},
		Database: DatabaseConfig{
			DSN: getEnv("FT_DATABASE_DSN", ""),
		},
		Logging: LoggingConfig{
			Level:       getEnv("FT_LOG_LEVEL", "info"),
			Development: getEnvBool("FT_LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.Engine.Iterations < emissions.MinIterations {
		return fmt.Errorf("FT_ITERATIONS must be at least %d, got %d",
			emissions.MinIterations, c.Engine.Iterations)
	}
	if c.Engine.ConfidenceLevel <= 0 || c.Engine.ConfidenceLevel >= 1 {
		return fmt.Errorf("FT_CONFIDENCE_LEVEL must be in (0,1), got %v", c.Engine.ConfidenceLevel)
	}
	if !c.Engine.GWPVersion.Valid() {
		return fmt.Errorf("FT_GWP_VERSION must be one of AR4, AR5, AR6, got %q", c.Engine.GWPVersion)
	}
	if c.Engine.CacheTTL <= 0 {
		return fmt.Errorf("FT_FACTOR_CACHE_TTL must be positive, got %v", c.Engine.CacheTTL)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
