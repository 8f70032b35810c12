package config

import (
	"os"
	"time"

	"github.com/willpearse/bayesianflows/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Sampler  SamplerConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// SamplerConfig holds the external inference engine settings
type SamplerConfig struct {
	// Mode selects the engine: "http" for an external sampler service,
	// "heuristic" for the in-process stand-in.
	Mode    string
	URL     string
	Timeout time.Duration
}

// DatabaseConfig holds run-store settings; persistence is optional and
// enabled only when a URL is present.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds report server settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Sampler: SamplerConfig{
			Mode:    getEnvOrDefault("SAMPLER_MODE", "heuristic"),
			URL:     os.Getenv("SAMPLER_URL"),
			Timeout: getEnvDurationOrDefault("SAMPLER_TIMEOUT", 10*time.Minute),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
	}

	if cfg.Sampler.Mode != "http" && cfg.Sampler.Mode != "heuristic" {
		return nil, errors.ConfigInvalid("SAMPLER_MODE must be http or heuristic")
	}
	if cfg.Sampler.Mode == "http" && cfg.Sampler.URL == "" {
		return nil, errors.ConfigInvalid("SAMPLER_URL is required when SAMPLER_MODE=http")
	}

	return cfg, nil
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
