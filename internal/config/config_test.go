package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SAMPLER_MODE", "")
	t.Setenv("SAMPLER_URL", "")
	t.Setenv("SAMPLER_TIMEOUT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sampler.Mode != "heuristic" {
		t.Errorf("Expected default sampler mode heuristic, got %q", cfg.Sampler.Mode)
	}
	if cfg.Sampler.Timeout != 10*time.Minute {
		t.Errorf("Expected default timeout 10m, got %v", cfg.Sampler.Timeout)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Server.Port)
	}
}

func TestLoadHTTPMode(t *testing.T) {
	t.Setenv("SAMPLER_MODE", "http")
	t.Setenv("SAMPLER_URL", "")

	if _, err := Load(); err == nil {
		t.Error("Expected http mode without a URL to fail")
	}

	t.Setenv("SAMPLER_URL", "http://localhost:9000")
	t.Setenv("SAMPLER_TIMEOUT", "2m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sampler.URL != "http://localhost:9000" {
		t.Errorf("Unexpected sampler URL %q", cfg.Sampler.URL)
	}
	if cfg.Sampler.Timeout != 2*time.Minute {
		t.Errorf("Expected timeout 2m, got %v", cfg.Sampler.Timeout)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv("SAMPLER_MODE", "quantum")
	if _, err := Load(); err == nil {
		t.Error("Expected unknown sampler mode to fail")
	}
}
