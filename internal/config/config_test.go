package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("QUEUE_POLL_INTERVAL", "")
	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BackendBaseURL != "http://localhost:8080/api" {
		t.Fatalf("expected default backend base url, got %s", cfg.BackendBaseURL)
	}
	if cfg.QueuePollInterval != 3*time.Second {
		t.Fatalf("expected default queue poll interval, got %s", cfg.QueuePollInterval)
	}
	if cfg.DisplayPollInterval != 5*time.Second {
		t.Fatalf("expected default display poll interval, got %s", cfg.DisplayPollInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no default CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BACKEND_BASE_URL", "https://clinic.example.com/api")
	t.Setenv("QUEUE_POLL_INTERVAL", "10s")
	t.Setenv("USE_MEMORY_DIRECTORY", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://clinic.example.com")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.BackendBaseURL != "https://clinic.example.com/api" {
		t.Fatalf("expected backend override, got %s", cfg.BackendBaseURL)
	}
	if cfg.QueuePollInterval != 10*time.Second {
		t.Fatalf("expected poll override, got %s", cfg.QueuePollInterval)
	}
	if !cfg.UseMemoryDirectory {
		t.Fatalf("expected memory directory enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://clinic.example.com" {
		t.Fatalf("expected CORS origins parsed, got %v", cfg.CORSAllowedOrigins)
	}
}
