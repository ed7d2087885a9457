package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/campus")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.OTPExpiry() != 10*time.Minute {
		t.Fatalf("expected otp expiry 10m, got %v", cfg.OTPExpiry())
	}
	if cfg.OTPMaxAttempts != 3 || cfg.OTPLength != 6 {
		t.Fatalf("unexpected otp defaults: %+v", cfg)
	}
	if cfg.SessionTTL() != 30*24*time.Hour {
		t.Fatalf("expected 30 day sessions, got %v", cfg.SessionTTL())
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production by default")
	}
}

func TestLoadConfig_DomainList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/campus")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "campus.edu,college.edu")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if len(cfg.AllowedEmailDomains) != 2 || cfg.AllowedEmailDomains[1] != "college.edu" {
		t.Fatalf("unexpected domains: %v", cfg.AllowedEmailDomains)
	}
}

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "unused")
	os.Unsetenv("DATABASE_URL")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadConfig_MemoryBackendSkipsDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "unused")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected memory backend to load without a database, got %v", err)
	}
	if !cfg.UsesMemoryStore() {
		t.Fatalf("expected memory store")
	}
}

func TestLoadConfig_UnknownBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/campus")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
