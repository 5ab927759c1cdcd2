package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	for _, key := range []string{"PORT", "DATABASE_URL", "TOKEN_TTL", "CORS_ORIGINS", "REDIS_URL", "WEBHOOK_SECRET",
		"WEBHOOK_RATE_PER_SEC", "WEBHOOK_RATE_BURST", "IDEMPOTENCY_TTL", "MAX_BODY_BYTES", "ADMIN_USERNAME", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != ":3000" || cfg.DatabaseURL != "data/advocacia.db" || cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.AdminUsername != "admin" || cfg.MaxBodyBytes != 1<<20 || cfg.WebhookRateBurst != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("no proxy should be trusted by default: %v", cfg.TrustedProxies)
	}
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7, ::1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"10.0.0.0/8", "192.168.1.7/32", "::1/128"}
	if len(cfg.TrustedProxies) != len(want) {
		t.Fatalf("unexpected proxies: %v", cfg.TrustedProxies)
	}
	for i, p := range cfg.TrustedProxies {
		if p.String() != want[i] {
			t.Fatalf("proxy %d = %s, want %s", i, p, want[i])
		}
	}

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TRUSTED_PROXIES") {
		t.Fatalf("expected bad proxy error, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("WEBHOOK_RATE_PER_SEC", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != ":8080" || cfg.TokenTTL != 2*time.Hour || cfg.WebhookRatePerSec != 0.5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected missing secret error, got %v", err)
	}

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TOKEN_TTL") {
		t.Fatalf("expected bad duration error, got %v", err)
	}

	t.Setenv("TOKEN_TTL", "")
	t.Setenv("WEBHOOK_RATE_BURST", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero burst")
	}
}
