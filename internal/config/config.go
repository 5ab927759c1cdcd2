// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	StaticDir   string
	CORSOrigins []string
	// Admin account ensured at startup.
	AdminUsername string
	AdminPassword string
	AdminEmail    string
	// Optional: shares idempotency records between instances.
	RedisURL string
	// Optional: required X-Webhook-Secret value on webhook routes.
	WebhookSecret     string
	WebhookRatePerSec float64
	WebhookRateBurst  int
	IdempotencyTTL    time.Duration
	MaxBodyBytes      int64

	// Peers allowed to set X-Forwarded-For. Empty means the header is ignored.
	TrustedProxies []netip.Prefix
}

// Load reads the environment. Malformed numbers and durations are errors
// rather than silent fallbacks.
func Load() (Config, error) {
	var errs []error
	cfg := Config{
		Port:              getenv("PORT", "3000"),
		DatabaseURL:       getenv("DATABASE_URL", "data/advocacia.db"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          getenvDuration("TOKEN_TTL", 24*time.Hour, &errs),
		StaticDir:         getenv("STATIC_DIR", "public"),
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "*")),
		AdminUsername:     getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getenv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:        getenv("ADMIN_EMAIL", "admin@advocacia.com"),
		RedisURL:          os.Getenv("REDIS_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookRatePerSec: getenvFloat("WEBHOOK_RATE_PER_SEC", 5, &errs),
		WebhookRateBurst:  getenvInt("WEBHOOK_RATE_BURST", 20, &errs),
		IdempotencyTTL:    getenvDuration("IDEMPOTENCY_TTL", 24*time.Hour, &errs),
		MaxBodyBytes:      int64(getenvInt("MAX_BODY_BYTES", 1<<20, &errs)),
		TrustedProxies:    getenvPrefixes("TRUSTED_PROXIES", &errs),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.WebhookRatePerSec <= 0 || c.WebhookRateBurst <= 0 {
		errs = append(errs, errors.New("webhook rate limits must be positive"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int, errs *[]error) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64, errs *[]error) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

// getenvPrefixes parses a comma-separated list of CIDRs or bare addresses.
func getenvPrefixes(key string, errs *[]error) []netip.Prefix {
	var out []netip.Prefix
	for _, part := range splitList(os.Getenv(key)) {
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
