package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"advocacia.app/internal/auth"
	"advocacia.app/internal/config"
	"advocacia.app/internal/httpapi"
	"advocacia.app/internal/idempotency"
	"advocacia.app/internal/intake"
	"advocacia.app/internal/obs"
	"advocacia.app/internal/store"
	"advocacia.app/internal/stream"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	log.SetFlags(0)
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("open store: %v", err)
	}
	created, err := st.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail)
	cancel()
	if err != nil {
		log.Fatalf("ensure admin: %v", err)
	}
	if created {
		obs.Info("admin user created", map[string]any{"username": cfg.AdminUsername})
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}
	authSvc := auth.NewService(st, tokens, func(userID string, err error) {
		obs.Error("password upgrade failed", err, map[string]any{"user_id": userID})
	})

	var replies idempotency.Store
	if cfg.RedisURL != "" {
		replies, err = idempotency.NewRedis(cfg.RedisURL, cfg.IdempotencyTTL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
	} else {
		replies = idempotency.NewMemory(cfg.IdempotencyTTL)
	}

	feed := stream.New()
	api := httpapi.New(st, authSvc, intake.New(st, feed, replies), feed, httpapi.Options{
		Version:        version,
		StaticDir:      cfg.StaticDir,
		CORSOrigins:    cfg.CORSOrigins,
		WebhookSecret:  cfg.WebhookSecret,
		RatePerSec:     cfg.WebhookRatePerSec,
		RateBurst:      cfg.WebhookRateBurst,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Cancelled on shutdown so open event streams end.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	srv.BaseContext = func(net.Listener) context.Context { return baseCtx }
	srv.RegisterOnShutdown(cancelBase)

	obs.Info("server starting", map[string]any{
		"version":        version,
		"addr":           srv.Addr,
		"dialect":        string(st.Dialect().Name()),
		"redis":          cfg.RedisURL != "",
		"webhook_secret": cfg.WebhookSecret != "",
		"proxies":        len(cfg.TrustedProxies),
	})

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Info("shutting down", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		obs.Error("http shutdown", err, nil)
	}
	if err := replies.Close(); err != nil {
		obs.Error("close idempotency store", err, nil)
	}
	if err := st.Close(); err != nil {
		obs.Error("close store", err, nil)
	}
	obs.Info("stopped", nil)
}
