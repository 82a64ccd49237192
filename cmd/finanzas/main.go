package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/cli"
	"finanzas/internal/config"
	apphttp "finanzas/internal/http"
	applog "finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, os.Getenv("FINANZAS_CONFIG"), (*config.Config).ValidateServer)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	svc, res, err := cli.OpenLedger(startCtx, cfg, logger.Logger)
	cancelStart()
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Ledger backend ready", "backend", cfg.DataBackend)

	gate, err := auth.NewPinGate(cfg.AccessPinHash, cfg.AccessPin)
	if err != nil {
		logger.Error("Invalid access PIN configuration", applog.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret, err = auth.RandomSecret()
		if err != nil {
			logger.Error("Failed to generate session secret", applog.FieldError, err)
			_ = res.Close()
			os.Exit(1)
		}
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	srv, err := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Ledger:   svc,
		Gate:     gate,
		Tokens:   auth.NewTokenManager(secret, cfg.SessionTTL),
		Sessions: auth.NewSessionStore(cfg.SessionTTL),
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Burst:             cfg.RateLimitBurst,
		},
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("Failed to create server", applog.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	go func() {
		logger.Info("Starting server", "addr", srv.Addr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", applog.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
