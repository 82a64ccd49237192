package main

import (
	"context"
	"os"
	"time"

	"finanzas/internal/cli"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentRollover)
	logger.Info("Starting rollover-worker")

	cfg := cli.LoadAndValidateConfig(logger, os.Getenv("FINANZAS_CONFIG"), nil)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentRollover)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	svc, res, err := cli.OpenLedger(startCtx, cfg, logger.Logger)
	cancelStart()
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Without SQLite the log lives in memory and a restart may repeat a
	// rollover that already ran this month.
	var rolloverLog services.RolloverLog
	if res.SQLite != nil {
		rolloverLog = res.SQLite
	} else {
		logger.Warn("Rollover log kept in memory", "backend", cfg.DataBackend)
		rolloverLog = services.NewMemoryRolloverLog()
	}

	scheduler := services.NewRolloverScheduler(svc, rolloverLog, cfg.RolloverInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("Scheduler stop error", applog.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start rollover scheduler", applog.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}
	logger.Info("Rollover scheduler running",
		"interval", cfg.RolloverInterval,
		"rules_file", cfg.RolloverRulesFile)

	cli.WaitForShutdown(ctx, done)
}
