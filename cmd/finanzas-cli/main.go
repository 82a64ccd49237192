package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"finanzas/internal/cli"
	applog "finanzas/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// Diagnostics go to stderr so stdout stays valid JSON.
	level, err := applog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	logger := applog.New(applog.Config{Level: level, Component: applog.ComponentApp, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, cli.ConfigOpener(logger.Logger), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
