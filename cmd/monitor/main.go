package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"lexguard-backend/internal/bootstrap"
	"lexguard-backend/internal/shared/config"
	"lexguard-backend/internal/shared/storage/db"
)

const defaultShutdownTimeoutSec = 30

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTimeout := time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	if app.DB != nil {
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
	}

	log.Printf("monitor started interval=%s batch_limit=%d", app.MonitorLoop.Interval, app.MonitorLoop.BatchLimit)

	if err := app.MonitorLoop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("monitor loop: %v", err)
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight passes", shutdownTimeout)
	if !app.Tasks.Shutdown(shutdownTimeout) {
		log.Printf("shutdown timeout reached; exiting with in-flight passes")
	}
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}
