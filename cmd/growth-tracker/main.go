package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/growth-tracker/internal/api"
	"github.com/terra-clan/growth-tracker/internal/assessment"
	"github.com/terra-clan/growth-tracker/internal/cleanup"
	"github.com/terra-clan/growth-tracker/internal/config"
	"github.com/terra-clan/growth-tracker/internal/notify"
	"github.com/terra-clan/growth-tracker/internal/prompts"
	"github.com/terra-clan/growth-tracker/internal/session"
	"github.com/terra-clan/growth-tracker/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting growth-tracker",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Initialize session store
	sessions, err := session.NewRedisStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Auth.SessionTTL)
	if err != nil {
		slog.Error("failed to create session store", "error", err)
		os.Exit(1)
	}
	slog.Info("session store connected successfully")

	// Load reflection question catalog
	catalog := prompts.NewCatalog()
	if cfg.Prompts.Dir != "" {
		if err := catalog.LoadFromDir(cfg.Prompts.Dir); err != nil {
			slog.Warn("failed to load prompt overrides", "dir", cfg.Prompts.Dir, "error", err)
		}
	}

	// Event hub and tracker registry
	hub := notify.NewHub()
	registry := assessment.NewRegistry()

	// Create context with cancellation for background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start tracker reaper
	reaper := cleanup.NewReaper(registry, sessions, cfg.Cleanup.Interval)
	reaper.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, repo, sessions, registry, hub, catalog)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Tear down trackers and connections
	registry.Close()
	if err := hub.Close(); err != nil {
		slog.Error("event hub close error", "error", err)
	}
	if err := sessions.Close(); err != nil {
		slog.Error("session store close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("growth-tracker stopped")
}
