package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitekit/internal/server/api"
	"sitekit/internal/server/audit"
	"sitekit/internal/server/config"
	"sitekit/internal/server/database"
	"sitekit/internal/server/notify"
	"sitekit/internal/server/ratelimit"
	"sitekit/internal/server/service"
	"sitekit/internal/server/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Local development convenience; production uses real env vars
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	// Load config
	cfg := config.Load()
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"upload_dir", cfg.UploadDir,
		"rate_limit_max", cfg.RateLimitMax,
		"rate_limit_window", cfg.RateLimitWindow,
		"database", cfg.DatabaseURL != "",
	)

	ctx := context.Background()

	// Database is optional: without it leads live only in the audit log
	// and rate limiting is per-instance in memory.
	var (
		db      *database.DB
		repo    *database.Repository
		limiter ratelimit.Limiter
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrations complete")

		repo = database.NewRepository(db)
		limiter = ratelimit.NewPostgresLimiter(db, cfg.RateLimitWindow, cfg.RateLimitMax)
	} else {
		slog.Warn("no DATABASE_URL configured, using in-memory rate limiting")
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	}

	// Initialize attachment storage
	store := storage.NewFileSystemStore(cfg.UploadDir)
	if err := store.EnsureDir(); err != nil {
		slog.Error("failed to initialize upload storage", "error", err)
		os.Exit(1)
	}
	slog.Info("upload storage initialized", "path", cfg.UploadDir)

	// Audit log
	auditLog, err := audit.NewLog(cfg.AuditLogPath)
	if err != nil {
		slog.Error("failed to open audit log", "error", err)
		os.Exit(1)
	}

	// Notification channels. Slack and HubSpot are optional.
	mailer := notify.NewSMTPMailer(cfg)
	if cfg.SMTPHost == "" {
		slog.Warn("no SMTP_HOST configured, email delivery disabled")
	}

	var chat service.ChatNotifier
	if cfg.SlackWebhookURL != "" {
		chat = notify.NewSlackNotifier(cfg.SlackWebhookURL)
	}
	var crm service.CRMClient
	if cfg.HubSpotAPIKey != "" {
		crm = notify.NewHubSpotClient(cfg.HubSpotAPIKey)
	}
	var leads service.LeadStore
	if repo != nil {
		leads = repo
	}

	svc := service.NewContactService(cfg, limiter, store, mailer, chat, crm, leads, auditLog)

	// Prune aged rate-limit entries in the background
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	cleanup := storage.NewCleanupService(limiter, cfg.CleanupInterval)
	cleanup.Start(cleanupCtx)

	// Setup HTTP router
	handler := api.NewHandler(svc, db, repo, cfg)
	e := api.SetupRouter(handler, cfg)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	cleanupCancel()
	cleanup.Wait()

	slog.Info("server exited cleanly")
}
