package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/taskboard/internal/database"
	"github.com/hugh/taskboard/internal/jobs"
	"github.com/hugh/taskboard/internal/mailer"
	"github.com/hugh/taskboard/pkg/config"
	"github.com/hugh/taskboard/pkg/queue"
	"github.com/hugh/taskboard/pkg/util"
	"github.com/joho/godotenv"
)

// Expired invitations are swept once a day.
const sweepInterval = 24 * time.Hour

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting taskboard worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10)

	// Create job handler
	m := mailer.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.FromEmail)
	handler := jobs.NewHandler(db, logger, m, cfg.Server.BaseURL)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodically enqueue the expired-invitation sweep
	client := queue.NewClient(&cfg.Redis)
	defer client.Close()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			if _, err := client.EnqueueContext(ctx, jobs.NewInvitationSweepTask(), asynq.Queue("low")); err != nil {
				logger.Warn("failed to enqueue invitation sweep", "error", err)
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for jobs...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
