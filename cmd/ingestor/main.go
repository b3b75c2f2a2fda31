package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"exception-ingest/internal/config"
	"exception-ingest/internal/database"
	"exception-ingest/internal/ingest"
	"exception-ingest/internal/metrics"
	"exception-ingest/internal/notify"
	"exception-ingest/internal/outcome"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	// Set up structured logging
	// Allow DEBUG level via environment variable for troubleshooting
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "DEBUG" || os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting exception ingestion service",
		"incoming_dir", cfg.Directories.Incoming,
		"queue_host", cfg.Queue.Host,
		"queue", cfg.Queue.Queue,
		"email_exceptions", cfg.Email.Exceptions,
		"email_warnings", cfg.Email.Warnings,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	slog.Info("Connecting to PostgreSQL database")
	db, err := database.NewDB(cfg.PostgresDSN)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	publisher, err := notify.NewQueuePublisher(notify.QueueConfig{
		Host:     cfg.Queue.Host,
		Port:     cfg.Queue.Port,
		Username: cfg.Queue.Username,
		Password: cfg.Queue.Password,
		Exchange: cfg.Queue.Exchange,
		Queue:    cfg.Queue.Queue,
	})
	if err != nil {
		slog.Error("Invalid queue configuration", "error", err)
		os.Exit(1)
	}

	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	dispatcher := notify.NewDispatcher(mailer, publisher, notify.Options{
		EmailExceptions: cfg.Email.Exceptions,
		EmailWarnings:   cfg.Email.Warnings,
		EmailAddress:    cfg.Email.Address,
	})

	router, err := outcome.NewRouter(cfg.Directories.Processed, cfg.Directories.Errors, cfg.Directories.Logging)
	if err != nil {
		slog.Error("Failed to set up outcome router", "error", err)
		os.Exit(1)
	}

	var recorder metrics.Recorder = metrics.NewNoOp()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unavailable, metrics disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			collector := metrics.NewCollector("exception-ingestor", redisClient)
			collector.Start(ctx)
			defer collector.Stop()
			recorder = collector
			slog.Info("Metrics reporting enabled", "redis_addr", cfg.RedisAddr)
		}
	}

	pipeline := ingest.NewPipeline(db, dispatcher, router, recorder)

	if err := os.MkdirAll(cfg.Directories.Incoming, 0o755); err != nil {
		slog.Error("Failed to create incoming directory", "error", err)
		os.Exit(1)
	}

	watchIncoming(ctx, pipeline, cfg.Directories.Incoming, time.Duration(cfg.PollInterval))
	slog.Info("Exception ingestion service stopped")
}
