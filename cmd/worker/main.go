package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-planner/internal/config"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/services/ai"
	"github.com/benvon/smart-planner/internal/services/planner"
	"github.com/benvon/smart-planner/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for classifier prompt logging")
	scheduleInterval := flag.Duration("schedule-interval", 12*time.Hour, "How often to queue reclassification for users with unclassified tasks")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireQueue(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("max_retries", cfg.Planner.ClassifyMaxRetries),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	jobQueue, err := queue.DialWithRetry(ctx, cfg.RabbitMQURL, zapLogger, 10)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	taskRepo := database.NewTaskRepository(db)
	plannerService := planner.NewService(planner.Deps{
		Boards: database.NewBoardRepository(db),
		Tasks:  taskRepo,
		Groups: database.NewGroupRepository(db),
		Breaks: database.NewBreakRepository(db),
		Jobs:   jobQueue,
	}, planner.SettingsFromConfig(cfg.Planner), zapLogger)

	if cfg.OpenAIKey == "" {
		zapLogger.Warn("openai_key_not_configured_jobs_will_fall_back")
	}
	// The worker re-enqueues failed jobs itself
	sdkRetries := 0
	classifier := ai.NewBreakerClassifier(
		ai.NewOpenAIClassifier(ai.OpenAIOptions{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.AIBaseURL,
			Model:      cfg.AIModel,
			Timeout:    cfg.AIRequestTimeout,
			Logger:     zapLogger,
			DebugMode:  debugMode,
			MaxRetries: &sdkRetries,
		}),
		ai.BreakerSettings{
			Name:             "openai_classifier",
			FailureThreshold: cfg.AIBreakerFailures,
			Cooldown:         cfg.AIBreakerCooldown,
		},
		zapLogger,
	)

	worker := workers.NewClassificationWorker(classifier, plannerService, jobQueue, cfg.Planner.ClassifyMaxRetries, zapLogger)
	scheduler := workers.NewReclassifyScheduler(jobQueue, database.NewUserRepository(db), plannerService, zapLogger)
	go scheduler.Run(ctx, *scheduleInterval)

	if cfg.DLQRetention > 0 {
		dlqGC := queue.NewGarbageCollector(jobQueue, time.Hour, cfg.DLQRetention, zapLogger)
		go func() {
			_ = dlqGC.Start(ctx)
		}()
	}

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}
	zapLogger.Info("worker_started", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	for {
		select {
		case <-ctx.Done():
			zapLogger.Info("worker_stopped")
			return

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			zapLogger.Error("queue_error", zap.Error(err))

		case msg, ok := <-msgChan:
			if !ok {
				zapLogger.Error("message_channel_closed")
				return
			}
			job := msg.GetJob()
			if err := worker.ProcessJob(ctx, msg); err != nil {
				zapLogger.Error("job_processing_failed",
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
					zap.Error(err),
				)
			}
		}
	}
}
