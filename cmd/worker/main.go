package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/database"
	"github.com/ganderhq/gander/internal/engine"
	"github.com/ganderhq/gander/internal/engine/timezone"
	"github.com/ganderhq/gander/internal/logger"
	"github.com/ganderhq/gander/internal/models"
	"github.com/ganderhq/gander/internal/queue"
	"github.com/ganderhq/gander/internal/services/ai"
	"github.com/ganderhq/gander/internal/services/zoom"
	"github.com/ganderhq/gander/internal/workers"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("Starting worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to database")

	// Initialize repositories
	requestRepo := database.NewCommandRequestRepository(db)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to RabbitMQ",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Connect to Redis for draft caching
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Invalid Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// Create draft provider with logger
	var draftProvider ai.DraftProvider
	if cfg.OpenAIKey != "" && cfg.AIProvider == "openai" {
		draftProvider = ai.NewCachedProvider(
			ai.NewOpenAIProviderWithLogger(
				cfg.OpenAIKey,
				cfg.AIBaseURL,
				cfg.AIModel,
				zapLogger,
				debugMode,
			),
			redisClient, 0, zapLogger,
		)
		zapLogger.Info("Initialized AI provider",
			zap.String("provider", cfg.AIProvider),
			zap.String("model", cfg.AIModel),
		)
	} else {
		zapLogger.Warn("AI provider not configured, drafting disabled")
	}

	// Initialize Zoom client if configured
	var meetings workers.MeetingCreator
	if cfg.ZoomConfigured() {
		zoomClient, err := zoom.NewClient(context.Background(), zoom.Config{
			ClientID:     cfg.ZoomClientID,
			ClientSecret: cfg.ZoomClientSecret,
			AccountID:    cfg.ZoomAccountID,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("Failed to create Zoom client, meetings disabled", zap.Error(err))
		} else {
			meetings = zoomClient
		}
	}

	engineOpts, err := engineOptions(cfg)
	if err != nil {
		zapLogger.Fatal("Invalid engine configuration", zap.Error(err))
	}

	// Create request processor
	processor := workers.NewProcessor(draftProvider, requestRepo, meetings, jobQueue, engineOpts)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("Failed to start consuming messages", zap.Error(err))
	}

	zapLogger.Info("Worker started, consuming messages from queue")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("Message channel closed")
					return
				}

				// Process job
				if err := processor.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("Failed to process job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("Queue error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("Shutdown signal received, stopping worker...")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("Worker stopped")
}

// engineOptions builds normalization defaults from configuration
func engineOptions(cfg *config.Config) (engine.Options, error) {
	start, err := models.ParseClock(cfg.DefaultStartTime)
	if err != nil {
		return engine.Options{}, fmt.Errorf("invalid DEFAULT_START_TIME: %w", err)
	}
	loc, err := time.LoadLocation(cfg.LocalTimezone)
	if err != nil {
		return engine.Options{}, fmt.Errorf("invalid LOCAL_TIMEZONE: %w", err)
	}
	return engine.Options{
		LocalZone:       loc,
		TimezoneRes:     timezone.NewResolver(cfg.TZAbbrOverrides),
		DefaultDuration: time.Duration(cfg.DefaultDurationMinutes) * time.Minute,
		DefaultStart:    start,
		DefaultCalendar: cfg.DefaultCalendar,
	}, nil
}
