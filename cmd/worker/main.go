/**
 * Lobbyscan Worker - Main Entry Point
 *
 * Go worker that turns match-result lobby screenshots into validated
 * placement mappings.
 *
 * Architecture:
 * - Asynq consumer for the Redis-backed scan queue
 * - Pluggable OCR engines: Tesseract (local) and Cloud Vision (cloud)
 * - Structuring pipeline: classify → merge → extract → associate → validate
 * - Roster cache refreshed from a Google Sheet for name cross-validation
 * - PostgreSQL persistence for scan results and review queue
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rankline/lobbyscan-worker/internal/config"
	"github.com/rankline/lobbyscan-worker/internal/logging"
	"github.com/rankline/lobbyscan-worker/internal/ocrengine"
	"github.com/rankline/lobbyscan-worker/internal/pipeline"
	"github.com/rankline/lobbyscan-worker/internal/queue"
	"github.com/rankline/lobbyscan-worker/internal/roster"
	"github.com/rankline/lobbyscan-worker/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.NewLogger("worker", logging.LevelInfo).Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	logger := logging.NewLogger("worker", logging.ParseLevel(cfg.LogLevel))
	logger.Info("lobbyscan worker starting",
		"queue", cfg.QueueName,
		"engine", cfg.DefaultEngine,
		"concurrency", cfg.WorkerConcurrency,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewSubmissionStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err.Error())
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("storage initialized")

	engines := map[string]ocrengine.Engine{
		"local": ocrengine.NewTesseract(cfg.TesseractLang),
	}
	if cfg.VisionAPIKey != "" {
		cloud, err := ocrengine.NewVision(ctx, cfg.VisionAPIKey)
		if err != nil {
			logger.Error("failed to initialize cloud OCR engine", "error", err.Error())
			os.Exit(1)
		}
		engines["cloud"] = cloud
	}
	logger.Info("OCR engines initialized", "count", len(engines), "default", cfg.DefaultEngine)

	var rosterCache *roster.Cache
	var rosterLookup pipeline.RosterLookup
	if cfg.RosterSheetID != "" {
		loader, err := roster.NewSheetLoader(ctx, cfg.SheetsAPIKey, cfg.RosterSheetID, cfg.RosterSheetRange)
		if err != nil {
			logger.Error("failed to initialize roster loader", "error", err.Error())
			os.Exit(1)
		}
		rosterCache = roster.NewCache(loader, cfg.RosterTTL)
		if err := rosterCache.Refresh(ctx); err != nil {
			// Names stay un-validated until the refresh loop succeeds.
			logger.Warn("initial roster refresh failed", "error", err.Error())
		} else {
			logger.Info("roster loaded", "players", rosterCache.Size())
		}
		rosterLookup = rosterCache.Lookup
		go rosterRefreshLoop(ctx, rosterCache, cfg.RosterTTL, logger)
	} else {
		logger.Info("no roster sheet configured, name cross-validation disabled")
	}

	timestampEnabled := cfg.TimestampPatternEnabled
	pipe, err := pipeline.New(pipeline.Options{
		ConfidenceThreshold:       cfg.ConfidenceThreshold,
		UIKeywords:                cfg.UIKeywords,
		TimestampPatternEnabled:   &timestampEnabled,
		MergeGapFactor:            cfg.MergeGapFactor,
		MaxVerticalDistanceFactor: cfg.MaxVerticalDistanceFactor,
		Roster:                    rosterLookup,
		Logger:                    logging.NewLogger("pipeline", logging.ParseLevel(cfg.LogLevel)),
	})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err.Error())
		os.Exit(1)
	}

	scanner, err := queue.NewScanner(engines, cfg.DefaultEngine, pipe, store, cfg.MaxImageSize,
		logging.NewLogger("scanner", logging.ParseLevel(cfg.LogLevel)))
	if err != nil {
		logger.Error("failed to build scanner", "error", err.Error())
		os.Exit(1)
	}

	publisher, err := queue.NewPublisher(cfg.RedisURL, cfg.QueueName,
		logging.NewLogger("publisher", logging.ParseLevel(cfg.LogLevel)))
	if err != nil {
		logger.Error("failed to connect status publisher", "error", err.Error())
		os.Exit(1)
	}
	defer publisher.Close()

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		ProcessingTimeout: cfg.ProcessingTimeout,
	}, scanner, publisher, logging.NewLogger("queue", logging.ParseLevel(cfg.LogLevel)))
	if err != nil {
		logger.Error("failed to initialize queue consumer", "error", err.Error())
		os.Exit(1)
	}

	consumerErr := consumer.Start()
	logger.Info("lobbyscan worker ready, waiting for scans")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-consumerErr:
		if err != nil {
			logger.Error("queue consumer failed", "error", err.Error())
		}
	}

	cancel()
	consumer.Stop()

	if err := store.Close(); err != nil {
		logger.Warn("error closing storage", "error", err.Error())
	}
	logger.Info("shutdown complete")
}

// rosterRefreshLoop polls staleness and refreshes the roster in the
// background. A failed refresh keeps the previous snapshot.
func rosterRefreshLoop(ctx context.Context, cache *roster.Cache, ttl time.Duration, logger *logging.Logger) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !cache.IsStale() {
				continue
			}
			refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := cache.Refresh(refreshCtx)
			cancel()
			if err != nil {
				logger.Warn("roster refresh failed", "error", err.Error())
				continue
			}
			logger.Info("roster refreshed", "players", cache.Size())
		}
	}
}
