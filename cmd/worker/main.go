package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/edvin/doctree/internal/activity"
	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/config"
	"github.com/edvin/doctree/internal/db"
	"github.com/edvin/doctree/internal/llm"
	"github.com/edvin/doctree/internal/logging"
	"github.com/edvin/doctree/internal/metrics"
	"github.com/edvin/doctree/internal/storage"
	"github.com/edvin/doctree/internal/tts"
	"github.com/edvin/doctree/internal/workflow"
)

const taskQueue = "doctree-tasks"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	pricing, err := config.LoadPricing(cfg.PricingFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load pricing")
	}
	meter := billing.NewMeter(billing.NewPGSubscriptionStore(pool), billing.NewPGUsageStore(pool), pricing)

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	ttsClient := tts.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.TTSModel)
	audioStore := storage.NewAudioStore(logger, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)

	w := worker.New(tc, taskQueue, worker.Options{})

	podcastActivities := activity.NewPodcastActivities(pool, llmClient, ttsClient, audioStore, meter)
	w.RegisterActivity(podcastActivities)

	w.RegisterWorkflow(workflow.GeneratePodcastWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", taskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}
