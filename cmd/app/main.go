package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"video-ai-orchestrator/internal/config"
	"video-ai-orchestrator/internal/domain/ports/adapter"
	"video-ai-orchestrator/internal/domain/ports/repository"
	aiAdapters "video-ai-orchestrator/internal/infra/adapters/ai"
	"video-ai-orchestrator/internal/infra/api"
	"video-ai-orchestrator/internal/infra/api/apiv1"
	pg "video-ai-orchestrator/internal/infra/db/postgres"
	"video-ai-orchestrator/internal/infra/logging"
	"video-ai-orchestrator/internal/infra/memstore"
	"video-ai-orchestrator/internal/infra/metrics"
	"video-ai-orchestrator/internal/infra/ratelimit"
	red "video-ai-orchestrator/internal/infra/redis"
	"video-ai-orchestrator/internal/infra/scheduler"
	"video-ai-orchestrator/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory backends, noop AI fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Storage ----
	var (
		videos   repository.VideoRepository
		channels repository.ChannelRepository
		ledger   repository.CreditLedger
	)
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		videos = pg.NewPostgresVideoRepo(pool)
		channels = pg.NewPostgresChannelRepo(pool)
		ledger = pg.NewPostgresCreditLedger(pool)
		logger.Info().Msg("storage: postgres")
	} else {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("database.url is required outside developer mode")
		}
		videos = memstore.NewVideoRepo()
		channels = memstore.NewChannelRepo()
		ledger = memstore.NewLedger()
		logger.Info().Msg("storage: in-memory")
	}

	// Pipeline and batch state is held in memory for the process lifetime.
	pipelineStore := memstore.NewPipelineStore()
	batchStore := memstore.NewBatchStore()

	// ---- Rate limiter ----
	var limiter adapter.RateLimiter
	var sweep *scheduler.Scheduler
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient, cfg.Limits.RateCapacity, time.Minute)
		logger.Info().Msg("rate limiter: redis")
	} else {
		bucketLimiter := ratelimit.NewLimiter(
			cfg.Limits.RateCapacity,
			cfg.Limits.RateRefillPerMin,
			cfg.Limits.BucketIdleTTL,
			cfg.Limits.MaxBuckets,
		)
		limiter = bucketLimiter
		sweep = scheduler.NewScheduler(time.Minute, bucketLimiter, logger)
		sweep.Start(ctx)
		defer sweep.Stop()
		logger.Info().Msg("rate limiter: in-process token bucket")
	}

	// ---- AI adapter (OpenAI -> Gemini -> noop in dev) ----
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: openai")
	case cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, 4096)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: gemini")
	case cfg.Runtime.Dev:
		ai = aiAdapters.NewNoopAIAdapter()
		logger.Warn().Msg("AI adapter: noop (no provider keys)")
	default:
		logger.Fatal().Msg("no AI provider configured: set ai.openai_key or ai.gemini_key")
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	meter := usecase.NewMeter(limiter, ledger, logger)
	transcribeUC := usecase.NewTranscriptionUseCase(videos, ai, meter, logger)
	analyzeUC := usecase.NewAnalysisUseCase(videos, ai, meter, logger)
	metadataUC := usecase.NewMetadataUseCase(videos, ai, meter, logger)
	hashtagUC := usecase.NewHashtagUseCase(videos, ai, meter, logger)
	scheduleUC := usecase.NewScheduleUseCase(channels, ai, meter, logger)

	pipelineUC := usecase.NewPipelineUseCase(pipelineStore, videos, ledger,
		transcribeUC, analyzeUC, metadataUC, hashtagUC, scheduleUC, logger)
	batchUC := usecase.NewBatchUseCase(batchStore, videos, ledger,
		transcribeUC, analyzeUC, metadataUC, hashtagUC, scheduleUC,
		meter, cfg.Limits.BatchConcurrency, logger)

	// ---- HTTP ----
	authMgr := apiv1.NewAuthManager(cfg.API.JWTSecret, 24*time.Hour)
	srv := apiv1.NewServer(pipelineUC, batchUC, authMgr, logger)

	r := chi.NewRouter()
	apiv1.RegisterAPIV1(r, srv)
	handler := api.Chain(r,
		api.TraceID(),
		api.RequestLog(logger),
		api.Recover(logger),
		api.Timeout(60*time.Second),
	)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.API.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
