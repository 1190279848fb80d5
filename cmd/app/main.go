// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fitness-ai-generation/internal/config"
	"fitness-ai-generation/internal/domain/ports/adapter"
	gen "fitness-ai-generation/internal/infra/adapters/generation"
	"fitness-ai-generation/internal/infra/backoff"
	pg "fitness-ai-generation/internal/infra/db/postgres"
	"fitness-ai-generation/internal/infra/logging"
	"fitness-ai-generation/internal/infra/metrics"
	"fitness-ai-generation/internal/infra/plansink"
	red "fitness-ai-generation/internal/infra/redis"
	"fitness-ai-generation/internal/infra/web"
	"fitness-ai-generation/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory generation service)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	planCache := red.NewPlanCache(redisClient, cfg.Redis.TTL)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Repositories & sink ----
	planRepo := pg.NewPostgresPlanRepo(pool)
	txm := pg.NewTxManager(pool)
	planSink := plansink.New(planRepo, txm, planCache, logger)

	// ---- Generation service adapter ----
	var svc adapter.GenerationServiceAdapter
	if cfg.Runtime.Dev {
		svc = gen.NewNoopService(2)
		logger.Info().Msg("generation adapter: noop (dev)")
	} else {
		svc, err = gen.NewHTTPClient(cfg.Generation.BaseURL, cfg.Generation.APIKey, cfg.Generation.RequestTimeout)
		if err != nil {
			log.Fatalf("generation adapter: %v", err)
		}
		logger.Info().Str("base_url", cfg.Generation.BaseURL).Msg("generation adapter: http")
	}

	// ---- Orchestration ----
	manager := usecase.NewGenerationManager(svc, backoff.Config{
		InitialInterval: cfg.Generation.InitialInterval,
		MaxInterval:     cfg.Generation.MaxInterval,
		GrowthFactor:    cfg.Generation.GrowthFactor,
		GrowthEveryN:    cfg.Generation.GrowthEveryN,
	}, planSink, nil, cfg.Generation.MaxAttempts, logger)

	// ---- HTTP server ----
	srv := web.NewServer(&cfg.Server, manager, planSink, limiter, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
