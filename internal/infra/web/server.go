package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fitness-ai-generation/internal/config"
	red "fitness-ai-generation/internal/infra/redis"
	"fitness-ai-generation/internal/usecase"
)

// Server exposes the generation orchestrator over HTTP: start, live status,
// cancel, latest plan, plus health and metrics.
type Server struct {
	manager    usecase.GenerationManager
	plans      PlanReader
	auth       *AuthManager
	apiKey     string
	limiter    *red.RateLimiter // optional; nil disables start rate limiting
	rateLimit  int
	rateWindow time.Duration
	log        *zerolog.Logger
	server     *http.Server
}

func NewServer(cfg *config.ServerConfig, manager usecase.GenerationManager, plans PlanReader, limiter *red.RateLimiter, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	s := &Server{
		manager:    manager,
		plans:      plans,
		auth:       NewAuthManager(cfg.JWTSecret, false, "", cfg.SessionTTL),
		apiKey:     cfg.APIKey,
		limiter:    limiter,
		rateLimit:  cfg.StartRateLimit,
		rateWindow: cfg.StartRateWindow,
		log:        &webLog,
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/generations", s.handleStart)
		r.Get("/generations/active", s.handleStatus)
		r.Delete("/generations/active", s.handleCancel)
		r.Get("/plans/latest", s.handleLatestPlan)
		r.Post("/session", s.handleMintSession)
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
