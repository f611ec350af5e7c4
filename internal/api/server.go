package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zenbox/zenbox/internal/api/handler"
	mw "github.com/zenbox/zenbox/internal/api/middleware"
	"github.com/zenbox/zenbox/internal/config"
	"github.com/zenbox/zenbox/internal/core"
	"github.com/zenbox/zenbox/internal/webhook"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	pool     *pgxpool.Pool
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, services *core.Services, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		pool:     pool,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	verifier := webhook.NewVerifier(
		s.cfg.WebhookSigningSecret,
		s.cfg.WebhookAPIKey,
		s.cfg.AllowUnsignedWebhooks,
	)
	inbound := handler.NewInbound(verifier, s.services.Ingest, s.cfg.MaxPayloadBytes, handler.Capabilities{
		SignatureVerification: s.cfg.WebhookSigningSecret != "",
		TokenVerification:     s.cfg.WebhookAPIKey != "",
		UnsignedAllowed:       s.cfg.AllowUnsignedWebhooks,
		ContentBackfill:       s.cfg.RelayAPIURL != "",
	})

	limiter := mw.NewRateLimiter(s.cfg.RateLimitPerMinute)
	s.router.Route("/inbound", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/", inbound.Receive)
		r.Get("/", inbound.Status)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
