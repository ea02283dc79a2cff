package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/privymarket/settlement/internal/engine"
	"github.com/privymarket/settlement/internal/events"
	"github.com/privymarket/settlement/pkg/cache"
	"github.com/privymarket/settlement/pkg/healthprobe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes the settlement API, the event feed, metrics and
// health checks.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Engine        *engine.Engine
	Markets       *cache.MarketCache
	Hub           *events.Hub
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	h := &settlementHandler{
		engine:  cfg.Engine,
		markets: cfg.Markets,
		logger:  cfg.Logger,
	}

	r.Group(func(r chi.Router) {
		// Middleware
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(middleware.Timeout(30 * time.Second))

		// Routes
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
		r.Get("/health", cfg.HealthChecker.Health())
		r.Get("/ready", cfg.HealthChecker.Ready())

		r.Route("/api", func(r chi.Router) {
			r.Post("/initialize", h.HandleInitialize)
			r.Get("/markets", h.HandleListMarkets)
			r.Post("/markets", h.HandleCreateMarket)
			r.Get("/markets/{id}", h.HandleGetMarket)
			r.Post("/markets/{id}/resolve", h.HandleResolveMarket)
			r.Post("/markets/{id}/bets", h.HandlePlaceBet)
			r.Post("/markets/{id}/claims", h.HandleClaimWinnings)
			r.Get("/markets/{id}/positions/{address}", h.HandleGetPosition)
		})
	})

	// The feed stays outside the timeout middleware; its connections
	// are long-lived.
	if cfg.Hub != nil {
		feed := NewFeedHandler(cfg.Hub, cfg.Logger)
		r.Get("/ws", feed.HandleFeed)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}

// Handler returns the configured router. Test helper.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
