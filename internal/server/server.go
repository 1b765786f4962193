// Package server exposes the status and trigger surface over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"tokenwatch/internal/alert"
	"tokenwatch/internal/domain"
	"tokenwatch/internal/gateway"
	"tokenwatch/internal/monitor"
	"tokenwatch/internal/observability"
	"tokenwatch/internal/storage"
)

// Pipeline is the analysis surface the trigger endpoints call.
type Pipeline interface {
	Analyze(ctx context.Context, identifier string) (*domain.AnalysisReport, error)
	AnalyzeGold(ctx context.Context, identifier string) (*domain.AnalysisReport, error)
}

// StatusSource reports the monitor state.
type StatusSource interface {
	Status() monitor.Status
}

// Config wires a Server.
type Config struct {
	Port       int
	Pipeline   Pipeline
	Monitor    StatusSource
	Tokens     storage.TokenStore
	History    storage.AnalysisHistoryStore
	Gateway    *gateway.Gateway
	Dispatcher alert.Dispatcher
	Metrics    *observability.Metrics
	Log        zerolog.Logger
}

// Server is the HTTP status surface.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	pipeline   Pipeline
	monitor    StatusSource
	tokens     storage.TokenStore
	history    storage.AnalysisHistoryStore
	gw         *gateway.Gateway
	dispatcher alert.Dispatcher
	log        zerolog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		pipeline:   cfg.Pipeline,
		monitor:    cfg.Monitor,
		tokens:     cfg.Tokens,
		history:    cfg.History,
		gw:         cfg.Gateway,
		dispatcher: cfg.Dispatcher,
		log:        cfg.Log.With().Str("component", "server").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.Metrics)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // trigger endpoints run a full pipeline
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes(metrics *observability.Metrics) {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/suspicious-tokens", s.handleSuspiciousTokens)
	s.router.Get("/monitoring-history", s.handleMonitoringHistory)
	s.router.Post("/analyze", s.handleAnalyze)
	s.router.Post("/trigger-analysis", s.handleTriggerAnalysis)
	s.router.Post("/trigger-gold-analysis", s.handleTriggerGoldAnalysis)

	if metrics != nil {
		s.router.Handle("/metrics", metrics.Handler())
	}
}

// Handler returns the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
