// Package api provides the read-only admin HTTP API for inspecting the bot's tag store.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/serousbot/serousbot/internal/ledger"
	"github.com/serousbot/serousbot/internal/ratelimit"
	"github.com/serousbot/serousbot/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store   *store.Store
	ledger  *ledger.Ledger
	limiter *ratelimit.KeyedRateLimiter
	router  *chi.Mux
	api     huma.API
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// limiter may be nil to disable per-IP rate limiting.
func NewServer(store *store.Store, ledger *ledger.Ledger, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		store:   store,
		ledger:  ledger,
		limiter: limiter,
		router:  chi.NewRouter(),
		logger:  logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Serous Bot Admin API", "1.0.0")
	humaConfig.Info.Description = "Read-only access to stored tags and bot state."
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerTagRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}
