// Package httpapi is the HTTP interface described in SPEC_FULL.md §6: a
// single POST /api/v1/generate endpoint plus GET /healthz and GET /metrics,
// wired through the same rate-limiting, idempotency, and redacting-logging
// middleware stack as the teacher's internal/httpapi/routes.go, with the
// teacher's admin UI, API-key, and Temporal-orchestration routes dropped —
// this gateway has no admin surface, and every caller authenticates at the
// process boundary (local CLI or a trusted reverse proxy), not per-request.
package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/driftgate/gateway/internal/credentials"
	"github.com/driftgate/gateway/internal/idempotency"
	"github.com/driftgate/gateway/internal/logging"
	"github.com/driftgate/gateway/internal/metrics"
	"github.com/driftgate/gateway/internal/ratelimit"
	"github.com/driftgate/gateway/internal/router"
	"github.com/driftgate/gateway/internal/tracing"
)

// Server holds every dependency the HTTP handlers need.
type Server struct {
	router      *router.Router
	creds       *credentials.Store
	db          *sql.DB
	metrics     *metrics.Registry
	log         *slog.Logger
	limiter     *ratelimit.Limiter
	idempotency *idempotency.Cache
	tracing     bool
}

// Config carries the tunables the HTTP layer owns. New builds the rate
// limiter and the idempotency cache from them, using 10 requests/s, a burst
// of 20 and a 5-minute TTL for fields left at zero.
type Config struct {
	RateLimitPerSecond int
	RateLimitBurst     int
	IdempotencyTTL     time.Duration
	TracingEnabled     bool
}

// New builds a Server and its dependent middleware state.
func New(r *router.Router, creds *credentials.Store, db *sql.DB, reg *metrics.Registry, log *slog.Logger, cfg Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	rate := cfg.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 20
	}
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	limiter := ratelimit.New(rate, burst, time.Second, ratelimit.WithCounter(reg.RateLimitedTotal))
	cache := idempotency.New(ttl, 10000)

	return &Server{
		router:      r,
		creds:       creds,
		db:          db,
		metrics:     reg,
		log:         log,
		limiter:     limiter,
		idempotency: cache,
		tracing:     cfg.TracingEnabled,
	}
}

// Routes builds the chi router exposed to the listener.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Idempotency-Key"},
	}))
	mux.Use(logging.RequestLogger(s.log))
	if s.tracing {
		mux.Use(tracing.Middleware())
	}

	mux.Get("/healthz", s.handleHealthz)
	mux.Get("/metrics", s.metrics.Handler().ServeHTTP)

	mux.Route("/api/v1", func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Use(idempotency.Middleware(s.idempotency))
		r.Post("/generate", s.handleGenerate)
	})

	return mux
}
