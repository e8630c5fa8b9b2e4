// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/codr1/leaguemap/internal/api"
	"github.com/codr1/leaguemap/internal/api/areas"
	"github.com/codr1/leaguemap/internal/api/leagues"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/config"
	"github.com/codr1/leaguemap/internal/db"
	"github.com/codr1/leaguemap/internal/metrics"
	"github.com/codr1/leaguemap/internal/ratelimit"
)

func newWriteLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	limits := ratelimit.DefaultConfig()
	if cfg.SaveCooldownSeconds > 0 {
		limits.Cooldown = time.Duration(cfg.SaveCooldownSeconds) * time.Second
	}
	if cfg.SaveMaxPerHour > 0 {
		limits.MaxPerHour = cfg.SaveMaxPerHour
	}
	limits.TrustProxy = cfg.TrustProxy
	return ratelimit.New(limits)
}

func newServer(cfg *config.Config, database *db.DB, catalog *boundaries.Catalog, limiter *ratelimit.Limiter) *http.Server {
	router := http.NewServeMux()

	leagues.InitHandlers(catalog, database, database)
	areas.InitHandlers(catalog, database)

	// Outermost last: request ids are assigned before logging runs.
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithJSONDefault,
	)

	registerRoutes(router, limiter, cfg.Features.EnableMetrics)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, limiter *ratelimit.Limiter, enableMetrics bool) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// League routes
	mux.HandleFunc("GET /api/v1/leagues", leagues.HandleLeaguesList)
	mux.HandleFunc("GET /api/v1/leagues/resolve", leagues.HandleResolve)
	mux.HandleFunc("GET /api/v1/leagues/statistics", leagues.HandleStatistics)

	// Area routes
	mux.HandleFunc("GET /api/v1/areas", areas.HandleAreasList)
	mux.Handle("PUT /api/v1/areas", limiter.Middleware(http.HandlerFunc(areas.HandleAreasReplace)))

	if enableMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}
}
