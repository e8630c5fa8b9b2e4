// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/config"
	"github.com/codr1/leaguemap/internal/db"
	"github.com/codr1/leaguemap/internal/email"
	"github.com/codr1/leaguemap/internal/metrics"
	"github.com/codr1/leaguemap/internal/scheduler"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func loadCatalog(cfg *config.Config) (*boundaries.Catalog, error) {
	if cfg.Leagues.CatalogFile != "" {
		return boundaries.LoadCatalogFile(cfg.Leagues.CatalogFile)
	}
	return boundaries.LoadEmbeddedCatalog()
}

// newNotifier returns nil when email is not configured; the reassignment
// sweep then only logs.
func newNotifier(ctx context.Context, cfg *config.Config) (scheduler.Notifier, error) {
	if !cfg.Email.Enabled() {
		return nil, nil
	}
	client, err := email.NewSESClient(ctx, cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	return email.NewNotifier(client, cfg.Email.Admins), nil
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config/app.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg)
	shutdownTimeout := time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load league catalog")
	}
	log.Info().Int("leagues", catalog.Len()).Msg("League catalog loaded")

	if cfg.Features.EnableMetrics {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			log.Fatal().Err(err).Msg("Failed to register metrics")
		}
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.ReassignCron != "" {
		notifier, err := newNotifier(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure email")
		}
		if err := scheduler.Init(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize scheduler")
		}
		svc, err := scheduler.ServiceInstance()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get scheduler")
		}
		if _, err := scheduler.RegisterReassignJob(svc, cfg.Scheduler.ReassignCron, database, catalog, notifier); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule league reassignment")
		}
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
		defer func() {
			if err := scheduler.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}()
	}

	limiter := newWriteLimiter(cfg.RateLimit)
	defer limiter.Close()

	server := newServer(cfg, database, catalog, limiter)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
