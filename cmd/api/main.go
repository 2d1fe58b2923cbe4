// Package main is the entry point for the ELD Logbook API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/eld-logbook/internal/clock"
	"github.com/pkordes/eld-logbook/internal/config"
	"github.com/pkordes/eld-logbook/internal/events"
	"github.com/pkordes/eld-logbook/internal/handler"
	"github.com/pkordes/eld-logbook/internal/hos"
	"github.com/pkordes/eld-logbook/internal/metrics"
	"github.com/pkordes/eld-logbook/internal/middleware"
	"github.com/pkordes/eld-logbook/internal/repo"
	"github.com/pkordes/eld-logbook/internal/routing"
	"github.com/pkordes/eld-logbook/internal/service"
	"github.com/pkordes/eld-logbook/migrations"
	"github.com/pkordes/eld-logbook/spec"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := migrate(context.Background(), pool); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// --- Metrics ----------------------------------------------------------
	m := metrics.NewWithLogger(logger)
	m.StartPoolStatsCollector(func() metrics.PoolStats {
		s := pool.Stat()
		return metrics.PoolStats{
			Total:           s.TotalConns(),
			Acquired:        s.AcquiredConns(),
			Idle:            s.IdleConns(),
			AcquireDuration: s.AcquireDuration(),
		}
	}, 15*time.Second)

	// --- Events -----------------------------------------------------------
	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Error("failed to connect to message broker", "error", err)
			os.Exit(1)
		}
		publisher = p
		slog.Info("publishing log events", "exchange", cfg.AMQPExchange)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("closing event publisher", "error", err)
		}
	}()

	// --- Services ---------------------------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	logRepo := repo.NewActivityLogRepo(pool)

	// A nil Router leaves trips unrouted; assign only a concrete client so the
	// interface is never a typed nil.
	var router service.Router
	if cfg.ORSAPIKey != "" {
		client, err := routing.NewClient(cfg.ORSAPIKey,
			routing.WithBaseURL(cfg.ORSBaseURL),
			routing.WithProfile(cfg.ORSProfile),
			routing.WithRateLimit(cfg.ORSRequestsPerMinute),
			routing.WithGeocodeCache(repo.NewGeocodeCache(pool)),
			routing.WithLogger(logger),
		)
		if err != nil {
			slog.Error("failed to create routing client", "error", err)
			os.Exit(1)
		}
		router = client
	} else {
		slog.Warn("ORS_API_KEY not set; trips will be stored without route data")
	}

	clk := clock.Real{}
	generator := hos.NewGenerator(hos.WithClock(clk), hos.WithTimestampMode(cfg.TimestampMode))
	tripSvc := service.NewTripService(tripRepo, router, logger)
	logSvc := service.NewLogService(tripRepo, logRepo, generator, publisher, m, logger, service.WithEventClock(clk))

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer,
	// then metrics, CORS, body limit and compression.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewMetricsHandler(m))
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewGzipHandler())

	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	r.Mount("/", handler.NewServer(tripSvc, logSvc, logger, spec.OpenAPI).Routes())

	// --- HTTP Server ------------------------------------------------------
	// PDF exports of long runs take longer than a plain JSON response.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	m.Shutdown()
	slog.Info("server stopped")
}

// migrate brings the schema up to date through a database/sql handle that
// shares the pool's configuration.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration)
	}
	return nil
}
