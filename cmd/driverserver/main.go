package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tiffinarca/driver-server-sub000/internal/api"
	"github.com/tiffinarca/driver-server-sub000/internal/assignment"
	"github.com/tiffinarca/driver-server-sub000/internal/config"
	"github.com/tiffinarca/driver-server-sub000/internal/events"
	"github.com/tiffinarca/driver-server-sub000/internal/registry"
	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var publisher events.Publisher
	if cfg.Events.URL != "" {
		p, err := events.NewNATSPublisher(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			publisher = p
			defer p.Close()
			logger.Info("connected to event bus")
		}
	}

	// Engine and strategy registry
	engine := assignment.NewEngine(db, publisher, cfg.Assignment.LookbackDays, logger)
	weights, err := assignment.NewWeightConfig(
		cfg.Scoring.Weights.Location,
		cfg.Scoring.Weights.Proximity,
		cfg.Scoring.Weights.Performance,
		cfg.Scoring.Weights.Workload,
	)
	if err != nil {
		logger.Warn("invalid configured weights, using defaults", "error", err)
		weights = assignment.DefaultWeights()
	}
	reg, err := registry.New(engine, db, registry.Options{
		DefaultStrategy: cfg.Assignment.DefaultStrategy,
		Weights:         weights,
		LookbackDays:    cfg.Assignment.LookbackDays,
		MaxPerDriver:    cfg.Assignment.MaxAssignmentsPerDriver,
	}, registry.NewMetricsStore(), logger)
	if err != nil {
		logger.Error("failed to build strategy registry", "error", err)
		os.Exit(1)
	}

	// API server
	router := api.NewRouter(reg, cfg.Assignment.GeoPrefilterEnabled, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
