package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/trip-geo-resolver/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/trip-geo-resolver/internal/adapter/kafka"
	"github.com/couchcryptid/trip-geo-resolver/internal/adapter/provider"
	"github.com/couchcryptid/trip-geo-resolver/internal/config"
	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
	"github.com/couchcryptid/trip-geo-resolver/internal/observability"
	"github.com/couchcryptid/trip-geo-resolver/internal/pipeline"
	"github.com/couchcryptid/trip-geo-resolver/internal/resolver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	geocoder, err := provider.New(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to create geocoder", "error", err)
		os.Exit(1)
	}

	cache, err := resolver.NewCache(cfg.VenueCacheSize, func(string) { metrics.CacheEvictions.Inc() })
	if err != nil {
		logger.Error("failed to create resolution cache", "error", err)
		os.Exit(1)
	}

	res := resolver.New(geocoder, domain.DefaultGazetteer(), cache, resolver.Options{
		BatchSize:  cfg.ResolveBatchSize,
		BatchDelay: cfg.ResolveBatchDelay,
		Fallback:   domain.Geo{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng},
	}, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(res, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, res, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start resolution pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	res.Close()

	logger.Info("shutdown complete")
}
