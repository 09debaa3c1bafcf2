package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/flood-impact-service/internal/adapter/geofile"
	httpadapter "github.com/couchcryptid/flood-impact-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-impact-service/internal/adapter/xlsx"
	"github.com/couchcryptid/flood-impact-service/internal/config"
	"github.com/couchcryptid/flood-impact-service/internal/loader"
	"github.com/couchcryptid/flood-impact-service/internal/observability"
	"github.com/couchcryptid/flood-impact-service/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may be set some other way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cache := loader.NewCache(
		geofile.NewReader(logger),
		xlsx.NewReader(cfg.BusinessSheet, logger),
		metrics,
		logger,
	)

	// Snapshot publishing is feature-flagged via SNAPSHOT_ENABLED / SNAPSHOT_TOPIC.
	var (
		publisher pipeline.SnapshotPublisher
		closer    func() error
	)
	if cfg.SnapshotEnabled {
		p := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.SnapshotTopic, cfg.SnapshotTimeout, logger)
		publisher, closer = p, p.Close
		metrics.SnapshotsEnabled.Set(1)
		logger.Info("snapshot publishing enabled", "topic", cfg.SnapshotTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	dash := pipeline.New(pipeline.Options{
		Catalog:         cfg.Catalog.Resolve(cfg.DataDir),
		DefaultScenario: cfg.DefaultScenario,
		Tiles:           cfg.MapTiles,
	}, cache, publisher, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dash.Init(ctx); err != nil {
		logger.Error("failed to load geographic data", "data_dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	logger.Info("data loaded", "sources", cache.Len())

	srv := httpadapter.NewServer(cfg.HTTPAddr, dash, httpadapter.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closer != nil {
		if err := closer(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
