package cmd

import (
	"context"
	"fmt"

	"jsoncache/core/cache"
	"jsoncache/core/config"
	"jsoncache/core/logger"
	"jsoncache/core/metrics"
	"jsoncache/core/storage"

	"go.uber.org/zap"
)

// instance bundles what every command needs once configuration is loaded.
type instance struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
	coord   *cache.Coordinator
}

// bootstrap loads configuration, builds the logger and loads every source.
func bootstrap(ctx context.Context) (*instance, error) {
	cfg, err := config.LoadConfig(".", configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.File != "" {
		log.Debug("Configuration file loaded", zap.String("file", cfg.File))
	}

	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(metrics.DefaultNamespace, log)
	coord := cache.NewCoordinator(
		cache.WithLogger(log),
		cache.WithFetcher(fetcher),
		cache.WithRecorder(collector),
	)

	results, err := coord.LoadAll(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	log.Info("Cache ready",
		zap.Int("sources", len(results)),
		zap.Strings("loaded", coord.LoadedSources()),
		zap.String("primary", coord.PrimarySource()),
	)

	return &instance{cfg: cfg, log: log, metrics: collector, coord: coord}, nil
}

// newFetcher reads local files and, when storage is configured, s3:// objects.
func newFetcher(ctx context.Context, cfg *config.Config) (cache.Fetcher, error) {
	fetcher := cache.RoutingFetcher{Files: cache.FileFetcher{}}
	if !cfg.Storage.Enabled() {
		return fetcher, nil
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if err := storage.CheckBuckets(ctx, client, cfg.ObjectBuckets()); err != nil {
		return nil, err
	}
	fetcher.Objects = cache.ObjectFetcher{Client: client}
	return fetcher, nil
}
