package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/analysis"
	"github.com/kapu/channelwatch-go/internal/config"
	"github.com/kapu/channelwatch-go/internal/delta"
	"github.com/kapu/channelwatch-go/internal/domain"
	"github.com/kapu/channelwatch-go/internal/service"
	"github.com/kapu/channelwatch-go/internal/service/cache"
	"github.com/kapu/channelwatch-go/internal/service/database"
	"github.com/kapu/channelwatch-go/internal/threshold"
)

// Container bundles the assembled services the watcher needs.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Cache      *cache.CacheService
	Postgres   *database.PostgresService
	Snapshots  *database.SnapshotRepository
	History    service.HistoryProvider
	Registry   *threshold.Registry
	Collector  *service.Collector
	Calculator *delta.Calculator
	Metrics    *service.MetricsOrchestrator
	Integrator *service.DeltaTrendIntegrator

	historyRepo *database.HistoryRepository
	closers     []func()
}

// Build assembles all infrastructure and analysis services. Heavy-weight
// initialization (DB, cache, APIs) happens here so callers stay focused on
// the collect/analyze cycle.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// Storage
	postgres, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	c.Postgres = postgres
	c.closers = append(c.closers, func() { _ = postgres.Close() })

	if err := postgres.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	c.Snapshots = database.NewSnapshotRepository(postgres, logger)
	c.historyRepo = database.NewHistoryRepository(postgres, logger)
	c.History = c.historyRepo

	// Optional Redis cache in front of history reads
	if cfg.Redis.Enabled {
		cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		c.Cache = cacheSvc
		c.closers = append(c.closers, func() { _ = cacheSvc.Close() })
		c.History = service.NewCachedHistoryProvider(c.historyRepo, cacheSvc, logger)
	}

	// Thresholds
	c.Registry = threshold.NewRegistry(logger)
	if cfg.Thresholds.File != "" {
		store := threshold.NewFileStore(cfg.Thresholds.File)
		if err := c.Registry.LoadFrom(store); err != nil {
			// Defaults stay in effect when the file is absent or invalid.
			logger.Warn("Using default thresholds", zap.Error(err))
		}
	}

	// Analysis pipeline
	var detector analysis.SeasonalityDetector
	if cfg.Analysis.SeasonalityMethod == "day_of_week" {
		detector = analysis.NewWeekdayDetector()
	} else {
		detector = analysis.NewDecompositionDetector()
	}
	analyzer := analysis.NewAnalyzer(detector)
	checker := threshold.NewChecker(c.Registry, logger)

	c.Calculator = delta.NewCalculator(delta.NewSignificanceDetector(), logger)
	c.Metrics = service.NewMetricsOrchestrator(c.History, analyzer, checker, logger)
	c.Integrator = service.NewDeltaTrendIntegrator(c.Calculator, c.Metrics, logger)

	// Snapshot producer
	var sentiment *service.SentimentService
	if cfg.Gemini.EnableSentiment {
		sentiment, err = service.NewSentimentService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sentiment service: %w", err)
		}
	}

	collector, err := service.NewCollector(ctx, cfg.YouTube.APIKey, service.CollectorConfig{
		MaxVideos:           int64(cfg.YouTube.MaxVideos),
		MaxCommentsPerVideo: int64(cfg.YouTube.MaxCommentsPerVideo),
		CollectComments:     cfg.YouTube.CollectComments,
	}, sentiment, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create collector: %w", err)
	}
	c.Collector = collector

	logger.Info("Services assembled",
		zap.Int("channels", len(cfg.Watcher.Channels)),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("sentiment", cfg.Gemini.EnableSentiment))
	return c, nil
}

// DeltaOptions translates the analysis config into calculator options.
func (c *Container) DeltaOptions() delta.Options {
	return delta.Options{
		ComparisonLevel:           domain.ComparisonLevel(c.Config.Analysis.ComparisonLevel),
		TrackKeywords:             c.Config.Analysis.TrackKeywords,
		AlertOnSignificantChanges: true,
	}
}

// Close releases held resources in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
