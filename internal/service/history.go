package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
	"github.com/kapu/channelwatch-go/internal/service/cache"
)

// HistoryProvider supplies a metric's historical points. Order is not
// guaranteed; callers sort.
type HistoryProvider interface {
	GetMetricHistory(ctx context.Context, metric, entityID string, start time.Time, limit int) ([]domain.TimePoint, error)
}

const historyCacheTTL = 5 * time.Minute

// CachedHistoryProvider puts a short-lived Redis cache in front of another
// provider, so repeated trend analyses of the same metric within one cycle
// hit storage once.
type CachedHistoryProvider struct {
	inner  HistoryProvider
	cache  *cache.CacheService
	logger *zap.Logger
}

func NewCachedHistoryProvider(inner HistoryProvider, cacheSvc *cache.CacheService, logger *zap.Logger) *CachedHistoryProvider {
	return &CachedHistoryProvider{inner: inner, cache: cacheSvc, logger: logger}
}

func (p *CachedHistoryProvider) GetMetricHistory(ctx context.Context, metric, entityID string, start time.Time, limit int) ([]domain.TimePoint, error) {
	key := fmt.Sprintf("history:%s:%s:%d:%d", entityID, metric, start.Unix(), limit)

	var cached []domain.TimePoint
	if err := p.cache.Get(ctx, key, &cached); err == nil && cached != nil {
		p.logger.Debug("History cache hit", zap.String("key", key), zap.Int("points", len(cached)))
		return cached, nil
	}

	points, err := p.inner.GetMetricHistory(ctx, metric, entityID, start, limit)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, points, historyCacheTTL); err != nil {
		p.logger.Warn("Failed to cache history", zap.String("key", key), zap.Error(err))
	}
	return points, nil
}
