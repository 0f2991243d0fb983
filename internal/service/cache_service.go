package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"contact-api/internal/domain"
	"contact-api/pkg/redis"

	"go.uber.org/zap"
)

// CacheService caches the dashboard snapshot in Redis (cache-aside)
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// GetStats returns the cached snapshot. Misses, Redis errors and corrupt
// entries all report false so the caller reads from storage.
func (c *CacheService) GetStats(ctx context.Context) (*domain.ContactStats, bool) {
	cacheKey := c.redis.KeyBuilder.KeyContactStats()

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Stats cache error, falling back to database", zap.Error(err))
		}
		return nil, false
	}

	var stats domain.ContactStats
	if err := json.Unmarshal([]byte(cachedData), &stats); err != nil {
		c.logger.Warn("Stats cache corrupted, falling back to database", zap.Error(err))
		return nil, false
	}

	c.logger.Debug("Stats cache hit")
	return &stats, true
}

// SetStats stores the snapshot for redis.TTLContactStats
func (c *CacheService) SetStats(ctx context.Context, stats *domain.ContactStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		c.logger.Error("Failed to marshal stats for caching", zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyContactStats(), string(data), redis.TTLContactStats); err != nil {
		c.logger.Error("Failed to cache stats", zap.Error(err))
		return
	}
	c.logger.Debug("Stats cached successfully")
}

// InvalidateStats drops the cached snapshot after a write
func (c *CacheService) InvalidateStats(ctx context.Context) {
	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyContactStats()); err != nil {
		c.logger.Error("Failed to invalidate stats cache", zap.Error(err))
	}
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}
