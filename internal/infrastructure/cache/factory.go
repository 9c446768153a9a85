package cache

import (
	"fmt"

	"github.com/markethub/backend/internal/application/analytics"
	"github.com/markethub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Cache is a dashboard cache whose underlying resources can be
// released on shutdown. Both RedisCache and InMemoryCache satisfy it.
type Cache interface {
	analytics.Cache
	Close() error
}

// CacheFactory creates caches based on configuration
type CacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CacheFactoryOption is a functional option for configuring the factory
type CacheFactoryOption func(*CacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) CacheFactoryOption {
	return func(f *CacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory
// cache when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) CacheFactoryOption {
	return func(f *CacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCacheFactory creates a new factory
func NewCacheFactory(cfg config.RedisConfig, opts ...CacheFactoryOption) *CacheFactory {
	f := &CacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed cache
func (f *CacheFactory) CreateRedisCache() (Cache, error) {
	cache, err := NewRedisCache(f.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis cache: %w", err)
	}
	return cache, nil
}

// CreateInMemoryCache creates an in-memory cache
func (f *CacheFactory) CreateInMemoryCache() Cache {
	return NewInMemoryCache(WithInMemoryLogger(f.logger))
}

// CreateCache tries Redis first and falls back to the in-memory cache
// when Redis is unavailable and fallback is allowed
func (f *CacheFactory) CreateCache() (Cache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for caching but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cache. "+
		"Cached snapshots will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
