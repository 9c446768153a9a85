package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/application/analytics"
	"github.com/markethub/backend/internal/infrastructure/config"
)

func TestCacheFactory_FallsBackToInMemory(t *testing.T) {
	// Port 1 is never a Redis server, so CreateCache must fall back.
	factory := NewCacheFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1})

	c, err := factory.CreateCache()
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*InMemoryCache)
	assert.True(t, ok, "expected in-memory fallback when Redis is unreachable")

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	value, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

func TestCacheFactory_NoFallbackWhenDisallowed(t *testing.T) {
	factory := NewCacheFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1},
		WithInMemoryFallback(false))

	_, err := factory.CreateCache()
	assert.Error(t, err)
}

func TestCacheFactory_CachesAreClosable(t *testing.T) {
	factory := NewCacheFactory(config.RedisConfig{})

	c := factory.CreateInMemoryCache()

	// The factory's caches must release their resources on shutdown
	// and still satisfy the dashboard's cache contract.
	var _ analytics.Cache = c
	assert.NoError(t, c.Close())
}
