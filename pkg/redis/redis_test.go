package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled(), "Expected client to be disabled")
	assert.Empty(t, client.Addr())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := CooldownConfig("post_open_signals_", time.Minute)

	// When Redis is disabled, all events should be allowed
	for i := 0; i < 3; i++ {
		allowed, remaining, err := limiter.Allow(context.Background(), cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, remaining)
	}
}

func TestCooldownConfig(t *testing.T) {
	cfg := CooldownConfig("945_signals_", 60*time.Second)

	assert.Equal(t, "trigger:945_signals_", cfg.Key)
	assert.Equal(t, 1, cfg.Limit)
	assert.Equal(t, 60*time.Second, cfg.Window)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found, "Expected cache miss when Redis disabled")

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
	assert.Equal(t, "closed", cache.State())
}

func TestCache_GetOrSetDisabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	calls := 0
	var dest map[string]int
	hit, err := cache.GetOrSet(context.Background(), "doc", &dest, TTLShort, func() (interface{}, error) {
		calls++
		return map[string]int{"AAPL": 6}, nil
	})

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]int{"AAPL": 6}, dest)
}

func TestDocumentKey(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		date     string
		mod      int64
		expected string
	}{
		{"scored", "scored", "2025-06-02", 1748871000, "doc:scored:2025-06-02:1748871000"},
		{"watchlist", "autowatchlist", "2025-06-02", 42, "doc:autowatchlist:2025-06-02:42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DocumentKey(tt.kind, tt.date, tt.mod))
		})
	}
}
