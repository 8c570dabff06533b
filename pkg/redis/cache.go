package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client  *Client
	prefix  string
	breaker *gobreaker.CircuitBreaker
}

// NewCache creates a new cache helper
// Redis 장애 시 breaker가 열리고 호출자는 디스크에서 직접 읽음
func NewCache(client *Client, prefix string) *Cache {
	st := gobreaker.Settings{
		Name:     prefix + "-redis",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// A cache miss is not a failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	}

	return &Cache{
		client:  client,
		prefix:  prefix,
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	})
	if err != nil {
		// Key not found, breaker open and transport errors all read as a miss
		return false, nil
	}

	if err := json.Unmarshal(out.([]byte), dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
	})
	return err
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Redis().Del(ctx, c.fullKey(key)).Err()
	})
	return err
}

// GetOrSet retrieves from cache or calls fn to populate it
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) (bool, error) {
	// Try cache first
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return false, err
	}
	if found {
		return true, nil
	}

	// Cache miss - call function
	value, err := fn()
	if err != nil {
		return false, err
	}

	// Store in cache, failure only costs the next lookup
	_ = c.Set(ctx, key, value, ttl)

	// Unmarshal into dest
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache marshal failed: %w", err)
	}
	return false, json.Unmarshal(data, dest)
}

// State reports the breaker state (closed, half-open, open)
func (c *Cache) State() string {
	return c.breaker.State().String()
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Predefined TTLs
const (
	TTLShort  = 30 * time.Second // 장중 갱신되는 문서
	TTLMedium = 5 * time.Minute
	TTLDaily  = 24 * time.Hour // 전일 스냅샷
)

// DocumentKey keys a snapshot document by kind, date and file mtime so a
// rewrite of the file invalidates the entry without explicit deletes
func DocumentKey(kind string, date string, modUnixNano int64) string {
	return fmt.Sprintf("doc:%s:%s:%d", kind, date, modUnixNano)
}
