package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides JSON caching with an in-process fallback when Redis is off
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string

	mu    sync.Mutex
	local map[string]localEntry
	now   func() time.Time
}

type localEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		local:  make(map[string]localEntry),
		now:    time.Now,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok, err := c.getBytes(ctx, c.fullKey(key))
	if err != nil || !ok {
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

func (c *Cache) getBytes(ctx context.Context, fullKey string) ([]byte, bool, error) {
	if c.client.Enabled() {
		data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("cache get failed: %w", err)
		}
		return data, true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.local[fullKey]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.local, fullKey)
		return nil, false, nil
	}
	return entry.data, true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := c.fullKey(key)
	if c.client.Enabled() {
		return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
	}

	c.mu.Lock()
	c.local[fullKey] = localEntry{data: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	fullKey := c.fullKey(key)
	if c.client.Enabled() {
		return c.client.Redis().Del(ctx, fullKey).Err()
	}

	c.mu.Lock()
	delete(c.local, fullKey)
	c.mu.Unlock()
	return nil
}

// GetOrSet retrieves from cache or calls fn to populate it.
// A failing fn is never cached.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err == nil && found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	// 캐시 저장 실패는 무시
	_ = c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// PruneLocal drops expired in-process entries and returns how many were removed.
// Redis expires its own keys, so this is a no-op when Redis is enabled.
func (c *Cache) PruneLocal() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.local {
		if !now.Before(e.expiresAt) {
			delete(c.local, k)
			removed++
		}
	}
	return removed
}

// Predefined TTLs
const (
	TTLSearch = 5 * time.Minute // 마켓 검색 결과
	TTLLookup = 24 * time.Hour  // handle -> id
)

// SearchKey is the cache key for a venue search query
func SearchKey(venue, query string) string {
	return fmt.Sprintf("search:%s:%s", venue, strings.ToLower(strings.TrimSpace(query)))
}

// LookupKey is the cache key for a resolved venue handle
func LookupKey(venue, handle string) string {
	return fmt.Sprintf("lookup:%s:%s", venue, strings.ToLower(handle))
}
