package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache is a short-TTL read-side cache for query results that are
// expensive to assemble (holdings joined with latest closes, paginated
// listings). It is invalidated by ledger writes; the statistics freshness
// cache in Postgres is a separate mechanism and does not live here.
type ResponseCache struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewResponseCache creates a new response cache
func NewResponseCache(redis *RedisCache, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		redis: redis,
		ttl:   ttl,
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyHoldings is for a collection's holdings joined with prices
	CacheKeyHoldings CacheKeyType = "holdings"
	// CacheKeyTransactions is for a portfolio's transaction log
	CacheKeyTransactions CacheKeyType = "txs"
	// CacheKeyListings is for paginated collection listings
	CacheKeyListings CacheKeyType = "listings"
)

// Key generates a cache key for a given type and parameters.
// Format: <type>:<param1>:<param2>:...
func (c *ResponseCache) Key(keyType CacheKeyType, params ...string) string {
	normalized := make([]string, len(params))
	for i, param := range params {
		normalized[i] = strings.ToLower(param)
	}

	parts := append([]string{string(keyType)}, normalized...)
	return strings.Join(parts, ":")
}

// HoldingsKey generates the cache key for a collection's holdings
func (c *ResponseCache) HoldingsKey(collectionID int64) string {
	return c.Key(CacheKeyHoldings, fmt.Sprintf("%d", collectionID))
}

// TransactionsKey generates the cache key for a portfolio's transactions
func (c *ResponseCache) TransactionsKey(collectionID int64) string {
	return c.Key(CacheKeyTransactions, fmt.Sprintf("%d", collectionID))
}

// PublicListingsKey generates the cache key for one page of the public
// stock list directory
func (c *ResponseCache) PublicListingsKey(offset, limit int) string {
	return c.Key(CacheKeyListings, "public", fmt.Sprintf("%d", offset), fmt.Sprintf("%d", limit))
}

// Set stores a value in cache with the configured TTL
func (c *ResponseCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redis.Set(ctx, key, data, c.ttl)
}

// Get retrieves a value from cache and deserializes it. A miss is reported
// as (false, nil), not an error.
func (c *ResponseCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return true, nil
}

// Invalidate removes one or more keys from cache
func (c *ResponseCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...)
}

// InvalidatePattern removes all keys matching a pattern
func (c *ResponseCache) InvalidatePattern(ctx context.Context, pattern string) error {
	keys, err := c.redis.Keys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to find keys matching pattern: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	return c.redis.Del(ctx, keys...)
}

// InvalidatePublicListings drops every cached page of the public stock
// list directory. Called when a public stock list appears or disappears;
// page boundaries shift, so all pages go at once.
func (c *ResponseCache) InvalidatePublicListings(ctx context.Context) error {
	return c.InvalidatePattern(ctx, c.Key(CacheKeyListings, "public")+":*")
}

// InvalidateCollection drops every cached read for one collection. Called
// after any ledger write touching the collection.
func (c *ResponseCache) InvalidateCollection(ctx context.Context, collectionID int64) error {
	if err := c.Invalidate(ctx,
		c.HoldingsKey(collectionID),
		c.TransactionsKey(collectionID),
	); err != nil {
		return fmt.Errorf("failed to invalidate collection cache: %w", err)
	}
	return nil
}
