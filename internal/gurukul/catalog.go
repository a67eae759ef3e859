package gurukul

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const catalogCacheKey = "gurukul:catalog"

// CatalogCache keeps the storefront catalog in redis for the configured TTL.
// A cache miss or redis failure falls through to the database read.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCatalogCache constructs CatalogCache. A nil client disables caching.
func NewCatalogCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached catalog, or false on a miss.
func (c *CatalogCache) Get(ctx context.Context) (Catalog, bool) {
	if c == nil || c.client == nil {
		return Catalog{}, false
	}
	payload, err := c.client.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", slog.Any("error", err))
		}
		return Catalog{}, false
	}
	var catalog Catalog
	if err := json.Unmarshal(payload, &catalog); err != nil {
		c.logger.Warn("catalog cache payload corrupt", slog.Any("error", err))
		return Catalog{}, false
	}
	return catalog, true
}

// Set stores the catalog for the TTL.
func (c *CatalogCache) Set(ctx context.Context, catalog Catalog) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, catalogCacheKey, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", slog.Any("error", err))
	}
}

// Invalidate drops the cached catalog. Called on any write that changes what
// the storefront shows.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, catalogCacheKey).Err(); err != nil {
		c.logger.Warn("catalog cache invalidate failed", slog.Any("error", err))
	}
}
