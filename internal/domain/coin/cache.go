package coin

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	baseRateCacheKey = "coin:pricing:base_rate"
	tiersCacheKey    = "coin:pricing:tiers"
)

// CachedPricingStore serves pricing reads from Redis and falls through to the
// wrapped store on a miss or any Redis error.
type CachedPricingStore struct {
	next  PricingStore
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedPricingStore wraps next with a Redis cache
func NewCachedPricingStore(next PricingStore, client *redis.Client, ttl time.Duration) *CachedPricingStore {
	return &CachedPricingStore{next: next, redis: client, ttl: ttl}
}

func (c *CachedPricingStore) GetBaseRate(ctx context.Context) (*BaseRate, error) {
	var rate BaseRate
	if c.get(ctx, baseRateCacheKey, &rate) {
		return &rate, nil
	}
	loaded, err := c.next.GetBaseRate(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, baseRateCacheKey, loaded)
	return loaded, nil
}

func (c *CachedPricingStore) GetActiveTiers(ctx context.Context) ([]PricingTier, error) {
	var tiers []PricingTier
	if c.get(ctx, tiersCacheKey, &tiers) {
		return tiers, nil
	}
	loaded, err := c.next.GetActiveTiers(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, tiersCacheKey, loaded)
	return loaded, nil
}

// Invalidate drops cached pricing after an admin change
func (c *CachedPricingStore) Invalidate(ctx context.Context) {
	if err := c.redis.Del(ctx, baseRateCacheKey, tiersCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate pricing cache")
	}
}

func (c *CachedPricingStore) get(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Pricing cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Pricing cache entry is corrupt")
		return false
	}
	return true
}

func (c *CachedPricingStore) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Pricing cache write failed")
	}
}
