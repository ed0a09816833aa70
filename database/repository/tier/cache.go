package tierRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tidycrm/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// cachedTierRepo caches per-package tier lists in Redis. Tier data changes
// rarely and is read on every pricing resolution, so a short TTL cache keeps
// the hot path off mongo. Cache failures fall through to the inner repo.
type cachedTierRepo struct {
	inner TierRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedTierRepo wraps inner with a Redis cache layer.
func NewCachedTierRepo(inner TierRepository, cache *redis.Client, ttl time.Duration) TierRepository {
	return &cachedTierRepo{inner: inner, cache: cache, ttl: ttl}
}

func tierCacheKey(packageID string) string {
	return fmt.Sprintf("tiers:%s", packageID)
}

func (r *cachedTierRepo) ListByPackage(ctx context.Context, packageID string) ([]models.PricingTier, error) {
	key := tierCacheKey(packageID)

	if data, err := r.cache.Get(ctx, key).Result(); err == nil {
		var tiers []models.PricingTier
		if err := json.Unmarshal([]byte(data), &tiers); err == nil {
			return tiers, nil
		}
		// Corrupt entry; drop it and refill from the store.
		r.cache.Del(ctx, key)
	}

	tiers, err := r.inner.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tiers); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl).Err(); err != nil {
			zap.L().Warn("failed to cache tier list", zap.String("packageId", packageID), zap.Error(err))
		}
	}
	return tiers, nil
}
