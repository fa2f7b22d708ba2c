// internal/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"starterforge/internal/common/logger"
	"starterforge/internal/models"

	"github.com/redis/go-redis/v9"
)

const featureCachePrefix = "feature:"

// CachedAccessor fronts another Accessor with a per-slug Redis cache.
// Catalog records change only on catalog deployments, so a short TTL is
// enough to keep resolution cheap for popular features.
type CachedAccessor struct {
	inner  Accessor
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedAccessor(inner Accessor, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedAccessor {
	return &CachedAccessor{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
	}
}

// FindFeatures serves hits from Redis and batches the misses through the
// inner accessor. Cache failures degrade to inner lookups, never to
// resolution errors.
func (c *CachedAccessor) FindFeatures(ctx context.Context, slugs []string) ([]models.FeatureSpec, error) {
	cached := make(map[string]models.FeatureSpec, len(slugs))
	var misses []string

	for _, slug := range slugs {
		val, err := c.redis.Get(ctx, featureCachePrefix+slug).Result()
		if err != nil {
			misses = append(misses, slug)
			continue
		}
		var f models.FeatureSpec
		if err := json.Unmarshal([]byte(val), &f); err != nil {
			c.logger.Warn("dropping corrupt cache entry", map[string]interface{}{
				"slug":  slug,
				"error": err.Error(),
			})
			misses = append(misses, slug)
			continue
		}
		cached[slug] = f
	}

	if len(misses) > 0 {
		fetched, err := c.inner.FindFeatures(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, f := range fetched {
			cached[f.Slug] = f
			if data, err := json.Marshal(f); err == nil {
				c.redis.Set(ctx, featureCachePrefix+f.Slug, data, c.ttl)
			}
		}
	}

	out := make([]models.FeatureSpec, 0, len(cached))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		if f, ok := cached[slug]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}
