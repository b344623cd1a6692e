package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
	"github.com/merchantpulse/pricing-backend/pkg/metrics"
	"github.com/merchantpulse/pricing-backend/pkg/redis"
)

// ResolutionCache stores resolution results in Redis under generation-stamped
// keys. Invalidation bumps a generation counter (global or per-variant)
// instead of scanning keys; stale entries simply expire by TTL.
type ResolutionCache struct {
	client *redis.Client
	ttl    time.Duration
	metr   *metrics.PricingMetrics
	logg   *logger.Logger
	now    func() time.Time
}

// NewResolutionCache builds the cache layer. A nil client disables caching:
// every lookup misses and writes are dropped.
func NewResolutionCache(client *redis.Client, ttl time.Duration, metr *metrics.PricingMetrics, logg *logger.Logger) *ResolutionCache {
	return &ResolutionCache{client: client, ttl: ttl, metr: metr, logg: logg, now: time.Now}
}

// cachedResolution wraps the result so misses can be cached alongside hits.
type cachedResolution struct {
	Found bool          `json:"found"`
	Price *models.Price `json:"price,omitempty"`
}

func (c *ResolutionCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get returns the cached resolution for (variant, context key). The second
// return reports whether the cache held an entry at all; a true with a nil
// price is a cached resolution miss.
func (c *ResolutionCache) Get(ctx context.Context, variantID uuid.UUID, contextKey string) (*models.Price, bool) {
	if !c.enabled() {
		return nil, false
	}
	key, err := c.resolutionKey(ctx, variantID, contextKey)
	if err != nil {
		c.metr.IncCacheLookup("error")
		return nil, false
	}
	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metr.IncCacheLookup("miss")
		} else {
			c.metr.IncCacheLookup("error")
			c.logg.Warn(ctx, "price cache read failed")
		}
		return nil, false
	}
	var entry cachedResolution
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.metr.IncCacheLookup("error")
		return nil, false
	}
	// A cached price whose active window closed before the TTL did must not
	// be served; forcing a re-resolve picks the next candidate.
	if entry.Price != nil && !entry.Price.ActiveAt(c.now()) {
		c.metr.IncCacheLookup("miss")
		return nil, false
	}
	c.metr.IncCacheLookup("hit")
	return entry.Price, true
}

// Set stores a resolution result (price or miss) under the current
// generations.
func (c *ResolutionCache) Set(ctx context.Context, variantID uuid.UUID, contextKey string, price *models.Price) {
	if !c.enabled() {
		return
	}
	key, err := c.resolutionKey(ctx, variantID, contextKey)
	if err != nil {
		return
	}
	raw, err := json.Marshal(cachedResolution{Found: price != nil, Price: price})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, string(raw), c.ttl); err != nil {
		c.logg.Warn(ctx, "price cache write failed")
	}
}

// InvalidateVariant drops every cached resolution for one variant.
func (c *ResolutionCache) InvalidateVariant(ctx context.Context, variantID uuid.UUID) error {
	if !c.enabled() {
		return nil
	}
	_, err := c.client.BumpGeneration(ctx, c.client.VariantGenerationKey(variantID.String()))
	return err
}

// InvalidateAll drops every cached resolution.
func (c *ResolutionCache) InvalidateAll(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	_, err := c.client.BumpGeneration(ctx, c.client.GlobalGenerationKey())
	return err
}

func (c *ResolutionCache) resolutionKey(ctx context.Context, variantID uuid.UUID, contextKey string) (string, error) {
	globalGen, err := c.client.Generation(ctx, c.client.GlobalGenerationKey())
	if err != nil {
		return "", err
	}
	variantGen, err := c.client.Generation(ctx, c.client.VariantGenerationKey(variantID.String()))
	if err != nil {
		return "", err
	}
	return c.client.PriceResolutionKey(variantID.String(), globalGen, variantGen, contextKey), nil
}
