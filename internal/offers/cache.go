package offers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/wholesale-offers/pkg/db/models"
	"github.com/angelmondragon/wholesale-offers/pkg/logger"
	"github.com/angelmondragon/wholesale-offers/pkg/redis"
)

// kvStore is the subset of the redis client used for badge caching.
type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Key(parts ...string) string
}

type cacheResult string

const (
	cacheHit   cacheResult = "hit"
	cacheMiss  cacheResult = "miss"
	cacheError cacheResult = "error"
)

// BadgeCache memoizes single-item offer lookups. Entries are keyed under the
// catalog version, so bumping the version on every write orphans stale entries
// instead of deleting them one by one. Redis failures never fail a lookup.
type BadgeCache struct {
	store kvStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewBadgeCache returns nil when no store is configured; a nil cache always misses.
func NewBadgeCache(store kvStore, ttl time.Duration, logg *logger.Logger) *BadgeCache {
	if store == nil || ttl <= 0 {
		return nil
	}
	return &BadgeCache{store: store, ttl: ttl, logg: logg}
}

func (c *BadgeCache) versionKey() string {
	return c.store.Key("offers", "version")
}

func (c *BadgeCache) version(ctx context.Context) (string, error) {
	v, err := c.store.Get(ctx, c.versionKey())
	if redis.IsNil(err) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (c *BadgeCache) itemKey(version string, item ItemContext) string {
	productID := ""
	if item.ProductID != nil {
		productID = item.ProductID.String()
	}
	parts := []string{productID, strings.TrimSpace(item.Category), strings.TrimSpace(item.Collection)}
	return c.store.Key("offers", "v"+version, "item", strings.Join(parts, "|"))
}

// Get returns the cached candidate rows for the item context together with the
// catalog version it read. A caller that misses must hand that version back to
// Put so rows loaded before a concurrent write land under the orphaned version.
func (c *BadgeCache) Get(ctx context.Context, item ItemContext) ([]models.Offer, string, cacheResult) {
	if c == nil {
		return nil, "", cacheMiss
	}
	version, err := c.version(ctx)
	if err != nil {
		c.warn(ctx, "offers.cache.version_failed", err)
		return nil, "", cacheError
	}
	raw, err := c.store.Get(ctx, c.itemKey(version, item))
	if redis.IsNil(err) {
		return nil, version, cacheMiss
	}
	if err != nil {
		c.warn(ctx, "offers.cache.get_failed", err)
		return nil, version, cacheError
	}
	var rows []models.Offer
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		c.warn(ctx, "offers.cache.decode_failed", err)
		return nil, version, cacheError
	}
	return rows, version, cacheHit
}

// Put stores the candidate rows under the version observed by Get. An empty
// version means Get never read one and nothing is stored.
func (c *BadgeCache) Put(ctx context.Context, item ItemContext, version string, rows []models.Offer) {
	if c == nil || version == "" {
		return
	}
	if rows == nil {
		rows = []models.Offer{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		c.warn(ctx, "offers.cache.encode_failed", err)
		return
	}
	if err := c.store.Set(ctx, c.itemKey(version, item), payload, c.ttl); err != nil {
		c.warn(ctx, "offers.cache.set_failed", err)
	}
}

// Invalidate bumps the catalog version.
func (c *BadgeCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	version, err := c.store.Incr(ctx, c.versionKey())
	if err != nil {
		c.warn(ctx, "offers.cache.invalidate_failed", err)
		return
	}
	if c.logg != nil {
		ctx = c.logg.WithField(ctx, "cache_version", strconv.FormatInt(version, 10))
		c.logg.Debug(ctx, "offers.cache.invalidated")
	}
}

func (c *BadgeCache) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
