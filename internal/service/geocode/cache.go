package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

const (
	cacheKeyPrefix  = "taxsale:geocode:"
	DefaultCacheTTL = 30 * 24 * time.Hour
)

// CachedGeocoder Redis缓存装饰器
// 缓存不可用时直接穿透到下游，只记录告警
type CachedGeocoder struct {
	next  Geocoder
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedGeocoder 创建带缓存的地理编码器
func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedGeocoder{next: next, redis: rdb, ttl: ttl}
}

// CacheKey 生成缓存键
func CacheKey(address, city, state string) string {
	return cacheKeyPrefix + strings.ToUpper(joinNonEmpty(address, city, state))
}

// Geocode 先查缓存，未命中时调用下游并回填
func (c *CachedGeocoder) Geocode(ctx context.Context, address, city, state string) (*collection.Location, error) {
	key := CacheKey(address, city, state)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var loc collection.Location
		if jerr := json.Unmarshal(raw, &loc); jerr == nil {
			return &loc, nil
		}
		logger.Warnf("Discarding corrupt geocode cache entry %s", key)
	case errors.Is(err, redis.Nil):
	default:
		logger.WithField("key", key).Warnf("Geocode cache unavailable: %v", err)
	}

	loc, err := c.next.Geocode(ctx, address, city, state)
	if err != nil || loc == nil {
		return loc, err
	}

	if data, jerr := json.Marshal(loc); jerr == nil {
		if serr := c.redis.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			logger.WithField("key", key).Warnf("Failed to cache geocode result: %v", serr)
		}
	}
	return loc, nil
}
