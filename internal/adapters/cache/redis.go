// Package cache holds ports.ZoneCache implementations.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "zonekeeper:zone:"

// RedisZoneCache stores zones as JSON keyed by lower-cased absolute name.
// Lookups that fail for any reason count as misses.
type RedisZoneCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.ZoneCache = (*RedisZoneCache)(nil)

func NewRedisZoneCache(addr string, password string, db int, ttl time.Duration) *RedisZoneCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisZoneCache{client: rdb, ttl: ttl}
}

func key(name string) string {
	return keyPrefix + strings.ToLower(name)
}

func (r *RedisZoneCache) Get(ctx context.Context, name string) (*domain.Zone, bool) {
	val, err := r.client.Get(ctx, key(name)).Bytes()
	if err != nil {
		return nil, false
	}
	var zone domain.Zone
	if err := json.Unmarshal(val, &zone); err != nil {
		log.Printf("dropping undecodable cache entry for %s: %v", name, err)
		r.client.Del(ctx, key(name))
		return nil, false
	}
	return &zone, true
}

func (r *RedisZoneCache) Set(ctx context.Context, zone *domain.Zone) {
	data, err := json.Marshal(zone)
	if err != nil {
		return
	}
	r.client.Set(ctx, key(zone.Name), data, r.ttl)
}

// Invalidate removes the entries for names. Empty names are skipped.
func (r *RedisZoneCache) Invalidate(ctx context.Context, names ...string) error {
	keys := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			keys = append(keys, key(n))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisZoneCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisZoneCache) Close() error {
	return r.client.Close()
}
