package cache

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
)

// shardCount determines the number of internal shards to reduce lock contention.
const shardCount = 64

type memoryEntry struct {
	zone      domain.Zone
	expiresAt time.Time
}

type memoryShard struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
}

// MemoryZoneCache is a sharded in-process zone cache used when no Redis is
// configured. Entries are copies, so callers may modify what Get returns.
type MemoryZoneCache struct {
	shards [shardCount]*memoryShard
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

var _ ports.ZoneCache = (*MemoryZoneCache)(nil)

// NewMemoryZoneCache starts a background loop that drops expired entries
// every cleanupEvery until Close is called.
func NewMemoryZoneCache(ttl, cleanupEvery time.Duration) *MemoryZoneCache {
	c := &MemoryZoneCache{ttl: ttl, stop: make(chan struct{})}
	for i := 0; i < shardCount; i++ {
		c.shards[i] = &memoryShard{items: make(map[string]memoryEntry)}
	}
	if cleanupEvery > 0 {
		go c.cleanupLoop(cleanupEvery)
	}
	return c
}

func (c *MemoryZoneCache) shard(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key)) // #nosec G104
	return c.shards[h.Sum32()%shardCount]
}

func (c *MemoryZoneCache) Get(_ context.Context, name string) (*domain.Zone, bool) {
	key := strings.ToLower(name)
	shard := c.shard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	item, found := shard.items[key]
	if !found || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return cloneZone(item.zone), true
}

func (c *MemoryZoneCache) Set(_ context.Context, zone *domain.Zone) {
	key := strings.ToLower(zone.Name)
	shard := c.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.items[key] = memoryEntry{
		zone:      *cloneZone(*zone),
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *MemoryZoneCache) Invalidate(_ context.Context, names ...string) error {
	for _, n := range names {
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		shard := c.shard(key)
		shard.mu.Lock()
		delete(shard.items, key)
		shard.mu.Unlock()
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryZoneCache) Len() int {
	n := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		n += len(shard.items)
		shard.mu.RUnlock()
	}
	return n
}

func (c *MemoryZoneCache) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.stop:
			return
		}
	}
}

// Cleanup deletes entries that have passed their expiration time.
func (c *MemoryZoneCache) Cleanup() {
	now := time.Now()
	for _, shard := range c.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			if now.After(v.expiresAt) {
				delete(shard.items, k)
			}
		}
		shard.mu.Unlock()
	}
}

func (c *MemoryZoneCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func cloneZone(z domain.Zone) *domain.Zone {
	if z.RFC2317Prefix != nil {
		p := *z.RFC2317Prefix
		z.RFC2317Prefix = &p
	}
	if z.RFC2317ParentZoneID != nil {
		id := *z.RFC2317ParentZoneID
		z.RFC2317ParentZoneID = &id
	}
	return &z
}
