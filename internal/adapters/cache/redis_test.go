package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/poyrazK/zonekeeper/internal/core/domain"
)

func TestRedisZoneCache(t *testing.T) {
	// 1. Setup miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewRedisZoneCache(mr.Addr(), "", 0, time.Minute)
	ctx := context.Background()

	// 2. Set and Get, case-insensitive on the name
	prefix := domain.MustParsePrefix("192.0.2.128/25")
	zone := &domain.Zone{ID: "z1", Name: "Example.com.", Status: domain.ZoneStatusActive, DefaultTTL: 600, RFC2317Prefix: &prefix}
	cache.Set(ctx, zone)

	got, found := cache.Get(ctx, "example.COM.")
	if !found {
		t.Fatalf("Expected zone to be found in Redis")
	}
	if got.ID != "z1" || got.DefaultTTL != 600 || got.RFC2317Prefix == nil || got.RFC2317Prefix.String() != "192.0.2.128/25" {
		t.Errorf("Unexpected zone: %+v", got)
	}

	// 3. Entries expire
	if ttl := mr.TTL(keyPrefix + "example.com."); ttl != time.Minute {
		t.Errorf("Expected TTL of one minute, got %v", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, found := cache.Get(ctx, "example.com."); found {
		t.Errorf("Expected entry to expire")
	}

	// 4. Missing key
	if _, found := cache.Get(ctx, "nonexistent."); found {
		t.Errorf("Expected nonexistent key to not be found")
	}
}

func TestRedisZoneCache_Invalidate(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	cache := NewRedisZoneCache(mr.Addr(), "", 0, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, &domain.Zone{ID: "z1", Name: "a.test."})
	cache.Set(ctx, &domain.Zone{ID: "z2", Name: "b.test."})

	if err := cache.Invalidate(ctx, "A.test.", "", "missing."); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, found := cache.Get(ctx, "a.test."); found {
		t.Errorf("Expected a.test. to be invalidated")
	}
	if _, found := cache.Get(ctx, "b.test."); !found {
		t.Errorf("Expected b.test. to survive")
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Errorf("Invalidate with no names failed: %v", err)
	}
}

func TestRedisZoneCache_CorruptEntry(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	cache := NewRedisZoneCache(mr.Addr(), "", 0, time.Minute)

	if err := mr.Set(keyPrefix+"bad.test.", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, found := cache.Get(context.Background(), "bad.test."); found {
		t.Errorf("Expected corrupt entry to read as a miss")
	}
	if mr.Exists(keyPrefix + "bad.test.") {
		t.Errorf("Expected corrupt entry to be removed")
	}
}

func TestRedisZoneCache_Ping(t *testing.T) {
	mr, _ := miniredis.Run()
	cache := NewRedisZoneCache(mr.Addr(), "", 0, time.Minute)
	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	mr.Close()
	if err := cache.Ping(context.Background()); err == nil {
		t.Errorf("Expected ping to fail once redis is gone")
	}
	_ = cache.Close()
}
