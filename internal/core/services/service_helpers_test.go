package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/poyrazK/zonekeeper/internal/testutil"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestService(t *testing.T, opts Options) (ports.DNSService, *testutil.FakeStore) {
	t.Helper()
	store := testutil.NewFakeStore()
	if opts.Logger == nil {
		opts.Logger = discardLogger
	}
	return NewDNSService(store, opts), store
}

func mustCreateZone(t *testing.T, svc ports.DNSService, name string) *domain.Zone {
	t.Helper()
	zone := &domain.Zone{Name: name}
	require.NoError(t, svc.CreateZone(context.Background(), zone))
	return zone
}

// memCache is a ports.ZoneCache backed by a map.
type memCache struct {
	zones       map[string]domain.Zone
	invalidated []string
	pingErr     error
}

func newMemCache() *memCache {
	return &memCache{zones: make(map[string]domain.Zone)}
}

func (c *memCache) Get(_ context.Context, name string) (*domain.Zone, bool) {
	z, ok := c.zones[name]
	if !ok {
		return nil, false
	}
	return &z, true
}

func (c *memCache) Set(_ context.Context, zone *domain.Zone) {
	c.zones[zone.Name] = *zone
}

func (c *memCache) Invalidate(_ context.Context, names ...string) error {
	for _, n := range names {
		delete(c.zones, n)
		c.invalidated = append(c.invalidated, n)
	}
	return nil
}

func (c *memCache) Ping(context.Context) error { return c.pingErr }
