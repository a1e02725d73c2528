package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryZoneCache_SetGet(t *testing.T) {
	c := NewMemoryZoneCache(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	prefix := domain.MustParsePrefix("192.0.2.128/25")
	parent := "z0"
	c.Set(ctx, &domain.Zone{ID: "z1", Name: "128-25.2.0.192.in-addr.arpa.", RFC2317Prefix: &prefix, RFC2317ParentZoneID: &parent})

	got, ok := c.Get(ctx, "128-25.2.0.192.IN-ADDR.ARPA.")
	require.True(t, ok)
	assert.Equal(t, "z1", got.ID)
	require.NotNil(t, got.RFC2317Prefix)
	assert.Equal(t, "192.0.2.128/25", got.RFC2317Prefix.String())

	*got.RFC2317ParentZoneID = "changed"
	again, _ := c.Get(ctx, "128-25.2.0.192.in-addr.arpa.")
	assert.Equal(t, "z0", *again.RFC2317ParentZoneID)

	_, ok = c.Get(ctx, "missing.example.")
	assert.False(t, ok)
}

func TestMemoryZoneCache_SetCopies(t *testing.T) {
	c := NewMemoryZoneCache(time.Minute, 0)
	ctx := context.Background()

	zone := &domain.Zone{ID: "z1", Name: "example.com."}
	c.Set(ctx, zone)
	zone.Name = "example.org."

	got, ok := c.Get(ctx, "example.com.")
	require.True(t, ok)
	assert.Equal(t, "example.com.", got.Name)
}

func TestMemoryZoneCache_Expiration(t *testing.T) {
	c := NewMemoryZoneCache(-time.Second, 0)
	ctx := context.Background()

	c.Set(ctx, &domain.Zone{ID: "z1", Name: "example.com."})
	_, ok := c.Get(ctx, "example.com.")
	assert.False(t, ok)

	assert.Equal(t, 1, c.Len())
	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryZoneCache_Invalidate(t *testing.T) {
	c := NewMemoryZoneCache(time.Minute, 0)
	ctx := context.Background()

	c.Set(ctx, &domain.Zone{ID: "z1", Name: "example.com."})
	c.Set(ctx, &domain.Zone{ID: "z2", Name: "example.org."})

	require.NoError(t, c.Invalidate(ctx, "EXAMPLE.COM.", ""))
	_, ok := c.Get(ctx, "example.com.")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "example.org.")
	assert.True(t, ok)
}

func TestMemoryZoneCache_Concurrency(t *testing.T) {
	c := NewMemoryZoneCache(time.Hour, time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Set(ctx, &domain.Zone{ID: "z1", Name: "example.com."})
			c.Get(ctx, "example.com.")
			_ = c.Invalidate(ctx, "example.com.")
		}()
	}
	wg.Wait()
}

func TestMemoryZoneCache_CloseTwice(t *testing.T) {
	c := NewMemoryZoneCache(time.Minute, time.Second)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
