package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parcelhub/internal/models"
	"parcelhub/internal/repository/cache"
)

func TestShardedCache_PutGetAcrossShards(t *testing.T) {
	c := cache.NewShardedCache(cache.WithShards(8))
	defer c.Close()

	for i := 0; i < 100; i++ {
		tid := fmt.Sprintf("TRK-%03d", i)
		c.Put(tid, models.Package{ID: uint(i), TrackingID: tid})
	}
	for i := 0; i < 100; i++ {
		tid := fmt.Sprintf("TRK-%03d", i)
		got, ok := c.Get(tid)
		require.True(t, ok, tid)
		require.Equal(t, tid, got.TrackingID)
	}
	require.Len(t, c.Snapshot(), 100)
}

func TestShardedCache_ConcurrentWriters(t *testing.T) {
	c := cache.NewShardedCache(cache.WithShards(16))
	defer c.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				tid := fmt.Sprintf("TRK-%d-%d", w, i)
				c.Put(tid, models.Package{TrackingID: tid})
				_, _ = c.Get(tid)
			}
		}(w)
	}
	wg.Wait()
	require.Len(t, c.Snapshot(), 8*50)
}

func TestShardedCache_TTLExpires(t *testing.T) {
	c := cache.NewShardedCache(cache.WithShards(4), cache.WithShardTTL(20*time.Millisecond))
	defer c.Close()

	c.Put("TRK-1", models.Package{TrackingID: "TRK-1"})
	_, ok := c.Get("TRK-1")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("TRK-1")
	require.False(t, ok)
	require.Empty(t, c.Snapshot())
}

func TestShardedCache_Delete(t *testing.T) {
	c := cache.NewShardedCache()
	defer c.Close()

	c.Put("TRK-1", models.Package{TrackingID: "TRK-1"})
	c.Delete("TRK-1")
	_, ok := c.Get("TRK-1")
	require.False(t, ok)
}
