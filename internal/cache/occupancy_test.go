package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/engine/pkg/core"
)

func TestOccupancyCache_NewOccupancyCache(t *testing.T) {
	cache := NewOccupancyCache()

	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.Len())
}

func TestOccupancyCache_ClaimAndGet(t *testing.T) {
	cache := NewOccupancyCache()
	h := core.Hex{Row: 3, Col: 4}

	require.True(t, cache.Claim(h, 7))

	id, ok := cache.Get(h)
	require.True(t, ok, "expected to find unit on 3,4")
	assert.Equal(t, 7, id)
}

func TestOccupancyCache_ClaimConflict(t *testing.T) {
	cache := NewOccupancyCache()
	h := core.Hex{Row: 1, Col: 1}

	require.True(t, cache.Claim(h, 1))
	assert.True(t, cache.Claim(h, 1), "re-claim by the holder is allowed")
	assert.False(t, cache.Claim(h, 2))

	id, _ := cache.Get(h)
	assert.Equal(t, 1, id)
}

func TestOccupancyCache_Release(t *testing.T) {
	cache := NewOccupancyCache()
	h := core.Hex{Row: 0, Col: 0}
	cache.Claim(h, 1)

	cache.Release(h, 2)
	_, ok := cache.Get(h)
	assert.True(t, ok, "release by a non-holder is ignored")

	cache.Release(h, 1)
	_, ok = cache.Get(h)
	assert.False(t, ok)
}

func TestOccupancyCache_Reset(t *testing.T) {
	cache := NewOccupancyCache()
	cache.Claim(core.Hex{Row: 0, Col: 1}, 1)
	cache.Claim(core.Hex{Row: 0, Col: 2}, 2)

	cache.Reset()

	assert.Equal(t, 0, cache.Len())
}

func TestOccupancyCache_Concurrent(t *testing.T) {
	cache := NewOccupancyCache()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			cache.Claim(core.Hex{Row: id, Col: 0}, id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, cache.Len())
}
