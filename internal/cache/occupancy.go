package cache

import (
	"sync"

	"github.com/hexfront/engine/pkg/core"
)

// OccupancyCache maps hexes to the id of the unit standing on them.
// Roster lookups by position happen for every neighbor of every step, so they must not scan.
type OccupancyCache struct {
	m     sync.Mutex
	byHex map[core.Hex]int
}

func NewOccupancyCache() *OccupancyCache {
	return &OccupancyCache{
		byHex: make(map[core.Hex]int),
	}
}

func (c *OccupancyCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.byHex = make(map[core.Hex]int)
}

// Get returns the unit id on h
func (c *OccupancyCache) Get(h core.Hex) (int, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	id, ok := c.byHex[h]
	return id, ok
}

// Claim places id on h. It fails if another unit already holds h.
func (c *OccupancyCache) Claim(h core.Hex, id int) bool {
	c.m.Lock()
	defer c.m.Unlock()
	if holder, ok := c.byHex[h]; ok && holder != id {
		return false
	}
	c.byHex[h] = id
	return true
}

// Release frees h if it is held by id
func (c *OccupancyCache) Release(h core.Hex, id int) {
	c.m.Lock()
	defer c.m.Unlock()
	if holder, ok := c.byHex[h]; ok && holder == id {
		delete(c.byHex, h)
	}
}

// Len returns the number of occupied hexes
func (c *OccupancyCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.byHex)
}
