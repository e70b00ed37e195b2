package app

import (
	"sync"
	"time"
)

// DefaultHealthCacheTTL bounds how often Health pings the store
const DefaultHealthCacheTTL = 5 * time.Second

// healthCache remembers the last store probe so frequent health checks
// do not each cost a database round trip.
type healthCache struct {
	mu        sync.RWMutex
	err       error
	checkedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// newHealthCache creates a cache with ttl. A TTL of 0 disables caching.
func newHealthCache(ttl time.Duration) *healthCache {
	return &healthCache{ttl: ttl, now: time.Now}
}

// get reports whether a cached probe is still valid, and its result
func (c *healthCache) get() (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	valid := !c.checkedAt.IsZero() && c.now().Sub(c.checkedAt) < c.ttl
	return valid, c.err
}

func (c *healthCache) set(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	c.checkedAt = c.now()
}

// invalidate forces the next check to probe
func (c *healthCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkedAt = time.Time{}
}
