package factors

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/factortrace/factortrace/internal/emissions"
)

// factorCache is an in-memory read-through cache for resolved factors.
// Entries expire after a bounded TTL and are invalidated wholesale by a
// generation counter: saving a factor bumps the generation, so concurrent
// readers never observe a stale resolution after an update commits. The
// cache is not authoritative; its absence changes latency only.
type factorCache struct {
	data       map[string]*cacheEntry
	ttl        time.Duration
	generation atomic.Uint64
	mu         sync.RWMutex
	cleanup    *time.Ticker
	done       chan struct{}
}

type cacheEntry struct {
	factor     *emissions.EmissionFactor
	generation uint64
	expiration time.Time
}

func newFactorCache(ttl time.Duration) *factorCache {
	c := &factorCache{
		data:    make(map[string]*cacheEntry),
		ttl:     ttl,
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func cacheKey(category emissions.Scope3Category, region string, year int) string {
	return fmt.Sprintf("%s|%s|%d", category, region, year)
}

// get returns the cached factor for key, or nil on miss, expiry, or a
// stale generation.
func (c *factorCache) get(key string) *emissions.EmissionFactor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return nil
	}
	if entry.generation != c.generation.Load() {
		return nil
	}
	if time.Now().After(entry.expiration) {
		return nil
	}
	return entry.factor
}

func (c *factorCache) set(key string, factor *emissions.EmissionFactor) {
	generation := c.generation.Load()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = &cacheEntry{
		factor:     factor,
		generation: generation,
		expiration: time.Now().Add(c.ttl),
	}
}

// invalidateAll bumps the generation, making every existing entry stale in
// one atomic step.
func (c *factorCache) invalidateAll() {
	c.generation.Add(1)
}

func (c *factorCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *factorCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *factorCache) removeExpired() {
	current := c.generation.Load()

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expiration) || entry.generation != current {
			delete(c.data, key)
		}
	}
}

// stop terminates the cleanup goroutine.
func (c *factorCache) stop() {
	c.cleanup.Stop()
	close(c.done)
}
