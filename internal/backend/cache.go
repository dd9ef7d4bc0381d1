package backend

import (
	"sync"
	"time"
)

// staleWindow bounds how old a cached body may be when served after retries fail.
const staleWindow = 24 * time.Hour

type cacheEntry struct {
	Body         []byte
	ETag         string
	LastModified string
	FetchedAt    time.Time
}

// CacheStats reports conditional-GET cache performance.
type CacheStats struct {
	Hits       int `json:"hits"`
	Misses     int `json:"misses"`
	NotChanged int `json:"not_changed"`
	Stale      int `json:"stale"`
	BytesSaved int `json:"bytes_saved"`
}

// etagCache stores public GET responses keyed by URL.
type etagCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	stats   CacheStats
}

func newETagCache() *etagCache {
	return &etagCache{entries: make(map[string]*cacheEntry)}
}

func (c *etagCache) get(url string) (*cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[url]
	return e, ok
}

func (c *etagCache) store(url string, e *cacheEntry, hadEntry bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hadEntry {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	c.entries[url] = e
}

func (c *etagCache) notModified(e *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Hits++
	c.stats.NotChanged++
	c.stats.BytesSaved += len(e.Body)
}

// stale returns a cached body younger than staleWindow.
func (c *etagCache) stale(url string, now time.Time) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok || now.Sub(e.FetchedAt) >= staleWindow {
		return nil, false
	}
	c.stats.Stale++
	return e.Body, true
}

func (c *etagCache) snapshot() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *etagCache) invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}
