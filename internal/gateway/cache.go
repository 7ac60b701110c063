package gateway

import (
	"net/url"
	"sync"
	"time"
)

type cacheEntry struct {
	payload    any
	capturedAt time.Time
}

// ttlCache keeps normalised responses for the lifetime of the process.
// Expiry is checked lazily on read; an expired entry stays until it is overwritten.
type ttlCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newTTLCache(ttl time.Duration, now func() time.Time) *ttlCache {
	return &ttlCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *ttlCache) get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.capturedAt) >= c.ttl {
		return nil, false
	}

	return e.payload, true
}

func (c *ttlCache) set(key string, payload any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{payload: payload, capturedAt: c.now()}
	c.mu.Unlock()
}

func (c *ttlCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *ttlCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// cacheKey is deterministic for a given parameter set regardless of insertion order,
// since url.Values.Encode sorts by key.
func cacheKey(endpoint string, params url.Values) string {
	return endpoint + "?" + params.Encode()
}
