package images

import (
	"sync"
	"time"
)

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// ttlCache memoizes OG lookup results (including negative ones) so
// repeated candidates pointing at the same page fetch it once.
type ttlCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
}

func newTTLCache() *ttlCache {
	return &ttlCache{items: make(map[string]cacheItem)}
}

func (c *ttlCache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *ttlCache) Get(key string) (string, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return "", false
	}
	if time.Now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return "", false
	}
	return item.value, true
}
