package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem struct {
	data      interface{}
	expiresAt time.Time
}

// PageCache is a small LRU with per-entry expiry for rendered page data.
type PageCache struct {
	lru *lru.Cache[string, cacheItem]
	now func() time.Time
}

// NewPageCache returns a cache holding at most size entries.
func NewPageCache(size int) (*PageCache, error) {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, err
	}
	return &PageCache{lru: l, now: time.Now}, nil
}

func (c *PageCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lru.Add(key, cacheItem{data: data, expiresAt: c.now().Add(ttl)})
}

// Get returns nil when the key is missing or expired.
func (c *PageCache) Get(key string) interface{} {
	item, ok := c.lru.Get(key)
	if !ok {
		return nil
	}
	if c.now().After(item.expiresAt) {
		c.lru.Remove(key)
		return nil
	}
	return item.data
}

// Purge drops everything; article writes call it.
func (c *PageCache) Purge() {
	c.lru.Purge()
}
