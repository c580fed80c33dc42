// Package cache provides a generic TTL'd LRU byte-string cache shared by
// the query cache service and any other component that wants bounded,
// expiring storage without standing up a store backend.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a capability set narrow enough that the query cache service
// (and anything else that wants bounded, expiring key/value storage) can
// depend on it without caring whether entries live in-process or are
// fronted by something else later (§9 DESIGN NOTES: variant storage
// backends behind a capability interface).
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
	DeletePrefix(prefix string)
	Len() int
}

// LRUCache is an in-process TTL'd LRU cache. Reads/writes are safe for
// concurrent use; cache errors never propagate to callers by design (§7
// error handling rule 5) — callers that want strict error semantics should
// wrap this at a higher layer, this type itself has no failure modes.
type LRUCache struct {
	mu  sync.RWMutex
	lru *expirable.LRU[string, []byte]
}

// NewLRUCache creates a cache holding at most size entries, each expiring
// ttl after it was last set.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 1000
	}
	return &LRUCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRUCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Get(key)
}

func (c *LRUCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, value)
}

func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// DeletePrefix removes every entry whose key starts with prefix. Used for
// coarse project-scoped invalidation ("search:*") — the expirable LRU has
// no native prefix index, so this walks the current key set, which is
// bounded by the cache's configured size.
func (c *LRUCache) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

func (c *LRUCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
