// Package local is the in-process tier of the response cache.
package local

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Cache struct {
	lru *expirable.LRU[string, []byte]
}

// New returns a size-bounded cache whose entries expire after ttl. A
// non-positive ttl keeps entries until they are evicted.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Add(key string, val []byte) {
	c.lru.Add(key, val)
}

func (c *Cache) Remove(key string) {
	c.lru.Remove(key)
}

func (c *Cache) Len() int { return c.lru.Len() }
