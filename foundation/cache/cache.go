// Package cache provides a read-through cache for aggregate counts. Entries
// expire after a fixed TTL and are dropped explicitly when the underlying
// rows change.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Loader produces the value for a key on a miss.
type Loader func(ctx context.Context) (uint64, error)

// Counts caches uint64 aggregates by key.
type Counts struct {
	lru *expirable.LRU[string, uint64]
}

// New constructs a count cache holding at most size entries for ttl.
func New(size int, ttl time.Duration) *Counts {
	return &Counts{
		lru: expirable.NewLRU[string, uint64](size, nil, ttl),
	}
}

// Count returns the cached value for key, calling load on a miss. Failed
// loads are not cached.
func (c *Counts) Count(ctx context.Context, key string, load Loader) (uint64, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return 0, err
	}

	c.lru.Add(key, v)
	return v, nil
}

// Invalidate drops the specified keys.
func (c *Counts) Invalidate(keys ...string) {
	for _, key := range keys {
		c.lru.Remove(key)
	}
}

// Len returns the number of live entries.
func (c *Counts) Len() int {
	return c.lru.Len()
}
