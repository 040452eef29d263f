package knowledge

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type lookupResult struct {
	record Record
	found  bool
}

// CachedStore memoises lookups of a slower store, misses included
type CachedStore struct {
	store Store
	cache *gocache.Cache
}

// NewCachedStore wraps store with an in-memory cache
func NewCachedStore(store Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		store: store,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Lookup implements Store
func (c *CachedStore) Lookup(fingerprint string) (Record, bool) {
	if val, found := c.cache.Get(fingerprint); found {
		res := val.(lookupResult)
		return res.record, res.found
	}

	rec, ok := c.store.Lookup(fingerprint)
	c.cache.SetDefault(fingerprint, lookupResult{record: rec, found: ok})
	return rec, ok
}

// Flush drops every cached lookup
func (c *CachedStore) Flush() {
	c.cache.Flush()
}
