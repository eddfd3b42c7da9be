package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// NodeIDCache maps content ids to index row ids.
// Row ids are never reused, so an entry can only go stale by its row being
// deleted or re-keyed; callers verify a hit against the store.
type NodeIDCache struct {
	lru *lru.Cache[string, int64]
}

// New creates a new in-memory LRU cache with the specified size
func New(size int) (*NodeIDCache, error) {
	l, err := lru.New[string, int64](size)
	if err != nil {
		return nil, err
	}

	return &NodeIDCache{
		lru: l,
	}, nil
}

// Get returns the cached row id for a content id
func (c *NodeIDCache) Get(contentID string) (int64, bool) {
	return c.lru.Get(contentID)
}

// Put stores the row id for a content id
func (c *NodeIDCache) Put(contentID string, id int64) {
	c.lru.Add(contentID, id)
}

// Delete removes the entry for a content id
func (c *NodeIDCache) Delete(contentID string) {
	c.lru.Remove(contentID)
}

// Clear removes all cached entries
func (c *NodeIDCache) Clear() {
	c.lru.Purge()
}

// Len returns the number of cached entries
func (c *NodeIDCache) Len() int {
	return c.lru.Len()
}
