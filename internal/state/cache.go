package state

import (
	"sync"
	"time"
)

// MaxCacheAge defines how long a cached graph is considered valid.
const MaxCacheAge = 5 * time.Second

// maxCacheEntries bounds the number of distinct queries kept at once.
const maxCacheEntries = 32

// GraphCache caches built graph states per query so that repeated requests
// (page reloads, several browser tabs) do not walk and lay out history again.
// Cached states are shared and must be treated as read-only.
type GraphCache struct {
	mu      sync.RWMutex
	entries map[Query]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	state    *GraphState
	cachedAt time.Time
}

// NewGraphCache returns an empty cache.
func NewGraphCache() *GraphCache {
	return &GraphCache{entries: make(map[Query]cacheEntry), now: time.Now}
}

// Get returns the cached state for q if it is still fresh, nil otherwise.
func (gc *GraphCache) Get(q Query) *GraphState {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	e, ok := gc.entries[q]
	if !ok || gc.now().Sub(e.cachedAt) > MaxCacheAge {
		return nil
	}
	return e.state
}

// Set stores state for q.
func (gc *GraphCache) Set(q Query, state *GraphState) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if _, ok := gc.entries[q]; !ok && len(gc.entries) >= maxCacheEntries {
		gc.entries = make(map[Query]cacheEntry)
	}
	gc.entries[q] = cacheEntry{state: state, cachedAt: gc.now()}
}

// Invalidate drops every entry.
func (gc *GraphCache) Invalidate() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.entries = make(map[Query]cacheEntry)
}

// Len returns the number of entries, fresh or not.
func (gc *GraphCache) Len() int {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	return len(gc.entries)
}
