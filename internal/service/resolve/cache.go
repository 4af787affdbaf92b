package resolve

import "sync"

// resolutionCache memoizes resolutions keyed by snapshot id. Completed
// snapshots are append-only, so entries are valid forever and are never
// invalidated in place.
type resolutionCache struct {
	mu      sync.RWMutex
	entries map[string]*Resolution
}

func newResolutionCache() *resolutionCache {
	return &resolutionCache{entries: make(map[string]*Resolution)}
}

// getOrCompute returns the cached resolution for a snapshot or computes
// and stores it. Uses double-checked locking to minimise lock contention.
func (c *resolutionCache) getOrCompute(snapshotID string, compute func() *Resolution) *Resolution {
	c.mu.RLock()
	if res, ok := c.entries[snapshotID]; ok {
		c.mu.RUnlock()
		return res
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if res, ok := c.entries[snapshotID]; ok {
		return res
	}

	res := compute()
	c.entries[snapshotID] = res
	return res
}

// Forget drops a snapshot's cached resolution. Only used when the
// snapshot itself is deleted.
func (c *resolutionCache) Forget(snapshotID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, snapshotID)
}
