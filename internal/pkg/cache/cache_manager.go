package cache

import (
	"sort"
	"sync"
)

// Cache is the part of UnifiedCache the manager needs, independent of T.
type Cache interface {
	Name() string
	GetMetrics() CacheMetrics
	Clear()
}

// CacheManager keeps a registry of named caches for the admin pages.
type CacheManager struct {
	mu     sync.RWMutex
	caches map[string]Cache
}

func NewCacheManager() *CacheManager {
	return &CacheManager{caches: make(map[string]Cache)}
}

// Register adds c under its name, replacing any cache registered with the same name.
func (cm *CacheManager) Register(c Cache) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.caches[c.Name()] = c
}

// Names returns registered cache names in sorted order.
func (cm *CacheManager) Names() []string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	names := make([]string, 0, len(cm.caches))
	for name := range cm.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAllMetrics returns metrics for all caches
func (cm *CacheManager) GetAllMetrics() map[string]CacheMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	out := make(map[string]CacheMetrics, len(cm.caches))
	for name, c := range cm.caches {
		out[name] = c.GetMetrics()
	}
	return out
}

// ClearAll clears all caches
func (cm *CacheManager) ClearAll() {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, c := range cm.caches {
		c.Clear()
	}
}
