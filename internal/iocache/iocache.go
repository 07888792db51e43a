// Package iocache persists activity fetches and score history.
package iocache

import (
	"sync"

	"github.com/huangsam/fragmeter/internal/contract"
)

// CacheStoreManager manages the activity cache and the score history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	activity     contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetActivityStore returns the activity CacheStore, or nil when caching is disabled.
func (mgr *CacheStoreManager) GetActivityStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.activity
}

// GetHistoryStore returns the HistoryStore, or nil when history tracking is disabled.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
