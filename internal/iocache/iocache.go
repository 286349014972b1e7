// Package iocache persists acquisition chunks and render-run history.
package iocache

import (
	"sync"

	"github.com/huangsam/barrace/internal/contract"
)

// CacheStoreManager manages the chunk cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	chunks       contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetChunkStore returns the chunk CacheStore.
func (mgr *CacheStoreManager) GetChunkStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.chunks
}

// GetRunStore returns the RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
