package db

import (
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Cache keys are tracked per entity type so all caches of one type can be
// cleared together (e.g. after a daily reset touches every circle).
var (
	Cache                *ristretto.Cache
	CircleCacheKeys      = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
	TransactionCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
)

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
}

// Circle Cache Functions
func SetCircleCache(cacheKey string, value interface{}) {
	CircleCacheKeys.Lock()
	CircleCacheKeys.m[cacheKey] = struct{}{}
	CircleCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func DelCircleCache(cacheKey string) {
	CircleCacheKeys.Lock()
	delete(CircleCacheKeys.m, cacheKey)
	CircleCacheKeys.Unlock()
	Cache.Del(cacheKey)
}

func ClearAllCircleCaches() {
	CircleCacheKeys.Lock()
	for key := range CircleCacheKeys.m {
		Cache.Del(key)
	}
	CircleCacheKeys.m = make(map[string]struct{})
	CircleCacheKeys.Unlock()
}

// Transaction Cache Functions
func SetTransactionCache(cacheKey string, value interface{}) {
	TransactionCacheKeys.Lock()
	TransactionCacheKeys.m[cacheKey] = struct{}{}
	TransactionCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func DelTransactionCache(cacheKey string) {
	TransactionCacheKeys.Lock()
	delete(TransactionCacheKeys.m, cacheKey)
	TransactionCacheKeys.Unlock()
	Cache.Del(cacheKey)
}

func ClearAllTransactionCaches() {
	TransactionCacheKeys.Lock()
	for key := range TransactionCacheKeys.m {
		Cache.Del(key)
	}
	TransactionCacheKeys.m = make(map[string]struct{})
	TransactionCacheKeys.Unlock()
}
