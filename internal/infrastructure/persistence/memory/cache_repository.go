// Package memory provides an in-process cache repository used when Redis
// is not configured
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gourmetguru/api/internal/ports/outbound"
)

const defaultTTL = 24 * time.Hour

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// CacheRepository implements outbound.CacheRepository over a map
type CacheRepository struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a cache that sweeps expired keys every interval.
// Call Close to stop the sweeper.
func NewCacheRepository(interval time.Duration) *CacheRepository {
	repo := &CacheRepository{
		data: make(map[string]cacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	if interval > 0 {
		go repo.sweep(interval)
	}

	return repo
}

// Get retrieves a value; absent and expired keys return outbound.ErrCacheMiss
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mutex.RLock()
	item, exists := r.data[key]
	r.mutex.RUnlock()

	if !exists {
		return nil, outbound.ErrCacheMiss
	}

	if r.now().After(item.expiresAt) {
		r.mutex.Lock()
		if current, ok := r.data[key]; ok && r.now().After(current.expiresAt) {
			delete(r.data, key)
		}
		r.mutex.Unlock()
		return nil, outbound.ErrCacheMiss
	}

	return append([]byte(nil), item.value...), nil
}

// Set stores a value with TTL; a zero TTL means 24 hours
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.data[key] = cacheItem{
		value:     append([]byte(nil), value...),
		expiresAt: r.now().Add(ttl),
	}
	return nil
}

// Delete removes a key
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.data, key)
	return nil
}

// Exists reports whether an unexpired value is stored under key
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	item, exists := r.data[key]
	return exists && !r.now().After(item.expiresAt), nil
}

// Len returns the number of stored keys, expired or not
func (r *CacheRepository) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.data)
}

// Close stops the background sweeper
func (r *CacheRepository) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *CacheRepository) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.removeExpired()
		case <-r.stop:
			return
		}
	}
}

func (r *CacheRepository) removeExpired() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	for key, item := range r.data {
		if now.After(item.expiresAt) {
			delete(r.data, key)
		}
	}
}
