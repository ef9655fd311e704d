package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/savemate/backend/internal/domain"
)

// Store is a TTL key-value store backed by go-cache. It holds the
// per-navigation comparison records, the last comparison, and the
// purchase history. Writes are last-write-wins.
type Store struct {
	cache      *gocache.Cache
	defaultTTL time.Duration
}

// NewStore creates a store with the given default TTL. Expired entries
// are purged at twice the TTL interval.
func NewStore(defaultTTL time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &Store{
		cache:      gocache.New(defaultTTL, 2*defaultTTL),
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value from the store
func (s *Store) Get(ctx context.Context, key string) (interface{}, error) {
	value, found := s.cache.Get(key)
	if !found {
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}

// Set stores a value with the given TTL, falling back to the default
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the store
func (s *Store) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Exists checks whether a key is present and unexpired
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, found := s.cache.Get(key)
	return found, nil
}

// Size returns the number of unexpired items, for monitoring
func (s *Store) Size() int {
	return s.cache.ItemCount()
}

// Clear removes all items from the store
func (s *Store) Clear() {
	s.cache.Flush()
}
