package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for the comparison/history store
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchBackend defines the interface for an external listing source.
// A per-site backend reports its site key as Name; the unified search
// backend reports "searchapi" and tags candidates with their source
// itself. Any failure yields (nil, err) and the orchestrator treats it
// as zero candidates from that backend.
type SearchBackend interface {
	Name() string
	Search(ctx context.Context, query string) ([]Candidate, error)
}
