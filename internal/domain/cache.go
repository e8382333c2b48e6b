package domain

import (
	"context"
	"time"
)

// Cache namespaces. Slot keys are "<namespace>_<tenantId>", so keys under one
// namespace never collide with another tenant's keys, and eviction on logout
// is namespace-scoped rather than global.
const (
	NamespaceSalonProfile = "salon-core"
	NamespaceUserDetails  = "userDetails"
)

// CacheStore is the durable key-value primitive backing the tenant cache.
type CacheStore interface {
	// Get returns the stored bytes for key, or ErrCacheMiss when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, keys ...string) error
	// KeysByPrefix enumerates every key starting with prefix across the
	// whole store.
	KeysByPrefix(ctx context.Context, prefix string) ([]string, error)
}
