package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/salonsuite/salon-core/internal/domain"
)

// nullValue is what a freshly created slot holds before the first reconcile.
var nullValue = []byte("null")

// TenantCache manages namespaced per-tenant cache slots on a durable store.
// Writes go through Reconcile, which skips identical values so consumers
// never see change notifications for no-op updates. ClearNamespace evicts a
// whole namespace and wins any race with a reconcile already in flight.
//
// The cache is never the source of truth; concurrent writers across processes
// resolve by last-write-wins and staleness is bounded by the next
// reconciliation.
type TenantCache struct {
	store  domain.CacheStore
	logger *zap.Logger

	mu  sync.Mutex
	gen map[string]uint64 // per-namespace clear generation
}

// NewTenantCache creates a tenant cache on top of a durable store
func NewTenantCache(store domain.CacheStore, logger *zap.Logger) *TenantCache {
	return &TenantCache{
		store:  store,
		logger: logger,
		gen:    make(map[string]uint64),
	}
}

// CacheHandle is bound to one "<namespace>_<tenantId>" slot.
type CacheHandle struct {
	cache     *TenantCache
	namespace string
	key       string
	onChange  []func()
}

// GetOrCreate returns the handle for a tenant's slot in a namespace. An empty
// tenant id falls back to the shared anonymous slot. The underlying storage
// slot is created lazily on first read.
func (tc *TenantCache) GetOrCreate(namespace, tenantID string) *CacheHandle {
	if tenantID == "" {
		tenantID = "anonymous"
	}
	return &CacheHandle{
		cache:     tc,
		namespace: namespace,
		key:       namespace + "_" + tenantID,
	}
}

// Key returns the namespaced slot key.
func (h *CacheHandle) Key() string { return h.key }

// OnChange registers a callback invoked after a reconcile that actually
// changed the stored value. No-op reconciles never fire it.
func (h *CacheHandle) OnChange(fn func()) {
	h.onChange = append(h.onChange, fn)
}

// Load reads the slot into dest. It reports false on a miss or a null slot,
// creating the slot on first access.
func (h *CacheHandle) Load(ctx context.Context, dest any) (bool, error) {
	raw, err := h.cache.store.Get(ctx, h.key)
	if errors.Is(err, domain.ErrCacheMiss) {
		if err := h.cache.store.Set(ctx, h.key, nullValue, 0); err != nil {
			return false, fmt.Errorf("failed to initialize cache slot: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache slot: %w", err)
	}
	if bytes.Equal(raw, nullValue) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Treat an undecodable slot like a miss; the next reconcile
		// repairs it.
		h.cache.logger.Debug("cache slot is not valid JSON",
			zap.String("key", h.key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Reconcile overwrites the slot only when fresh differs from the stored value
// under deep structural comparison. It reports whether a write happened. A
// namespace clear that started after this reconcile supersedes it: the stale
// value is dropped instead of written.
func (tc *TenantCache) Reconcile(ctx context.Context, h *CacheHandle, fresh any) (bool, error) {
	data, err := json.Marshal(fresh)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}

	gen := tc.generation(h.namespace)
	current, err := tc.store.Get(ctx, h.key)
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		return false, fmt.Errorf("failed to read cache slot: %w", err)
	}
	if err == nil && jsonEqual(current, data) {
		return false, nil
	}

	tc.mu.Lock()
	superseded := tc.gen[h.namespace] != gen
	if !superseded {
		err = tc.store.Set(ctx, h.key, data, 0)
	}
	tc.mu.Unlock()
	if superseded {
		tc.logger.Debug("reconcile superseded by namespace clear",
			zap.String("key", h.key))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to write cache slot: %w", err)
	}

	for _, fn := range h.onChange {
		fn()
	}
	return true, nil
}

// ClearNamespace evicts every key under "<namespace>_" across the whole
// store. The eviction is complete when this returns; logout must wait for it
// before any navigation or new login so the next login never observes the
// previous tenant's cached profile.
func (tc *TenantCache) ClearNamespace(ctx context.Context, namespace string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.gen[namespace]++

	keys, err := tc.store.KeysByPrefix(ctx, namespace+"_")
	if err != nil {
		return fmt.Errorf("failed to enumerate %s keys: %w", namespace, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := tc.store.Remove(ctx, keys...); err != nil {
		return fmt.Errorf("failed to evict %s keys: %w", namespace, err)
	}
	return nil
}

func (tc *TenantCache) generation(namespace string) uint64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.gen[namespace]
}

// jsonEqual compares two JSON documents structurally, ignoring key order.
func jsonEqual(a, b []byte) bool {
	var av, bv any
	if json.Unmarshal(a, &av) != nil || json.Unmarshal(b, &bv) != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}
