package sqlkit

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// registry maps pool names to pools. Names are unique; re-registering a name
// replaces the prior binding.
var registry = struct {
	mu    sync.RWMutex
	pools map[string]*Pool
}{pools: make(map[string]*Pool)}

// RegisterPool binds name to pool, replacing and closing any prior binding
// under the same name.
func RegisterPool(name string, pool *Pool) {
	registry.mu.Lock()
	prior := registry.pools[name]
	pool.name = name
	registry.pools[name] = pool
	registry.mu.Unlock()

	if prior != nil && prior != pool {
		if err := prior.Close(); err != nil && prior.getLogger() != nil {
			prior.getLogger().Warn("closing replaced pool", "pool", name, "error", err.Error())
		}
	}
}

// OpenPool opens a pool from cfg and registers it under name.
func OpenPool(ctx context.Context, name string, cfg Config) (*Pool, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	RegisterPool(name, pool)
	return pool, nil
}

// LookupPool returns the pool registered under name.
func LookupPool(name string) (*Pool, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	pool, ok := registry.pools[name]
	return pool, ok
}

// PoolNames returns all registered pool names, sorted.
func PoolNames() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.pools))
	for name := range registry.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnregisterPool removes and closes the pool registered under name.
func UnregisterPool(name string) error {
	registry.mu.Lock()
	pool := registry.pools[name]
	delete(registry.pools, name)
	registry.mu.Unlock()

	if pool == nil {
		return nil
	}
	return pool.Close()
}

// CloseAll closes every registered pool and empties the registry.
func CloseAll() error {
	registry.mu.Lock()
	pools := registry.pools
	registry.pools = make(map[string]*Pool)
	registry.mu.Unlock()

	var firstErr error
	for name, pool := range pools {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close pool %q: %w", name, err)
		}
	}
	return firstErr
}
