package graphsync

import (
	"fmt"
	"sort"
	"sync"
)

// AuthRegistry resolves connection references to credentials.
type AuthRegistry struct {
	mu      sync.RWMutex
	entries map[string]ConnectionSpec
}

// NewAuthRegistry creates an empty registry.
func NewAuthRegistry() *AuthRegistry {
	return &AuthRegistry{entries: make(map[string]ConnectionSpec)}
}

// Add registers or replaces the credentials for key.
func (r *AuthRegistry) Add(key string, spec ConnectionSpec) AuthEntryReference {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[key] = spec

	return AuthEntryReference{Key: key}
}

// Get returns the credentials behind ref.
func (r *AuthRegistry) Get(ref AuthEntryReference) (ConnectionSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.entries[ref.Key]
	if !ok {
		return ConnectionSpec{}, fmt.Errorf("%w: %s", ErrAuthEntryNotFound, ref.Key)
	}

	return spec, nil
}

// Keys returns the registered keys in sorted order.
func (r *AuthRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
