package collection

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Managed is the type-erased part of a Collection used by process wiring.
type Managed interface {
	Key() string
	Load(ctx context.Context) error
	Reload(ctx context.Context) error
	Seed(ctx context.Context, force bool) (bool, error)
	Snapshot(ctx context.Context) ([]byte, error)
}

// Registry indexes every collection of a process by key.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Managed
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Managed)}
}

// Add registers collections, replacing any with the same key.
func (r *Registry) Add(cs ...Managed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cs {
		r.items[c.Key()] = c
	}
}

// Keys returns the registered keys sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Lookup finds a collection by full key or by its name without the
// namespace, e.g. "reviews.reviews".
func (r *Registry) Lookup(name string) (Managed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.items[name]; ok {
		return c, true
	}
	for key, c := range r.items {
		if strings.HasSuffix(key, "."+name) {
			return c, true
		}
	}
	return nil, false
}

// LoadAll loads every collection concurrently.
func (r *Registry) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, key := range r.Keys() {
		c, _ := r.Lookup(key)
		g.Go(func() error { return c.Load(ctx) })
	}
	return g.Wait()
}

// Reload refreshes the collection stored under key. Unknown keys are ignored
// so a shared channel can carry keys of other processes.
func (r *Registry) Reload(ctx context.Context, key string) error {
	r.mu.RLock()
	c, ok := r.items[key]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.Reload(ctx)
}

// SeedAll seeds every collection and returns the keys that were written.
func (r *Registry) SeedAll(ctx context.Context, force bool) ([]string, error) {
	var written []string
	for _, key := range r.Keys() {
		c, _ := r.Lookup(key)
		ok, err := c.Seed(ctx, force)
		if err != nil {
			return written, fmt.Errorf("collection: seed %s: %w", key, err)
		}
		if ok {
			written = append(written, key)
		}
	}
	return written, nil
}
