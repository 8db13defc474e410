package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Provider defines the interface that all lyrics providers must implement
type Provider interface {
	// Name returns the provider's identifier (e.g., "netease", "kugou")
	Name() string

	// Source returns the fixed source label attached to results
	Source() Source

	// Search runs the two-step search/lyric lookup.
	// It returns nil when nothing usable was found; failures are logged and
	// reported as nil as well, so callers never see an error.
	Search(ctx context.Context, q Query) *LyricsResult
}

// Registry holds all registered providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// List returns all registered provider names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered providers ordered by name
func (r *Registry) All() []Provider {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Provider, 0, len(names))
	for _, name := range names {
		all = append(all, r.providers[name])
	}
	return all
}

// Has checks if a provider is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}
