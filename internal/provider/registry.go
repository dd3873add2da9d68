package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the configured providers and handles provider selection.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	preferred string // "auto" or a provider name
}

// ProviderPriority is the order tried in "auto" mode.
var ProviderPriority = []string{"github", "fixture"}

// NewRegistry creates an empty registry in "auto" mode.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		preferred: "auto",
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider, replacing any provider with the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// SetPreferred sets the preferred provider ("auto" picks by priority).
func (r *Registry) SetPreferred(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		name = "auto"
	}
	r.preferred = name
}

// Preferred returns the current preference.
func (r *Registry) Preferred() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.preferred
}

// Get returns a specific provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// GetBest returns the preferred provider if it is available, or in "auto"
// mode the first available provider in ProviderPriority order.
func (r *Registry) GetBest() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.preferred != "auto" {
		p, ok := r.providers[r.preferred]
		if !ok {
			return nil, fmt.Errorf("provider %q not registered", r.preferred)
		}
		if !p.Available() {
			return nil, fmt.Errorf("provider %q is not available", r.preferred)
		}
		return p, nil
	}

	for _, name := range ProviderPriority {
		if p, ok := r.providers[name]; ok && p.Available() {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no providers available")
}

// ListAll returns every registered provider with its availability.
func (r *Registry) ListAll() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make(map[string]bool, len(r.providers))
	for name, p := range r.providers {
		status[name] = p.Available()
	}
	return status
}

// ListAvailable returns the names of available providers, sorted.
func (r *Registry) ListAvailable() []string {
	var names []string
	for name, ok := range r.ListAll() {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
