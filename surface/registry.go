// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Registry errors.
var (
	// ErrNoProvider is returned when no registered provider is available.
	ErrNoProvider = errors.New("surface: no provider available")

	// ErrUnknownProvider is returned when the named provider is not registered.
	ErrUnknownProvider = errors.New("surface: unknown provider")
)

// Options carries optional construction parameters for providers.
type Options struct {
	// Device supplies the GPU device for hardware providers.
	// Software providers ignore it.
	Device gpucontext.DeviceProvider
}

// Factory creates a new Provider with the given options.
// Implementations should validate options and return descriptive errors.
type Factory func(opts Options) (Provider, error)

// RegistryEntry represents a registered surface provider.
type RegistryEntry struct {
	// Name is the unique identifier for this provider.
	Name string

	// Priority determines selection order (higher = preferred).
	// Standard priorities:
	//   - 100: GPU providers
	//   - 10: pure software providers
	Priority int

	// Factory creates provider instances.
	Factory Factory

	// Available reports if the provider is usable on this system.
	Available func() bool
}

// globalRegistry is the default registry.
var globalRegistry = NewRegistry()

// Registry manages registered surface providers.
//
// The registry enables backends to register themselves without the
// core library importing them. Backends register in an init function:
//
//	func init() {
//	    surface.Register("soft", 10, factory, nil)
//	}
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and NewProvider.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a provider to the global registry.
// If available is nil, the provider is assumed always available.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Register adds a provider to this registry.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// NewProvider creates a provider from the best available backend in the
// global registry, trying higher-priority entries first.
func NewProvider(opts Options) (Provider, error) {
	return globalRegistry.NewProvider(opts)
}

// NewProviderByName creates a provider from the named backend in the
// global registry.
func NewProviderByName(name string, opts Options) (Provider, error) {
	return globalRegistry.NewProviderByName(name, opts)
}

// NewProvider creates a provider from the best available backend.
func (r *Registry) NewProvider(opts Options) (Provider, error) {
	r.mu.RLock()
	candidates := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		candidates = append(candidates, e)
	}
	r.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].Name < candidates[j].Name
	})

	var firstErr error
	for _, e := range candidates {
		if e.Available != nil && !e.Available() {
			continue
		}
		p, err := e.Factory(opts)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("surface: provider %q: %w", e.Name, err)
			}
			continue
		}
		return p, nil
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrNoProvider
}

// NewProviderByName creates a provider from the named backend.
func (r *Registry) NewProviderByName(name string, opts Options) (Provider, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	if e.Available != nil && !e.Available() {
		return nil, fmt.Errorf("surface: provider %q is not available", name)
	}
	return e.Factory(opts)
}

// Names returns the names of all registered providers, sorted by
// descending priority.
func Names() []string {
	return globalRegistry.Names()
}

// Names returns the names of all registered providers, sorted by
// descending priority.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
