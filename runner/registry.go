package runner

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds plugin descriptors by name. It is safe for concurrent use;
// extension packages typically register from init via the default registry.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Descriptor
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Descriptor),
	}
}

// Register adds a plugin descriptor. Registering the same name twice is an
// error; there is no unregister.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}

	if d.New == nil {
		return fmt.Errorf("%w: factory is required for %q", ErrInvalidDescriptor, d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, d.Name)
	}

	r.plugins[d.Name] = d
	return nil
}

// MustRegister is Register for init-time use; it panics on error.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.plugins[name]
	return d, ok
}

// Plugins returns all descriptors ordered by name.
func (r *Registry) Plugins() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.plugins))
	for _, d := range r.plugins {
		descriptors = append(descriptors, d)
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})

	return descriptors
}

// defaultRegistry backs the package-level registration functions.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry extension packages register into
// from init.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a descriptor to the default registry.
func Register(d Descriptor) error {
	return defaultRegistry.Register(d)
}

// MustRegister adds a descriptor to the default registry and panics on error.
func MustRegister(d Descriptor) {
	defaultRegistry.MustRegister(d)
}

// Lookup returns a descriptor from the default registry.
func Lookup(name string) (Descriptor, bool) {
	return defaultRegistry.Lookup(name)
}

// Plugins returns all descriptors in the default registry ordered by name.
func Plugins() []Descriptor {
	return defaultRegistry.Plugins()
}
