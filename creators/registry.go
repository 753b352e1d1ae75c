package creators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cuongbtq/testbed-contrib/topology"
)

var (
	// ErrDuplicateCreator is returned when registering a creator name twice
	ErrDuplicateCreator = errors.New("creator already registered")

	// ErrUnknownCreator is returned when no creator is registered under a name
	ErrUnknownCreator = errors.New("unknown creator")
)

// Registry holds creators by name. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	creators map[string]Creator
}

// NewRegistry creates an empty creator registry.
func NewRegistry() *Registry {
	return &Registry{
		creators: make(map[string]Creator),
	}
}

// Register adds a creator under its name.
func (r *Registry) Register(c Creator) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("creator must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.creators[c.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCreator, c.Name())
	}

	r.creators[c.Name()] = c
	return nil
}

// MustRegister is Register for init-time use; it panics on error.
func (r *Registry) MustRegister(c Creator) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Lookup returns the creator registered under name.
func (r *Registry) Lookup(name string) (Creator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.creators[name]
	return c, ok
}

// Names returns the registered creator names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds a testbed document with the named creator.
func (r *Registry) Create(ctx context.Context, name string, src Source) (*topology.Document, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCreator, name)
	}

	doc, err := c.Create(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("creator %q failed: %w", name, err)
	}

	return doc, nil
}

// defaultRegistry backs the package-level registration functions.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry creator packages register into from
// init.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a creator to the default registry.
func Register(c Creator) error {
	return defaultRegistry.Register(c)
}

// MustRegister adds a creator to the default registry and panics on error.
func MustRegister(c Creator) {
	defaultRegistry.MustRegister(c)
}

// Lookup returns a creator from the default registry.
func Lookup(name string) (Creator, bool) {
	return defaultRegistry.Lookup(name)
}

// Names lists the default registry's creators in lexical order.
func Names() []string {
	return defaultRegistry.Names()
}

// Create builds a testbed document with a creator from the default registry.
func Create(ctx context.Context, name string, src Source) (*topology.Document, error) {
	return defaultRegistry.Create(ctx, name, src)
}
