package plugins

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/devconfig/internal/devconfig"
)

// Constructor builds a plugin factory from the options given in a declaration.
type Constructor func(options map[string]string) (devconfig.PluginFactory, error)

var _ devconfig.PluginLookup = (*Registry)(nil)

// Registry maps plugin names to constructors. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
	}
}

// Default creates a registry holding the built-in plugins.
func Default(logger zerolog.Logger) *Registry {
	r := NewRegistry()

	// names are fixed and distinct so these cannot fail
	_ = r.Register(BuildLogName, func(map[string]string) (devconfig.PluginFactory, error) {
		return BuildLog(logger), nil
	})
	_ = r.Register(ExternalName, func(options map[string]string) (devconfig.PluginFactory, error) {
		return External(options["filter"])
	})
	_ = r.Register(AliasName, func(options map[string]string) (devconfig.PluginFactory, error) {
		return Alias(options["from"], options["to"])
	})

	return r
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, c Constructor) error {
	if name == "" || c == nil {
		return fmt.Errorf("%w: name and constructor are required", devconfig.ErrInvalidPlugin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("%w: %q is already registered", devconfig.ErrDuplicatePlugin, name)
	}

	r.constructors[name] = c
	return nil
}

// Lookup implements devconfig.PluginLookup.
func (r *Registry) Lookup(name string, options map[string]string) (devconfig.PluginFactory, error) {
	r.mu.RLock()
	c, ok := r.constructors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", devconfig.ErrUnknownPlugin, name)
	}

	factory, err := c(options)
	if err != nil {
		return nil, fmt.Errorf("failed to configure plugin %q: %w", name, err)
	}

	return factory, nil
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
