package devconfig

import (
	"encoding/json"
	"slices"
)

// PluginEntry is an opaque build-time extension registered with the engine.
// Identity is the name; the payload is only meaningful to the engine adapter.
type PluginEntry struct {
	name    string
	payload any
}

// NewPluginEntry creates a plugin entry with the given identity and engine payload.
func NewPluginEntry(name string, payload any) PluginEntry {
	return PluginEntry{name: name, payload: payload}
}

// Name returns the plugin identity.
func (p PluginEntry) Name() string {
	return p.name
}

// Payload returns the engine specific plugin value.
func (p PluginEntry) Payload() any {
	return p.payload
}

// PluginFactory produces a plugin entry for a declaration.
type PluginFactory interface {
	Plugin() PluginEntry
}

// PluginFactoryFunc adapts a function to a PluginFactory.
type PluginFactoryFunc func() PluginEntry

func (f PluginFactoryFunc) Plugin() PluginEntry {
	return f()
}

// ServerDeclaration holds the optional dev server settings of a declaration.
// A nil field means the engine picks its own default.
type ServerDeclaration struct {
	Host *string `yaml:"host,omitempty"`
	Port *int    `yaml:"port,omitempty"`
}

// Declaration is the input to Resolve.
type Declaration struct {
	Plugins []PluginFactory
	Server  *ServerDeclaration
}

// ServerOptions are the validated dev server settings.
type ServerOptions struct {
	host    string
	hasHost bool
	port    int
	hasPort bool
}

// Host returns the bind address and whether it was set.
func (s ServerOptions) Host() (string, bool) {
	return s.host, s.hasHost
}

// Port returns the listen port and whether it was set.
func (s ServerOptions) Port() (int, bool) {
	return s.port, s.hasPort
}

// ResolvedConfiguration is the validated configuration handed to the build engine.
// It is never mutated after Resolve returns it.
type ResolvedConfiguration struct {
	plugins []PluginEntry
	server  ServerOptions
}

// Plugins returns a copy of the plugin entries in registration order.
func (c ResolvedConfiguration) Plugins() []PluginEntry {
	if c.plugins == nil {
		return []PluginEntry{}
	}
	return slices.Clone(c.plugins)
}

// PluginNames returns the plugin identities in registration order.
func (c ResolvedConfiguration) PluginNames() []string {
	names := make([]string, 0, len(c.plugins))
	for _, p := range c.plugins {
		names = append(names, p.name)
	}
	return names
}

// Server returns the dev server settings.
func (c ResolvedConfiguration) Server() ServerOptions {
	return c.server
}

type configView struct {
	Plugins []string   `json:"plugins" yaml:"plugins"`
	Server  serverView `json:"server" yaml:"server"`
}

type serverView struct {
	Host *string `json:"host,omitempty" yaml:"host,omitempty"`
	Port *int    `json:"port,omitempty" yaml:"port,omitempty"`
}

func (c ResolvedConfiguration) view() configView {
	v := configView{Plugins: c.PluginNames()}
	if host, ok := c.server.Host(); ok {
		v.Server.Host = &host
	}
	if port, ok := c.server.Port(); ok {
		v.Server.Port = &port
	}
	return v
}

// MarshalJSON renders plugins by name and omits unset server fields.
func (c ResolvedConfiguration) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.view())
}

// MarshalYAML implements yaml.Marshaler with the same shape as MarshalJSON.
func (c ResolvedConfiguration) MarshalYAML() (any, error) {
	return c.view(), nil
}

// Ptr returns a pointer to v, handy for building declarations in code.
func Ptr[T any](v T) *T {
	return &v
}
