package devconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"dario.cat/mergo"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a declaration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// PluginLookup turns a plugin name and its options into a factory.
type PluginLookup interface {
	Lookup(name string, options map[string]string) (PluginFactory, error)
}

type fileDeclaration struct {
	Plugins []pluginRef `yaml:"plugins"`
	Server  *fileServer `yaml:"server"`
}

type fileServer struct {
	Host *string    `yaml:"host"`
	Port yaml.Node `yaml:"port"`
}

// pluginRef accepts either a bare name or a mapping with name and options.
type pluginRef struct {
	Name    string
	Options map[string]string
}

func (p *pluginRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&p.Name)
	}

	var raw struct {
		Name    string            `yaml:"name"`
		Options map[string]string `yaml:"options"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	p.Name = raw.Name
	p.Options = raw.Options
	return nil
}

// FormatFromPath picks the declaration format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported declaration file extension: %s", path)
	}
}

// Load reads and parses the declaration file at path.
func Load(path string, lookup PluginLookup) (Declaration, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Declaration{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Declaration{}, fmt.Errorf("failed to read declaration: %w", err)
	}

	decl, err := Parse(data, format, lookup)
	if err != nil {
		return Declaration{}, fmt.Errorf("failed to parse declaration %s: %w", path, err)
	}

	return decl, nil
}

// Parse decodes a declaration. JSON input may contain comments and trailing
// commas. A port that is not an integer fails with ErrInvalidPort; range and
// host checks are left to Resolve.
func Parse(data []byte, format Format, lookup PluginLookup) (Declaration, error) {
	switch format {
	case FormatYAML:
	case FormatJSON:
		// JSON is a subset of YAML so one decoder serves both
		data = jsonc.ToJSON(data)
	default:
		return Declaration{}, fmt.Errorf("unsupported declaration format: %q", format)
	}

	var file fileDeclaration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Declaration{}, err
	}

	var (
		decl Declaration
		errs []error
	)

	for _, ref := range file.Plugins {
		if lookup == nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownPlugin, ref.Name))
			continue
		}
		factory, err := lookup.Lookup(ref.Name, ref.Options)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decl.Plugins = append(decl.Plugins, factory)
	}

	if file.Server != nil {
		decl.Server = &ServerDeclaration{Host: file.Server.Host}
		if node := &file.Server.Port; !isAbsent(node) {
			port, err := decodePort(node)
			if err != nil {
				errs = append(errs, err)
			} else {
				decl.Server.Port = &port
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Declaration{}, err
	}

	return decl, nil
}

// isAbsent reports whether a field was missing or explicitly null.
func isAbsent(node *yaml.Node) bool {
	return node.Kind == 0 || node.ShortTag() == "!!null"
}

func decodePort(node *yaml.Node) (int, error) {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidPort, node.Value)
	}

	var port int
	if err := node.Decode(&port); err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidPort, node.Value, err)
	}

	return port, nil
}

// MergeServer layers overlay over base and returns a new declaration. Every
// non-nil overlay field wins, zero values included, so an explicit port 0 still
// reaches Resolve and is rejected there. Neither input is modified.
func MergeServer(base, overlay *ServerDeclaration) (*ServerDeclaration, error) {
	if base == nil && overlay == nil {
		return nil, nil
	}

	merged := &ServerDeclaration{}
	if base != nil {
		merged.Host = clonePtr(base.Host)
		merged.Port = clonePtr(base.Port)
	}

	if overlay != nil {
		src := &ServerDeclaration{Host: clonePtr(overlay.Host), Port: clonePtr(overlay.Port)}
		if err := mergo.Merge(merged, src, mergo.WithOverride, mergo.WithTransformers(setPointers{})); err != nil {
			return nil, fmt.Errorf("failed to merge server options: %w", err)
		}
	}

	return merged, nil
}

// setPointers makes mergo replace a set pointer with any set overlay pointer.
// mergo otherwise dereferences both and skips zero overlay values.
type setPointers struct{}

func (setPointers) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t.Kind() != reflect.Ptr {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
