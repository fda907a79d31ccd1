package engine

import (
	"errors"
	"slices"
	"sync"

	"github.com/wolfeidau/devconfig/internal/devconfig"
)

// ErrUnsupportedPlugin indicates a plugin entry does not carry an esbuild plugin
var ErrUnsupportedPlugin = errors.New("plugin is not an esbuild plugin")

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	External bool   `json:"external"`
}

// Pipeline hands a resolved configuration to esbuild
type Pipeline struct {
	config   Config
	resolved devconfig.ResolvedConfiguration
	metadata *BuildMetadata
	mu       sync.RWMutex
}

// New creates a pipeline for the engine settings and resolved configuration
func New(config Config, resolved devconfig.ResolvedConfiguration) *Pipeline {
	return &Pipeline{
		config:   config,
		resolved: resolved,
	}
}

// Outputs returns the output paths recorded by the last Build, sorted
func (p *Pipeline) Outputs() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, errors.New("assets not built yet, call Build() first")
	}

	outputs := make([]string, 0, len(p.metadata.Outputs))
	for path := range p.metadata.Outputs {
		outputs = append(outputs, path)
	}
	slices.Sort(outputs)
	return outputs, nil
}

// EntryOutput returns the output file built for entryPoint and every chunk it imports
func (p *Pipeline) EntryOutput(entryPoint string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, errors.New("assets not built yet, call Build() first")
	}

	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == entryPoint {
			return p.entryFiles(outputPath, info), nil
		}
	}

	return nil, errors.New("entrypoint not found in metadata")
}

// EntryOutputs returns the files of every built entry point, keyed by entry point
func (p *Pipeline) EntryOutputs() (map[string][]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, errors.New("assets not built yet, call Build() first")
	}

	entries := make(map[string][]string)
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint != "" {
			entries[info.EntryPoint] = p.entryFiles(outputPath, info)
		}
	}
	return entries, nil
}

func (p *Pipeline) entryFiles(outputPath string, info OutputInfo) []string {
	files := []string{outputPath}
	visited := map[string]bool{outputPath: true}
	p.addDependencies(info, &files, visited)
	return files
}

func (p *Pipeline) addDependencies(output OutputInfo, files *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if !imp.External && !visited[imp.Path] {
			visited[imp.Path] = true
			*files = append(*files, imp.Path)

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, files, visited)
			}
		}
	}
}
