package engine

type Config struct {
	// Entry point glob pattern (e.g., "src/*.ts")
	EntryPointGlob string
	// Output directory for built files
	OutputDir string
	// Path to metafile written by one-shot builds
	MetafilePath string
	// Whether to minify output
	Minify bool
	// Whether to enable source maps
	SourceMap bool
	// Directory the dev server serves static files from, empty serves build output only
	Servedir string
}

// DefaultConfig returns the engine settings used when the CLI is given none
func DefaultConfig() Config {
	return Config{
		EntryPointGlob: "src/*.ts",
		OutputDir:      "dist",
		MetafilePath:   "dist/meta.json",
		Minify:         true,
		SourceMap:      true,
	}
}
