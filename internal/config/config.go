// Package config loads the optional per-project aqua.yaml, per
// SPEC_FULL.md §A. A project with no such file runs with an all-zero
// Config — the file exists to let a project pin an entry point and a
// module search path, not to gate ordinary single-file use of
// cmd/aquac or cmd/aquavm.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is aqua.yaml's shape.
type Config struct {
	// Entry is the default source file aquac compiles when invoked
	// with no file argument.
	Entry string `yaml:"entry"`
	// ModuleSearchPath lists directories searched, in order, for
	// file-based imports that no host module in internal/modules
	// answers for. cmd/aquavm's runVM wires this into a fileResolver
	// consulted as IMPORT_MODULE/IMPORT_FROM's fallback.
	ModuleSearchPath []string `yaml:"module_search_path"`
	// Output is the default compiled bytecode file aquavm runs when
	// invoked with no file argument.
	Output string `yaml:"output"`
	// DisableGlobalInit turns off spec.md §4.5's global-initialization
	// pre-pass (vm.VM.Load normally runs it unconditionally). A project
	// would set this if its top-level statements have side effects that
	// must not fire twice under a future tool that reloads a chunk.
	DisableGlobalInit bool `yaml:"disable_global_init"`
}

// Load reads path and parses it as YAML. A missing file is not an
// error: it returns a zero Config, since aqua.yaml is optional.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}
