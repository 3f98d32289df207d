package classify

import (
	_ "embed"

	"github.com/BurntSushi/toml"

	"pybale/pkg/errors"
)

//go:embed stdlib.toml
var stdlibData []byte

// Registry is the curated set of standard-library top-level module names.
//
// The source system asks its running interpreter which modules are stdlib;
// there is no such hook to another ecosystem's runtime here, so the registry
// ships as versioned configuration data embedded in the binary and can be
// extended per-run (extra_stdlib in pybale.toml).
type Registry struct {
	version  string
	modules  map[string]bool
	extended map[string]bool
}

// registryFile mirrors the TOML layout of the embedded registry data.
type registryFile struct {
	Version string   `toml:"version"`
	Modules []string `toml:"modules"`
}

// LoadRegistry parses the embedded registry data.
func LoadRegistry() (*Registry, error) {
	return loadRegistry(stdlibData)
}

func loadRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode stdlib registry")
	}
	if file.Version == "" || len(file.Modules) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "stdlib registry data is empty")
	}

	modules := make(map[string]bool, len(file.Modules))
	for _, m := range file.Modules {
		modules[m] = true
	}
	return &Registry{
		version:  file.Version,
		modules:  modules,
		extended: make(map[string]bool),
	}, nil
}

// Extend adds module names to the registry (from project configuration).
// Extended names are tracked separately from the embedded set: they depend
// on per-project configuration, which is not part of the persistent cache
// key, so the classifier must not persist results based on them.
func (r *Registry) Extend(names ...string) {
	for _, n := range names {
		if n != "" && !r.modules[n] {
			r.extended[n] = true
		}
	}
}

// Contains reports whether module is a standard-library module. Dotted
// submodule paths resolve through their top-level component, so both "os"
// and "os.path" are contained.
func (r *Registry) Contains(module string) bool {
	top := TopLevel(module)
	return r.modules[top] || r.extended[top]
}

// Extended reports whether module is contained only through a per-project
// Extend call rather than the embedded registry data.
func (r *Registry) Extended(module string) bool {
	return r.extended[TopLevel(module)]
}

// Version returns the Python version the registry was seeded from.
func (r *Registry) Version() string { return r.version }

// Count returns the number of registered top-level modules, extended names
// included.
func (r *Registry) Count() int { return len(r.modules) + len(r.extended) }
