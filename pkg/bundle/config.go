package bundle

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"pybale/pkg/errors"
)

// ConfigFile is the optional per-project configuration file name, looked up
// in the target directory.
const ConfigFile = "pybale.toml"

// Config is the per-project configuration.
//
// Command-line flags override config values; config values override
// built-in defaults.
type Config struct {
	// Namespace is the project's import namespace. Defaults to the target
	// directory's base name.
	Namespace string `toml:"namespace"`

	// Tool is the package manager used to register third-party
	// dependencies. Defaults to pip.DefaultTool.
	Tool string `toml:"tool"`

	// ExtraStdlib names additional modules to treat as standard library
	// (private interpreter builds, vendored runtimes).
	ExtraStdlib []string `toml:"extra_stdlib"`

	// Ignore names additional directory names to skip during collection.
	Ignore []string `toml:"ignore"`
}

// LoadConfig reads pybale.toml from dir. A missing file yields the zero
// config; a malformed file is an input error.
func LoadConfig(dir string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", ConfigFile)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", ConfigFile)
	}
	return cfg, nil
}
