// Package cli implements the pybale command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"pybale/pkg/buildinfo"
	"pybale/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "pybale"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pybale",
		Short:        "Pybale bundles a Python project into a single file",
		Long:         `Pybale collects the Python sources of a project, resolves their local dependency graph and emits one self-contained script with hoisted imports and a single entry-point guard.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.bundleCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.classifyCommand())
	root.AddCommand(c.registryCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newStore creates the persistent classification cache, falling back to a
// null cache when the directory is unavailable.
func newStore(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	store, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return store
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pybale/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
