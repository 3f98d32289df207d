package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"pybale/pkg/bundle"
	"pybale/pkg/classify"
	"pybale/pkg/pysrc"
)

// classifyCommand creates the classify debug command.
func (c *CLI) classifyCommand() *cobra.Command {
	var (
		target    string
		namespace string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "classify <module>...",
		Short: "Show how module names classify",
		Long: `Show how module names classify: stdlib, local, or third-party.

Classification uses the same rules as bundle: the project namespace and
relative markers win, then the embedded standard-library registry, then the
local module index built from the target directory's files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runClassify(cmd.Context(), target, namespace, noCache, args)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", ".", "project directory providing the local module index")
	cmd.Flags().StringVar(&namespace, "namespace", "", "project import namespace (default: target directory name)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the persistent classification cache")

	return cmd
}

func (c *CLI) runClassify(ctx context.Context, target, namespace string, noCache bool, modules []string) error {
	cfg, err := bundle.LoadConfig(target)
	if err != nil {
		return err
	}
	registry, err := classify.LoadRegistry()
	if err != nil {
		return err
	}
	registry.Extend(cfg.ExtraStdlib...)

	if namespace == "" {
		namespace = cfg.Namespace
	}
	if namespace == "" {
		abs, err := filepath.Abs(target)
		if err == nil {
			namespace = filepath.Base(abs)
		}
	}

	// The local index is best effort here; a missing target still lets
	// stdlib and third-party names classify.
	var locals []string
	if files, err := pysrc.Collect(target, cfg.Ignore...); err == nil {
		for _, f := range files {
			locals = append(locals, f.TopLevel())
		}
	}

	classifier := classify.NewClassifier(registry, namespace, locals, newStore(noCache))
	for _, m := range modules {
		printKeyValue(m, classifier.Classify(ctx, m).String())
	}
	return nil
}
