package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pybale/pkg/bundle"
	"pybale/pkg/errors"
)

// bundleCommand creates the bundle command, the tool's main operation.
func (c *CLI) bundleCommand() *cobra.Command {
	var (
		entry     string
		output    string
		namespace string
		tool      string
		register  bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "bundle [target]",
		Short: "Bundle a Python project into a single file",
		Long: `Bundle a Python project into a single self-contained file.

The bundle command collects every Python source under the target directory,
resolves the local dependency graph, and writes one file with all external
imports hoisted to the top and the bodies concatenated in dependency order.
The entry point's __main__ guard closes the file; all other guards are
dropped.

A dependency cycle between local files aborts the run before anything is
written. Syntax errors and unresolvable local imports are reported as
warnings at the end of the run instead.

When --entry is omitted on a terminal, an interactive picker lists the files
carrying a __main__ guard.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}
			opts := bundle.Options{
				Target:    target,
				Entry:     entry,
				Output:    output,
				Namespace: namespace,
				Tool:      tool,
				Register:  register,
				Store:     newStore(noCache),
			}
			return c.runBundle(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&entry, "entry", "e", "", "entry-point file, relative to the target directory")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default "+bundle.DefaultOutput+")")
	cmd.Flags().StringVar(&namespace, "namespace", "", "project import namespace (default: target directory name)")
	cmd.Flags().StringVar(&tool, "tool", "", "package manager used with --register (default uv)")
	cmd.Flags().BoolVar(&register, "register", false, "register third-party dependencies after writing")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the persistent classification cache")

	return cmd
}

// runBundle executes one bundling run, prompting for the entry point when
// none was given.
func (c *CLI) runBundle(ctx context.Context, opts bundle.Options) error {
	ctx = withLogger(ctx, c.Logger)
	p := newProgress(c.Logger)

	runner := bundle.NewRunner(opts, c.Logger)

	if opts.Entry == "" {
		chosen, err := c.pickEntry(ctx, runner)
		if err != nil {
			return err
		}
		opts.Entry = chosen
		runner = bundle.NewRunner(opts, c.Logger)
	}

	spinner := newSpinnerWithContext(ctx, "Bundling...")
	spinner.Start()

	res, err := runner.Execute(ctx)
	if err != nil {
		spinner.StopWithError("Bundling failed")
		return err
	}
	spinner.Stop()

	printSuccess("Bundled %d files", res.Stats.Files)
	printFile(res.Output)
	printStats(res.Stats)
	if len(res.ThirdParty) > 0 && !res.Registered {
		printDetail("third-party: %s", joinMax(res.ThirdParty, 8))
	}
	if res.Registered {
		printDetail("registered %d third-party package(s)", len(res.ThirdParty))
	}
	printReport(res.Report)

	p.done(fmt.Sprintf("Bundled %d files into %s", res.Stats.Files, res.Output))
	return nil
}

// pickEntry selects the entry point interactively. Off a terminal it fails
// with the candidate list so scripts get an actionable error.
func (c *CLI) pickEntry(ctx context.Context, runner *bundle.Runner) (string, error) {
	analysis, err := runner.Analyze(ctx)
	if err != nil {
		return "", err
	}
	candidates := analysis.EntryCandidates()

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return "", errors.New(errors.ErrCodeInvalidInput,
			"no entry point given; pass --entry (candidates: %s)", joinMax(rels(candidates), 5))
	}
	return runPicker(candidates)
}

// joinMax joins up to n items, appending an ellipsis marker past that.
func joinMax(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:n], ", ") + fmt.Sprintf(", … (%d more)", len(items)-n)
}

func rels(files []*bundle.SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Rel
	}
	return out
}
