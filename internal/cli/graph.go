package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"pybale/pkg/bundle"
	"pybale/pkg/dag"
	"pybale/pkg/errors"
)

// Supported graph output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG = "png"
)

// graphCommand creates the graph command for dependency-graph inspection.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		entry   string
		format  string
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "graph [target]",
		Short: "Render the local dependency graph",
		Long: `Render the local dependency graph of a Python project.

The graph command runs the same collection, parsing and classification
pipeline as bundle, then emits the file-level dependency graph instead of a
bundle. DOT output goes to stdout by default; svg and png are written to a
file. The entry point, when given, is highlighted; edges participating in a
dependency cycle are drawn red.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}
			opts := bundle.Options{
				Target: target,
				Entry:  entry,
				Store:  newStore(noCache),
			}
			return c.runGraph(cmd.Context(), opts, format, output)
		},
	}

	cmd.Flags().StringVarP(&entry, "entry", "e", "", "entry-point file to highlight")
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout for dot, graph.<format> otherwise)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the persistent classification cache")

	return cmd
}

// runGraph analyzes the project and writes the graph in the requested format.
func (c *CLI) runGraph(ctx context.Context, opts bundle.Options, format, output string) error {
	if format != formatDOT && format != formatSVG && format != formatPNG {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot, svg or png)", format)
	}

	ctx = withLogger(ctx, c.Logger)
	analysis, err := bundle.NewRunner(opts, c.Logger).Analyze(ctx)
	if err != nil {
		return err
	}

	entryRel := ""
	if analysis.Entry != nil {
		entryRel = analysis.Entry.Rel
	}
	dot := graphDOT(analysis.Graph, entryRel)

	if format == formatDOT {
		if output == "" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(output, []byte(dot), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", output)
		}
		printFile(output)
		return nil
	}

	rendered, err := renderGraph(ctx, dot, format)
	if err != nil {
		return err
	}
	if output == "" {
		output = "graph." + format
	}
	if err := os.WriteFile(output, rendered, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", output)
	}
	printSuccess("Graph rendered")
	printFile(output)
	printReport(analysis.Report)
	return nil
}

// graphDOT converts the dependency graph to Graphviz DOT. The entry node is
// filled, and every edge lying on a dependency cycle is drawn red.
func graphDOT(g *dag.Graph, entry string) string {
	cycleEdges := map[dag.Edge]bool{}
	if path := g.FindCycle(); path != nil {
		for i := 0; i+1 < len(path); i++ {
			cycleEdges[dag.Edge{From: path[i], To: path[i+1]}] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.Nodes() {
		attrs := []string{fmt.Sprintf("label=%q", id)}
		if id == entry {
			attrs = append(attrs, "fillcolor=lightblue", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	edges := g.Edges()
	slices.SortFunc(edges, func(a, b dag.Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	for _, e := range edges {
		if cycleEdges[e] {
			fmt.Fprintf(&buf, "  %q -> %q [color=red, penwidth=2];\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// renderGraph rasterizes DOT to svg or png using Graphviz.
func renderGraph(ctx context.Context, dot, format string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	target := graphviz.SVG
	if format == formatPNG {
		target = graphviz.PNG
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, target, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return buf.Bytes(), nil
}
