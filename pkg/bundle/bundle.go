// Package bundle implements the bundling pipeline: collect, parse, classify,
// resolve, order and assemble a Python project into one self-contained file.
//
// The pipeline is strictly staged and fails fast on fatal conditions (bad
// input, dependency cycles) before anything touches the output path. The
// artifact is written atomically, so an aborted run never leaves a partial
// bundle behind. Recoverable conditions (syntax errors, unresolved local
// imports, tool failures) accumulate in a Report instead of stopping the run.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"pybale/pkg/cache"
	"pybale/pkg/classify"
	"pybale/pkg/dag"
	"pybale/pkg/errors"
	"pybale/pkg/pip"
	"pybale/pkg/pyast"
	"pybale/pkg/pysrc"
)

// DefaultOutput is the artifact path used when none is configured.
const DefaultOutput = "bundle.py"

// Options configures one bundling run.
type Options struct {
	Target    string      // project directory to bundle
	Entry     string      // entry-point file, relative to Target
	Output    string      // artifact path; DefaultOutput when empty
	Namespace string      // import namespace; target base name when empty
	Tool      string      // package manager; pip.DefaultTool when empty
	Register  bool        // register third-party deps after writing
	Store     cache.Cache // persistent classification cache; nil disables
}

// Stats summarizes one run for the end-of-run report.
type Stats struct {
	Files      int
	Edges      int
	Stdlib     int
	ThirdParty int
	Duration   time.Duration
}

// Analysis is the pipeline state before assembly. The graph and classify
// commands stop here; Execute carries on to the artifact.
type Analysis struct {
	Namespace string
	Config    Config
	Registry  *classify.Registry
	Files     []*SourceFile
	Entry     *SourceFile
	Graph     *dag.Graph
	Imports   *ImportSet
	Report    *Report
}

// Result describes a completed run.
type Result struct {
	Output     string
	Order      []string // relative paths in emitted order
	Stdlib     []string // distinct hoisted stdlib modules
	ThirdParty []string // distinct hoisted third-party modules
	Registered bool     // third-party registration succeeded
	Report     *Report
	Stats      Stats
}

// Runner executes the bundling pipeline.
type Runner struct {
	opts   Options
	logger *log.Logger
}

// NewRunner creates a runner for the given options.
func NewRunner(opts Options, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Runner{opts: opts, logger: logger}
}

// Analyze runs the pipeline up to (and including) the dependency graph,
// without ordering or writing anything.
func (r *Runner) Analyze(ctx context.Context) (*Analysis, error) {
	if r.opts.Target == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "target directory is required")
	}

	cfg, err := LoadConfig(r.opts.Target)
	if err != nil {
		return nil, err
	}

	namespace := firstNonEmpty(r.opts.Namespace, cfg.Namespace, filepath.Base(cleanAbs(r.opts.Target)))

	registry, err := classify.LoadRegistry()
	if err != nil {
		return nil, err
	}
	registry.Extend(cfg.ExtraStdlib...)

	files, err := r.parse(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no Python files found under %s", r.opts.Target)
	}

	report := &Report{}
	for _, f := range files {
		for _, perr := range f.AST.Errors {
			report.Add(errors.ErrCodeParse, f.Rel, perr.Line, "%s", perr.Text)
		}
	}

	entry, err := findEntry(files, r.opts.Entry)
	if err != nil {
		return nil, err
	}

	locals := make([]string, 0, len(files))
	for _, f := range files {
		locals = append(locals, f.TopLevel())
	}
	classifier := classify.NewClassifier(registry, namespace, locals, r.opts.Store)

	imports := NewImportSet()
	for _, f := range files {
		for _, imp := range f.AST.Imports {
			if imp.Relative {
				continue
			}
			imports.Add(classifier.Classify(ctx, imp.Module), imp.Module, imp.Raw)
		}
	}

	graph, err := newResolver(files, classifier, namespace, report).buildGraph(ctx, files)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("dependency graph built", "files", len(files), "edges", graph.EdgeCount())

	return &Analysis{
		Namespace: namespace,
		Config:    cfg,
		Registry:  registry,
		Files:     files,
		Entry:     entry,
		Graph:     graph,
		Imports:   imports,
		Report:    report,
	}, nil
}

// Execute runs the full pipeline and writes the bundle. The artifact is
// only written once the graph is known to be acyclic, via a temp file and
// rename in the destination directory.
func (r *Runner) Execute(ctx context.Context) (*Result, error) {
	start := time.Now()

	if r.opts.Entry == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "entry point is required")
	}

	a, err := r.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	order, err := a.Graph.Topological(a.Entry.Rel)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCycle, err, "cannot bundle %s", r.opts.Target)
	}

	byRel := make(map[string]*SourceFile, len(a.Files))
	for _, f := range a.Files {
		byRel[f.Rel] = f
	}
	ordered := make([]*SourceFile, len(order))
	for i, rel := range order {
		ordered[i] = byRel[rel]
	}

	artifact := assemble(ordered, a.Entry, a.Imports)

	output := r.opts.Output
	if output == "" {
		output = DefaultOutput
	}
	if err := writeAtomic(output, artifact); err != nil {
		return nil, err
	}
	r.logger.Info("bundle written", "path", output, "bytes", len(artifact))

	registered := false
	if r.opts.Register {
		tool := firstNonEmpty(r.opts.Tool, a.Config.Tool, pip.DefaultTool)
		pkgs := a.Imports.ThirdPartyPackages()
		if err := pip.Register(ctx, tool, output, pkgs); err != nil {
			a.Report.Add(errors.ErrCodeToolFailed, "", 0, "%s", errors.UserMessage(err))
		} else {
			registered = len(pkgs) > 0
		}
	}

	return &Result{
		Output:     output,
		Order:      order,
		Stdlib:     a.Imports.StdlibModules(),
		ThirdParty: a.Imports.ThirdPartyModules(),
		Registered: registered,
		Report:     a.Report,
		Stats: Stats{
			Files:      len(a.Files),
			Edges:      a.Graph.EdgeCount(),
			Stdlib:     len(a.Imports.StdlibModules()),
			ThirdParty: len(a.Imports.ThirdPartyModules()),
			Duration:   time.Since(start),
		},
	}, nil
}

// parse collects the project's files and extracts imports and guards from
// each one.
func (r *Runner) parse(ctx context.Context, cfg Config) ([]*SourceFile, error) {
	collected, err := pysrc.Collect(r.opts.Target, cfg.Ignore...)
	if err != nil {
		return nil, err
	}

	parser := pyast.NewParser()
	files := make([]*SourceFile, 0, len(collected))
	for _, f := range collected {
		m, err := parser.ParseModule(ctx, f.Source)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", f.Rel)
		}
		files = append(files, &SourceFile{File: f, AST: m})
	}
	return files, nil
}

// findEntry locates the entry-point file among the collected set. Empty
// entry is allowed here so Analyze can serve the graph and classify
// commands; Execute enforces it up front.
func findEntry(files []*SourceFile, entry string) (*SourceFile, error) {
	if entry == "" {
		return nil, nil
	}
	want := filepath.ToSlash(filepath.Clean(entry))
	for _, f := range files {
		if f.Rel == want || f.Path == entry {
			return f, nil
		}
	}
	return nil, errors.New(errors.ErrCodeFileNotFound, "entry point %s is not among the collected files", entry)
}

// EntryCandidates returns the files carrying a __main__ guard, for the
// interactive picker. When none has a guard every file is a candidate.
func (a *Analysis) EntryCandidates() []*SourceFile {
	var guarded []*SourceFile
	for _, f := range a.Files {
		if len(f.AST.Guards) > 0 {
			guarded = append(guarded, f)
		}
	}
	if len(guarded) > 0 {
		return guarded
	}
	return a.Files
}

// writeAtomic writes data to path via a uuid-suffixed temp file in the same
// directory followed by a rename, so readers never observe a partial
// artifact.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "create output directory %s", dir)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "rename %s to %s", tmp, path)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func cleanAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
