package bundle

import (
	"context"
	"strings"

	"pybale/pkg/classify"
	"pybale/pkg/dag"
	"pybale/pkg/errors"
	"pybale/pkg/pyast"
	"pybale/pkg/pysrc"
)

// SourceFile pairs a collected file with its extraction result.
type SourceFile struct {
	*pysrc.File
	AST *pyast.Module
}

// resolver maps local imports back to collected files and materializes the
// dependency graph. It carries the dotted-module index built once from the
// file set.
type resolver struct {
	classifier *classify.Classifier
	namespace  string
	index      map[string]string // dotted module path -> relative file path
	report     *Report
}

func newResolver(files []*SourceFile, classifier *classify.Classifier, namespace string, report *Report) *resolver {
	index := make(map[string]string, len(files))
	for _, f := range files {
		index[f.Module] = f.Rel
	}
	return &resolver{
		classifier: classifier,
		namespace:  namespace,
		index:      index,
		report:     report,
	}
}

// buildGraph creates one node per file and one edge per resolved local
// import. Imports that classify local but match no collected file are
// reported as unresolved warnings; a file importing itself is warned about
// and skipped.
func (r *resolver) buildGraph(ctx context.Context, files []*SourceFile) (*dag.Graph, error) {
	g := dag.New()
	for _, f := range files {
		if err := g.AddNode(f.Rel); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "add node %s", f.Rel)
		}
	}

	for _, f := range files {
		for _, imp := range f.AST.Imports {
			if !r.isLocal(ctx, imp) {
				continue
			}
			targets, ok := r.resolve(f, imp)
			if !ok {
				r.report.Add(errors.ErrCodeUnresolvedImport, f.Rel, imp.Line,
					"local import %q does not match any collected file", importName(imp))
				continue
			}
			for _, target := range targets {
				if target == f.Rel {
					r.report.Add(errors.ErrCodeUnresolvedImport, f.Rel, imp.Line,
						"file imports itself; ignoring")
					continue
				}
				if err := g.AddEdge(f.Rel, target); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "add edge %s -> %s", f.Rel, target)
				}
			}
		}
	}
	return g, nil
}

func (r *resolver) isLocal(ctx context.Context, imp pyast.Import) bool {
	if imp.Relative {
		return true
	}
	return r.classifier.Classify(ctx, imp.Module) == classify.Local
}

// resolve returns the relative paths of the files an import refers to.
// A from-import can point at several files at once when its symbols are
// themselves submodules.
func (r *resolver) resolve(f *SourceFile, imp pyast.Import) ([]string, bool) {
	var base string
	var ok bool
	if imp.Relative {
		base, ok = r.relativeBase(f, imp)
		if !ok {
			return nil, false
		}
	} else {
		base = imp.Module
	}

	var targets []string
	baseRel, baseOK := r.lookup(base)
	if baseOK {
		targets = append(targets, baseRel)
	}

	// `from X import y` may name submodules of X rather than attributes;
	// each one that maps to a file becomes its own dependency.
	hitSubmodule := false
	for _, sym := range imp.Symbols {
		if sym == "*" {
			continue
		}
		if rel, ok := r.lookup(joinModule(base, sym)); ok {
			targets = append(targets, rel)
			hitSubmodule = true
		}
	}

	if !baseOK && !hitSubmodule {
		return nil, false
	}
	return targets, true
}

// relativeBase turns the leading dots of a relative import into the dotted
// module path they are anchored at. One dot means the file's own package;
// each further dot climbs one package up.
func (r *resolver) relativeBase(f *SourceFile, imp pyast.Import) (string, bool) {
	pkg := packageOf(f)
	for i := 1; i < imp.Level; i++ {
		if pkg == "" {
			return "", false // climbed past the project root
		}
		pkg = parentModule(pkg)
	}
	return joinModule(pkg, imp.Module), true
}

// lookup resolves a dotted module path against the index, retrying with the
// project namespace stripped so both flat and namespaced layouts resolve.
func (r *resolver) lookup(module string) (string, bool) {
	if rel, ok := r.index[module]; ok {
		return rel, true
	}
	if r.namespace == "" {
		return "", false
	}
	if module == r.namespace {
		rel, ok := r.index[""]
		return rel, ok
	}
	if rest, ok := strings.CutPrefix(module, r.namespace+"."); ok {
		rel, ok := r.index[rest]
		return rel, ok
	}
	return "", false
}

// packageOf returns the dotted path of the package containing f. A package
// __init__ file belongs to the package it defines.
func packageOf(f *SourceFile) string {
	if strings.HasSuffix(f.Rel, "/"+pysrc.InitModule) || f.Rel == pysrc.InitModule {
		return f.Module
	}
	return parentModule(f.Module)
}

func parentModule(module string) string {
	if i := strings.LastIndex(module, "."); i >= 0 {
		return module[:i]
	}
	return ""
}

func joinModule(base, sub string) string {
	switch {
	case base == "":
		return sub
	case sub == "":
		return base
	default:
		return base + "." + sub
	}
}

// importName renders an import for warning messages.
func importName(imp pyast.Import) string {
	if !imp.Relative {
		return imp.Module
	}
	return strings.Repeat(".", imp.Level) + imp.Module
}
