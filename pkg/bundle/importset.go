package bundle

import (
	"slices"
	"strings"

	"pybale/pkg/classify"
)

// ImportSet partitions the external import statements seen across the
// project into the two hoisted categories. Local imports never enter the
// set; they are stripped, not hoisted.
//
// Statements are deduplicated by whitespace-normalized text, so the same
// import written in two files (or formatted differently) is hoisted once.
type ImportSet struct {
	stdlib map[string]statement // normalized text -> statement
	third  map[string]statement
}

type statement struct {
	module string // dotted module name, for sorting
	raw    string // verbatim statement text to emit
}

// NewImportSet creates an empty set.
func NewImportSet() *ImportSet {
	return &ImportSet{
		stdlib: make(map[string]statement),
		third:  make(map[string]statement),
	}
}

// Add records an external import statement under the given kind.
// Kinds other than Stdlib and ThirdParty are ignored.
func (s *ImportSet) Add(kind classify.Kind, module, raw string) {
	entry := statement{module: module, raw: raw}
	key := normalizeStatement(raw)
	switch kind {
	case classify.Stdlib:
		s.stdlib[key] = entry
	case classify.ThirdParty:
		s.third[key] = entry
	}
}

// StdlibStatements returns the deduplicated stdlib import statements in
// case-insensitive lexical order.
func (s *ImportSet) StdlibStatements() []string { return sortedStatements(s.stdlib) }

// ThirdPartyStatements returns the deduplicated third-party import
// statements in case-insensitive lexical order.
func (s *ImportSet) ThirdPartyStatements() []string { return sortedStatements(s.third) }

// StdlibModules returns the distinct stdlib module names, sorted.
func (s *ImportSet) StdlibModules() []string { return sortedModules(s.stdlib) }

// ThirdPartyModules returns the distinct third-party module names, sorted.
func (s *ImportSet) ThirdPartyModules() []string { return sortedModules(s.third) }

// ThirdPartyPackages returns the distinct top-level third-party names,
// sorted; this is the list handed to the package manager.
func (s *ImportSet) ThirdPartyPackages() []string {
	seen := map[string]bool{}
	var pkgs []string
	for _, entry := range s.third {
		top := classify.TopLevel(entry.module)
		if top != "" && !seen[top] {
			seen[top] = true
			pkgs = append(pkgs, top)
		}
	}
	slices.Sort(pkgs)
	return pkgs
}

func sortedStatements(m map[string]statement) []string {
	entries := make([]statement, 0, len(m))
	for _, e := range m {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b statement) int {
		if c := compareFold(a.module, b.module); c != 0 {
			return c
		}
		return compareFold(a.raw, b.raw)
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.raw
	}
	return out
}

func sortedModules(m map[string]statement) []string {
	seen := map[string]bool{}
	var modules []string
	for _, e := range m {
		if e.module != "" && !seen[e.module] {
			seen[e.module] = true
			modules = append(modules, e.module)
		}
	}
	slices.Sort(modules)
	return modules
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// normalizeStatement collapses all whitespace so formatting differences do
// not defeat deduplication.
func normalizeStatement(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
