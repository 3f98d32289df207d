package bundle

import (
	"fmt"
	"slices"
	"strings"

	"pybale/pkg/errors"
)

// Warning is one recoverable condition encountered during a run.
// Warnings never abort the bundle; they are collected and rendered once at
// the end of the run instead of being interleaved with progress output.
type Warning struct {
	Code    errors.Code // PARSE_ERROR, UNRESOLVED_IMPORT or TOOL_FAILED
	Path    string      // project-relative file, empty for run-level warnings
	Line    int         // 1-based source line, 0 when not applicable
	Message string
}

// String formats the warning for log output.
func (w Warning) String() string {
	switch {
	case w.Path != "" && w.Line > 0:
		return fmt.Sprintf("%s:%d: %s", w.Path, w.Line, w.Message)
	case w.Path != "":
		return fmt.Sprintf("%s: %s", w.Path, w.Message)
	default:
		return w.Message
	}
}

// Report aggregates the recoverable conditions of one bundling run.
type Report struct {
	Warnings []Warning
}

// Add records a warning.
func (r *Report) Add(code errors.Code, path string, line int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{
		Code:    code,
		Path:    path,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// Empty reports whether the run produced no warnings.
func (r *Report) Empty() bool { return len(r.Warnings) == 0 }

// Sorted returns the warnings ordered by code, then path, then line, so the
// end-of-run summary is stable across runs.
func (r *Report) Sorted() []Warning {
	out := slices.Clone(r.Warnings)
	slices.SortFunc(out, func(a, b Warning) int {
		if c := strings.Compare(string(a.Code), string(b.Code)); c != 0 {
			return c
		}
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return a.Line - b.Line
	})
	return out
}

// AffectedFiles returns the distinct files mentioned by warnings with the
// given code, sorted ascending.
func (r *Report) AffectedFiles(code errors.Code) []string {
	seen := map[string]bool{}
	var files []string
	for _, w := range r.Warnings {
		if w.Code == code && w.Path != "" && !seen[w.Path] {
			seen[w.Path] = true
			files = append(files, w.Path)
		}
	}
	slices.Sort(files)
	return files
}
