// Package pyast extracts import statements and __main__ guards from Python
// source using a tree-sitter parse of the real grammar.
//
// Regex-based import scanning breaks on parenthesized multi-line from-imports
// and on import-looking text inside strings; everything here works on CST
// nodes instead. Files that do not parse cleanly are still processed: the
// statements tree-sitter could recover are used and the broken regions are
// reported as recoverable parse errors.
package pyast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Span is a half-open byte range [Start, End) in the source.
type Span struct {
	Start uint32
	End   uint32
}

// Import is one imported module reference.
//
// A plain `import a.b, c` statement yields one Import per module with a
// normalized Raw (`import a.b`), so a statement mixing categories can be
// hoisted into separate blocks. A from-import yields a single Import whose
// Raw is the verbatim statement text.
type Import struct {
	Module   string   // dotted module path; empty for `from . import x`
	Symbols  []string // imported names; nil for plain imports, "*" for wildcard
	Raw      string   // statement text to hoist
	Relative bool     // true for `from .` / `from ..pkg` forms
	Level    int      // number of leading dots (0 for absolute)
	Line     int      // 1-based source line of the statement
	Span     Span     // byte range of the whole statement
}

// Guard is a module-level `if __name__ == "__main__":` block.
// Body holds the verbatim source lines of the block, indentation included,
// so the assembler can replay them under the single emitted guard.
type Guard struct {
	Span Span
	Body string
	Line int
}

// ParseError is a recoverable syntax problem found in one region of a file.
type ParseError struct {
	Line int
	Text string
}

// Error implements the error interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Text)
}

// Module is the extraction result for one source file.
type Module struct {
	Imports []Import     // module-level imports, in source order
	Guards  []Guard      // module-level __main__ guards, in source order
	Errors  []ParseError // recoverable parse errors
}

// Parser wraps a tree-sitter parser configured for Python.
// A Parser is not safe for concurrent use; the pipeline parses sequentially.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a Python parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// ParseModule parses source and extracts module-level imports and guards.
// A non-nil Module is returned even when the file contains syntax errors;
// those surface in Module.Errors.
func (p *Parser) ParseModule(ctx context.Context, source []byte) (*Module, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	m := &Module{}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "import_statement":
			m.Imports = append(m.Imports, plainImports(node, source)...)
		case "import_from_statement", "future_import_statement":
			m.Imports = append(m.Imports, fromImport(node, source))
		case "if_statement":
			if g, ok := mainGuard(node, source); ok {
				m.Guards = append(m.Guards, g)
			}
		case "ERROR":
			m.Errors = append(m.Errors, ParseError{
				Line: int(node.StartPoint().Row) + 1,
				Text: firstLine(node.Content(source)),
			})
		}
	}

	if root.HasError() && len(m.Errors) == 0 {
		// Errors nested below module level still make the file suspect.
		m.Errors = append(m.Errors, ParseError{Line: errorLine(root), Text: "unparseable syntax"})
	}
	return m, nil
}

// errorLine finds the line of the first ERROR or MISSING node in the tree.
func errorLine(root *sitter.Node) int {
	line := 1
	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPoint().Row) + 1
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if walk(n.Child(i)) {
				return true
			}
		}
		return false
	}
	walk(root)
	return line
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
