package pyast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// plainImports expands `import a.b, c as d` into one Import per module.
// Raw is normalized to a single-module statement so a mixed statement can be
// hoisted into different category blocks.
func plainImports(node *sitter.Node, source []byte) []Import {
	span := nodeSpan(node)
	line := int(node.StartPoint().Row) + 1

	var imports []Import
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		var module string
		switch child.Type() {
		case "dotted_name":
			module = child.Content(source)
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				module = name.Content(source)
			}
		default:
			continue
		}
		imports = append(imports, Import{
			Module: module,
			Raw:    "import " + child.Content(source),
			Line:   line,
			Span:   span,
		})
	}
	return imports
}

// fromImport extracts a `from X import a, b` statement (including the
// `from __future__` form and relative `from .pkg import x` forms).
func fromImport(node *sitter.Node, source []byte) Import {
	imp := Import{
		Raw:  node.Content(source),
		Line: int(node.StartPoint().Row) + 1,
		Span: nodeSpan(node),
	}

	if node.Type() == "future_import_statement" {
		imp.Module = "__future__"
		imp.Symbols = importedNames(node, source, 0)
		return imp
	}

	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil && node.NamedChildCount() > 0 {
		moduleNode = node.NamedChild(0)
	}
	// The module reference only occupies a slot in the name scan when it is
	// a dotted_name; relative_import nodes are filtered out by type.
	skip := 0
	if moduleNode != nil {
		switch moduleNode.Type() {
		case "dotted_name":
			imp.Module = moduleNode.Content(source)
			skip = 1
		case "relative_import":
			imp.Relative = true
			imp.Level, imp.Module = splitRelative(moduleNode.Content(source))
		}
	}

	imp.Symbols = importedNames(node, source, skip)
	return imp
}

// importedNames collects the names after the `import` keyword, skipping the
// first `skip` named children (the module reference, when present).
func importedNames(node *sitter.Node, source []byte, skip int) []string {
	var names []string
	seen := 0
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name", "aliased_import", "wildcard_import":
		default:
			continue
		}
		if seen < skip {
			seen++
			continue
		}
		switch child.Type() {
		case "dotted_name":
			names = append(names, child.Content(source))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				names = append(names, name.Content(source))
			}
		case "wildcard_import":
			names = append(names, "*")
		}
	}
	return names
}

// splitRelative splits a relative module reference like "..pkg.mod" into the
// dot level and the trailing dotted path ("" for bare `from . import x`).
func splitRelative(ref string) (level int, module string) {
	for level < len(ref) && ref[level] == '.' {
		level++
	}
	return level, ref[level:]
}

// mainGuard reports whether a top-level if statement is an entry-point
// guard (`if __name__ == "__main__":`) and captures its body verbatim.
func mainGuard(node *sitter.Node, source []byte) (Guard, bool) {
	cond := node.ChildByFieldName("condition")
	if cond == nil || cond.Type() != "comparison_operator" {
		return Guard{}, false
	}
	if !isGuardCondition(cond, source) {
		return Guard{}, false
	}

	g := Guard{
		Span: nodeSpan(node),
		Line: int(node.StartPoint().Row) + 1,
	}
	if body := node.ChildByFieldName("consequence"); body != nil {
		start := lineStart(source, body.StartByte())
		g.Body = string(source[start:body.EndByte()])
	}
	return g, true
}

// isGuardCondition matches `__name__ == "__main__"` in either operand order.
func isGuardCondition(cond *sitter.Node, source []byte) bool {
	if cond.NamedChildCount() != 2 {
		return false
	}
	if !strings.Contains(cond.Content(source), "==") {
		return false
	}
	var hasName, hasMain bool
	for i := 0; i < 2; i++ {
		child := cond.NamedChild(i)
		switch child.Type() {
		case "identifier":
			hasName = hasName || child.Content(source) == "__name__"
		case "string":
			text := strings.Trim(child.Content(source), `'"`)
			hasMain = hasMain || text == "__main__"
		}
	}
	return hasName && hasMain
}

// lineStart walks back from offset to the start of its line.
func lineStart(source []byte, offset uint32) uint32 {
	for offset > 0 && source[offset-1] != '\n' {
		offset--
	}
	return offset
}

func nodeSpan(node *sitter.Node) Span {
	return Span{Start: node.StartByte(), End: node.EndByte()}
}
