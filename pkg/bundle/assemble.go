package bundle

import (
	"bytes"
	"fmt"
	"slices"

	"pybale/pkg/pyast"
)

// Header is the first line of every emitted bundle.
const Header = "# Generated by pybale. Do not edit."

// GuardLine is the single entry-point guard closing every bundle.
const GuardLine = "if __name__ == \"__main__\":"

// assemble renders the final artifact: header, hoisted import blocks, the
// file bodies in dependency order with their imports and guards stripped,
// and the single closing guard replaying the entry file's guard body.
//
// order must already be dependency-first with the entry file last.
func assemble(order []*SourceFile, entry *SourceFile, imports *ImportSet) []byte {
	var b bytes.Buffer
	b.WriteString(Header)
	b.WriteString("\n")

	writeBlock(&b, imports.StdlibStatements())
	writeBlock(&b, imports.ThirdPartyStatements())

	for _, f := range order {
		body := stripBody(f)
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "# --- %s ---\n", f.Rel)
		if len(body) > 0 {
			b.Write(body)
			if body[len(body)-1] != '\n' {
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n\n")
	b.WriteString(GuardLine)
	b.WriteString("\n")
	b.WriteString(guardBody(entry))
	return b.Bytes()
}

func writeBlock(b *bytes.Buffer, statements []string) {
	if len(statements) == 0 {
		return
	}
	b.WriteString("\n")
	for _, s := range statements {
		b.WriteString(s)
		b.WriteString("\n")
	}
}

// stripBody returns the file's source with every module-level import
// statement and __main__ guard removed, trimmed of leading and trailing
// blank lines. Nested imports are left where they are.
func stripBody(f *SourceFile) []byte {
	spans := make([]pyast.Span, 0, len(f.AST.Imports)+len(f.AST.Guards))
	for _, imp := range f.AST.Imports {
		spans = append(spans, imp.Span)
	}
	for _, g := range f.AST.Guards {
		spans = append(spans, g.Span)
	}
	// A plain `import a, b` statement yields one Import per module sharing
	// the same span; cut each byte range once.
	slices.SortFunc(spans, func(a, b pyast.Span) int { return int(a.Start) - int(b.Start) })
	spans = slices.Compact(spans)

	src := slices.Clone(f.Source)
	for i := len(spans) - 1; i >= 0; i-- {
		start, end := int(spans[i].Start), int(spans[i].End)
		if start > len(src) || end > len(src) || start > end {
			continue
		}
		// Take the statement's trailing newline with it so no blank line is
		// left behind.
		if end < len(src) && src[end] == '\n' {
			end++
		}
		src = append(src[:start], src[end:]...)
	}
	return bytes.Trim(src, "\n")
}

// guardBody returns the lines emitted under the closing guard: the entry
// file's guard blocks replayed verbatim, or a bare pass when the entry has
// no guard.
func guardBody(entry *SourceFile) string {
	if entry == nil || len(entry.AST.Guards) == 0 {
		return "    pass\n"
	}
	var b bytes.Buffer
	for _, g := range entry.AST.Guards {
		b.WriteString(g.Body)
		if body := g.Body; len(body) > 0 && body[len(body)-1] != '\n' {
			b.WriteString("\n")
		}
	}
	return b.String()
}
