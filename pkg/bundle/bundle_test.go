package bundle

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"pybale/pkg/classify"
	"pybale/pkg/errors"
)

// writeProject materializes a project tree under a temp dir.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func run(t *testing.T, opts Options) (*Result, error) {
	t.Helper()
	if opts.Output == "" {
		opts.Output = filepath.Join(t.TempDir(), "bundle.py")
	}
	return NewRunner(opts, log.New(io.Discard)).Execute(context.Background())
}

func TestExecuteTwoFileProject(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py": "import os\nimport module\n\nif __name__ == \"__main__\":\n    module.run()\n",
		"module.py": "import sys\n\ndef run():\n    print(sys.argv)\n",
	})

	res, err := run(t, Options{Target: target, Entry: "main.py"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantOrder := []string{"module.py", "main.py"}
	if !slices.Equal(res.Order, wantOrder) {
		t.Errorf("order = %v, want %v", res.Order, wantOrder)
	}
	if !slices.Equal(res.Stdlib, []string{"os", "sys"}) {
		t.Errorf("stdlib = %v, want [os sys]", res.Stdlib)
	}
	if len(res.ThirdParty) != 0 {
		t.Errorf("third-party = %v, want none", res.ThirdParty)
	}
	if !res.Report.Empty() {
		t.Errorf("unexpected warnings: %v", res.Report.Warnings)
	}

	got, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	want := "# Generated by pybale. Do not edit.\n" +
		"\n" +
		"import os\n" +
		"import sys\n" +
		"\n\n" +
		"# --- module.py ---\n" +
		"def run():\n" +
		"    print(sys.argv)\n" +
		"\n\n" +
		"# --- main.py ---\n" +
		"\n\n" +
		"if __name__ == \"__main__\":\n" +
		"    module.run()\n"
	if string(got) != want {
		t.Errorf("bundle mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestExecuteDeterministic(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py": "import b\nimport a\nimport c\n\nif __name__ == \"__main__\":\n    a.go()\n",
		"a.py":    "import json\nimport c\n",
		"b.py":    "import os\n",
		"c.py":    "import sys\n",
	})

	var outputs []string
	for i := 0; i < 2; i++ {
		res, err := run(t, Options{Target: target, Entry: "main.py"})
		if err != nil {
			t.Fatalf("Execute run %d: %v", i, err)
		}
		data, err := os.ReadFile(res.Output)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, string(data))
	}
	if outputs[0] != outputs[1] {
		t.Error("two runs over the same input produced different bundles")
	}
}

func TestExecuteOrderIsDependencyFirst(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py": "import a\n\nif __name__ == \"__main__\":\n    a.go()\n",
		"a.py":    "import b\n",
		"b.py":    "import c\n",
		"c.py":    "X = 1\n",
	})

	res, err := run(t, Options{Target: target, Entry: "main.py"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"c.py", "b.py", "a.py", "main.py"}
	if !slices.Equal(res.Order, want) {
		t.Errorf("order = %v, want %v", res.Order, want)
	}
}

func TestExecuteCycleIsFatal(t *testing.T) {
	target := writeProject(t, map[string]string{
		"a.py": "import b\n\nif __name__ == \"__main__\":\n    pass\n",
		"b.py": "import a\n",
	})
	output := filepath.Join(t.TempDir(), "bundle.py")

	_, err := run(t, Options{Target: target, Entry: "a.py", Output: output})
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Fatalf("err = %v, want CYCLE_DETECTED", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("cycle detection must abort before any output is written")
	}
}

func TestExecutePackageRelativeImports(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py":         "from pkg import a\n\nif __name__ == \"__main__\":\n    a.go()\n",
		"pkg/__init__.py": "",
		"pkg/a.py":        "from . import b\n\ndef go():\n    return b.X\n",
		"pkg/b.py":        "X = 1\n",
	})

	res, err := run(t, Options{Target: target, Entry: "main.py"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"pkg/__init__.py", "pkg/b.py", "pkg/a.py", "main.py"}
	if !slices.Equal(res.Order, want) {
		t.Errorf("order = %v, want %v", res.Order, want)
	}

	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	for _, forbidden := range []string{"from . import", "from pkg import", "import pkg"} {
		if strings.Contains(string(data), forbidden) {
			t.Errorf("bundle still contains local import %q", forbidden)
		}
	}
}

func TestExecuteSingleGuard(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py": "import helper\n\nif __name__ == \"__main__\":\n    helper.go()\n",
		"helper.py": "def go():\n    pass\n\nif __name__ == '__main__':\n    print(\"standalone\")\n",
	})

	res, err := run(t, Options{Target: target, Entry: "main.py"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "__main__"); n != 1 {
		t.Errorf("bundle mentions __main__ %d times, want exactly 1", n)
	}
	if strings.Contains(string(data), "standalone") {
		t.Error("non-entry guard body leaked into the bundle")
	}
	if !strings.Contains(string(data), "    helper.go()\n") {
		t.Error("entry guard body missing from the closing guard")
	}
}

func TestExecuteEntryWithoutGuardEmitsPass(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py": "print(\"hello\")\n",
	})

	res, err := run(t, Options{Target: target, Entry: "main.py"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "if __name__ == \"__main__\":\n    pass\n") {
		t.Errorf("bundle does not end with a pass guard:\n%s", data)
	}
}

func TestExecuteUnresolvedRelativeImportWarns(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py":         "from pkg import a\n\nif __name__ == \"__main__\":\n    pass\n",
		"pkg/__init__.py": "",
		"pkg/a.py":        "from .missing import thing\n",
	})

	res, err := run(t, Options{Target: target, Entry: "main.py"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	files := res.Report.AffectedFiles(errors.ErrCodeUnresolvedImport)
	if !slices.Equal(files, []string{"pkg/a.py"}) {
		t.Errorf("unresolved warnings on %v, want [pkg/a.py]", files)
	}
}

func TestExecuteParseErrorIsRecoverable(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py":   "import os\n\nif __name__ == \"__main__\":\n    pass\n",
		"broken.py": "def broken(:\n",
	})

	res, err := run(t, Options{Target: target, Entry: "main.py"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	files := res.Report.AffectedFiles(errors.ErrCodeParse)
	if !slices.Equal(files, []string{"broken.py"}) {
		t.Errorf("parse warnings on %v, want [broken.py]", files)
	}
}

func TestExecuteExtraStdlibFromConfig(t *testing.T) {
	target := writeProject(t, map[string]string{
		ConfigFile: "extra_stdlib = [\"custommod\"]\n",
		"main.py":  "import custommod\nimport requests\n\nif __name__ == \"__main__\":\n    pass\n",
	})

	res, err := run(t, Options{Target: target, Entry: "main.py"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !slices.Contains(res.Stdlib, "custommod") {
		t.Errorf("stdlib = %v, want custommod included", res.Stdlib)
	}
	if !slices.Equal(res.ThirdParty, []string{"requests"}) {
		t.Errorf("third-party = %v, want [requests]", res.ThirdParty)
	}
}

func TestExecuteEntryNotFound(t *testing.T) {
	target := writeProject(t, map[string]string{"main.py": "pass\n"})

	_, err := run(t, Options{Target: target, Entry: "nope.py"})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExecuteMissingEntryOption(t *testing.T) {
	target := writeProject(t, map[string]string{"main.py": "pass\n"})

	_, err := run(t, Options{Target: target})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestExecuteRegistrationFailureIsWarning(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py": "import requests\n\nif __name__ == \"__main__\":\n    pass\n",
	})

	res, err := run(t, Options{
		Target:   target,
		Entry:    "main.py",
		Register: true,
		Tool:     filepath.Join(t.TempDir(), "absent-tool"),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Registered {
		t.Error("Registered = true after tool failure")
	}
	if len(res.Report.Warnings) == 0 || res.Report.Warnings[0].Code != errors.ErrCodeToolFailed {
		t.Errorf("warnings = %v, want a TOOL_FAILED entry", res.Report.Warnings)
	}
	if _, statErr := os.Stat(res.Output); statErr != nil {
		t.Error("tool failure must not invalidate the written bundle")
	}
}

func TestAnalyzeEntryCandidates(t *testing.T) {
	target := writeProject(t, map[string]string{
		"main.py": "if __name__ == \"__main__\":\n    pass\n",
		"lib.py":  "X = 1\n",
	})

	a, err := NewRunner(Options{Target: target}, log.New(io.Discard)).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	candidates := a.EntryCandidates()
	if len(candidates) != 1 || candidates[0].Rel != "main.py" {
		t.Errorf("candidates = %v, want [main.py]", rels(candidates))
	}
}

func rels(files []*SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Rel
	}
	return out
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("missing config: %v", err)
	}
	if cfg.Namespace != "" || cfg.Tool != "" {
		t.Errorf("missing config yielded %+v, want zero value", cfg)
	}

	content := "namespace = \"myproj\"\ntool = \"pip\"\nextra_stdlib = [\"private\"]\nignore = [\"fixtures\"]\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Namespace != "myproj" || cfg.Tool != "pip" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !slices.Equal(cfg.ExtraStdlib, []string{"private"}) || !slices.Equal(cfg.Ignore, []string{"fixtures"}) {
		t.Errorf("cfg lists = %+v", cfg)
	}

	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte("namespace = [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(dir); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("malformed config err = %v, want INVALID_INPUT", err)
	}
}

func TestImportSetDeduplicatesAndSorts(t *testing.T) {
	set := NewImportSet()
	set.Add(classify.Stdlib, "sys", "import sys")
	set.Add(classify.Stdlib, "os", "import os")
	set.Add(classify.Stdlib, "os", "import  os") // formatting difference, same statement
	set.Add(classify.Local, "helper", "import helper")
	set.Add(classify.ThirdParty, "requests", "import requests")
	set.Add(classify.ThirdParty, "numpy.linalg", "from numpy.linalg import norm")

	if got := set.StdlibStatements(); !slices.Equal(got, []string{"import os", "import sys"}) {
		t.Errorf("stdlib statements = %v", got)
	}
	if got := set.ThirdPartyPackages(); !slices.Equal(got, []string{"numpy", "requests"}) {
		t.Errorf("packages = %v", got)
	}
	if got := set.StdlibModules(); slices.Contains(got, "helper") {
		t.Error("local import leaked into the hoisted set")
	}
}
