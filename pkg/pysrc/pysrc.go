// Package pysrc collects the Python source files of a project.
//
// The collector walks a directory tree, skips paths that can never
// contribute to a bundle (VCS metadata, byte-compiled caches, virtual
// environments, build output, test trees) and returns every *.py file it
// finds. Results are sorted by relative path so the rest of the pipeline is
// deterministic, but consumers must treat the result as a set: nothing may
// depend on traversal order.
package pysrc

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"pybale/pkg/errors"
)

// Ext is the source-file extension considered by the collector.
const Ext = ".py"

// InitModule is the file name that makes a directory a Python package.
const InitModule = "__init__.py"

// ignoredDirs are directory names excluded from collection wherever they
// appear in the tree.
var ignoredDirs = map[string]bool{
	".git":          true,
	".hg":           true,
	".svn":          true,
	"__pycache__":   true,
	".venv":         true,
	"venv":          true,
	".tox":          true,
	".eggs":         true,
	".mypy_cache":   true,
	".pytest_cache": true,
	".ruff_cache":   true,
	"node_modules":  true,
	"build":         true,
	"dist":          true,
	"tests":         true,
	"test":          true,
}

// File is one collected source file.
//
// Path is the absolute location on disk and serves as the file's identity.
// Rel is the slash-separated path relative to the collection root; Module is
// the dotted module path derived from Rel (`a/b/c.py` → `a.b.c`,
// `a/b/__init__.py` → `a.b`).
type File struct {
	Path   string
	Rel    string
	Module string
	Source []byte
}

// TopLevel returns the first component of the file's module path.
func (f *File) TopLevel() string {
	mod, _, _ := strings.Cut(f.Module, ".")
	return mod
}

// Collect walks root and returns every Python source file under it, sorted
// by relative path. extraIgnore names additional directory names to skip
// (from project configuration).
//
// Returns FILE_NOT_FOUND if root does not exist and NOT_A_DIRECTORY if it
// is a file.
func Collect(root string, extraIgnore ...string) ([]*File, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "target directory %s does not exist", root)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "stat %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeNotADirectory, "target %s is not a directory", root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", root)
	}

	skip := make(map[string]bool, len(ignoredDirs)+len(extraIgnore))
	for name := range ignoredDirs {
		skip[name] = true
	}
	for _, name := range extraIgnore {
		skip[name] = true
	}

	var files []*File
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != abs && (skip[name] || strings.HasSuffix(name, ".egg-info")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(name) != Ext {
			return nil
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, &File{
			Path:   path,
			Rel:    rel,
			Module: moduleFromRel(rel),
			Source: src,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "walk %s", root)
	}

	// WalkDir is already lexical, but sort explicitly so determinism never
	// hinges on filesystem behavior.
	slices.SortFunc(files, func(a, b *File) int { return strings.Compare(a.Rel, b.Rel) })
	return files, nil
}

// moduleFromRel converts a relative path into a dotted module path.
func moduleFromRel(rel string) string {
	mod := strings.TrimSuffix(rel, Ext)
	mod = strings.TrimSuffix(mod, "/"+strings.TrimSuffix(InitModule, Ext))
	if mod == strings.TrimSuffix(InitModule, Ext) {
		mod = ""
	}
	return strings.ReplaceAll(mod, "/", ".")
}
