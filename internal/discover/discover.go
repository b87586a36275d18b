// Package discover finds the JavaScript source files under a project root.
//
// A file is a source file when its extension is recognized and its path
// contains an allow-listed directory segment (src, lib, app) and no
// deny-listed one (node_modules, .git). Segments are taken from the root's
// own name downward, so a root named "lib" qualifies everything below it.
package discover

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Default segment lists.
var (
	DefaultSourceDirs = []string{"src", "lib", "app"}
	DefaultIgnoreDirs = []string{"node_modules", ".git"}
)

// Options controls which files Find returns. Zero-valued fields take the
// defaults.
type Options struct {
	Extensions []string // with leading dot
	SourceDirs []string
	IgnoreDirs []string
	Exclude    []string // glob patterns on the slash-separated relative path
}

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Finder walks a root directory for source files.
type Finder struct {
	root    string
	exts    map[string]bool
	sources map[string]bool
	ignores map[string]bool
	exclude []compiledPattern
}

// New creates a Finder for root.
func New(root string, opts Options) (*Finder, error) {
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".js", ".mjs", ".cjs", ".jsx"}
	}
	if len(opts.SourceDirs) == 0 {
		opts.SourceDirs = DefaultSourceDirs
	}
	if len(opts.IgnoreDirs) == 0 {
		opts.IgnoreDirs = DefaultIgnoreDirs
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	f := &Finder{
		root:    abs,
		exts:    toSet(opts.Extensions, strings.ToLower),
		sources: toSet(opts.SourceDirs, nil),
		ignores: toSet(opts.IgnoreDirs, nil),
	}
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		f.exclude = append(f.exclude, compiledPattern{pattern: pattern, glob: g})
	}
	return f, nil
}

func toSet(items []string, norm func(string) string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		if norm != nil {
			it = norm(it)
		}
		set[it] = true
	}
	return set
}

// Root returns the absolute root directory.
func (f *Finder) Root() string { return f.root }

// Find returns the relative, slash-separated paths of all source files under
// the root, sorted.
func (f *Finder) Find() ([]string, error) {
	var out []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != f.root && f.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if f.Match(rel) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", f.root, err)
	}
	sort.Strings(out)
	return out, nil
}

// SkipDir reports whether a directory with the given base name is never
// descended into.
func (f *Finder) SkipDir(name string) bool { return f.ignores[name] }

// Match reports whether rel, a slash-separated path relative to the root,
// names a source file.
func (f *Finder) Match(rel string) bool {
	if !f.exts[strings.ToLower(filepath.Ext(rel))] {
		return false
	}
	if f.excluded(rel) {
		return false
	}
	segments := append([]string{filepath.Base(f.root)}, strings.Split(rel, "/")...)
	return f.isSource(segments[:len(segments)-1])
}

// isSource applies the segment lists: an ignored segment anywhere rejects
// the path, otherwise any source segment accepts it.
func (f *Finder) isSource(dirs []string) bool {
	source := false
	for _, seg := range dirs {
		if f.ignores[seg] {
			return false
		}
		if f.sources[seg] {
			source = true
		}
	}
	return source
}

func (f *Finder) excluded(rel string) bool {
	for _, cp := range f.exclude {
		if cp.glob.Match(rel) {
			return true
		}
	}
	return false
}
