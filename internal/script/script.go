// Package script runs Risor filter scripts that decide which extracted
// entities reach the output.
//
// A filter script is evaluated once per entity. It sees the globals
// `entity` (a map describing the entity), `file` (the file's path) and
// `log`, and its final value is the verdict: truthy keeps the entity.
//
//	// keep only documented public API
//	doc := entity["doc"]
//	entity["kind"] == "comment" || (doc != nil && doc[:7] == "Public:")
package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/sirupsen/logrus"

	"github.com/jward/joanna/internal/extract"
)

// Filter is a compiled-on-demand Risor predicate over entities.
type Filter struct {
	source string
	label  string
	dir    string // base directory for import statements; "" disables imports
	logger *logrus.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger routes the script's log global to logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(f *Filter) {
		f.logger = logger
	}
}

// New creates a Filter from Risor source. label names the script in errors.
func New(source, label string, opts ...Option) *Filter {
	f := &Filter{source: source, label: label}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logrus.StandardLogger()
	}
	return f
}

// Load reads a filter script from disk. Imports in the script resolve
// against the script's directory.
func Load(path string, opts ...Option) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: loading %s: %w", path, err)
	}
	f := New(string(data), path, opts...)
	f.dir = filepath.Dir(path)
	return f, nil
}

// Label returns the name the script was created with.
func (f *Filter) Label() string { return f.label }

// Source returns the script's Risor source.
func (f *Filter) Source() string { return f.source }

// Keep evaluates the script for one entity of the file at path.
func (f *Filter) Keep(ctx context.Context, path string, e *extract.Entity) (bool, error) {
	globals := map[string]any{
		"entity": entityObject(e),
		"file":   object.NewString(path),
		"log":    mustProxy(&logObject{entry: f.logger.WithField("script", f.label)}),
	}

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := f.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, f.source, opts...)
	if err != nil {
		return false, fmt.Errorf("script: %s: %w", f.label, err)
	}
	return result.IsTruthy(), nil
}

// Apply removes the entities of md the script rejects, then drops class
// member positions and exports whose entity was removed.
func (f *Filter) Apply(ctx context.Context, path string, md *extract.FileMetadata) error {
	targets := exportTargets(md)
	for _, e := range md.Entities() {
		keep, err := f.Keep(ctx, path, e)
		if err != nil {
			return err
		}
		if !keep {
			md.Remove(e.Range.Start)
		}
	}
	prune(md, targets)
	return nil
}

// exportRefs holds the position of each exported entity. Exports only record
// a line, and a line may hold more than one entity.
type exportRefs struct {
	def    extract.Position
	hasDef bool
	named  map[string]extract.Position
}

func exportTargets(md *extract.FileMetadata) exportRefs {
	refs := exportRefs{named: make(map[string]extract.Position)}
	if md.Exports.HasDefault {
		refs.def, refs.hasDef = exportTarget(md, md.Exports.Default, "", extract.BindingModuleExport)
	}
	for name, line := range md.Exports.Named {
		if p, ok := exportTarget(md, line, name, extract.BindingNamedExport); ok {
			refs.named[name] = p
		}
	}
	return refs
}

// exportTarget picks the entity on line an export refers to. The entity
// carrying the export's binding wins, then one with the exported name, then
// the leftmost.
func exportTarget(md *extract.FileMetadata, line int, name string, b extract.Binding) (extract.Position, bool) {
	var (
		best  extract.Position
		score = -1
	)
	for col, e := range md.Objects[line] {
		s := 0
		if e.Binding == b {
			s += 2
		}
		if name != "" && e.Name == name {
			s++
		}
		if s > score || (s == score && col < best.Column) {
			best, score = extract.Position{Line: line, Column: col}, s
		}
	}
	return best, score >= 0
}

// prune removes references to entities that are gone.
func prune(md *extract.FileMetadata, targets exportRefs) {
	live := func(ps []extract.Position) []extract.Position {
		out := make([]extract.Position, 0, len(ps))
		for _, p := range ps {
			if md.At(p) != nil {
				out = append(out, p)
			}
		}
		return out
	}
	for _, e := range md.Entities() {
		if e.Kind == extract.KindClass {
			e.StaticMembers = live(e.StaticMembers)
			e.InstanceMembers = live(e.InstanceMembers)
		}
	}

	if md.Exports.HasDefault && (!targets.hasDef || md.At(targets.def) == nil) {
		md.Exports.HasDefault = false
		md.Exports.Default = 0
	}
	for name := range md.Exports.Named {
		p, ok := targets.named[name]
		if !ok || md.At(p) == nil {
			delete(md.Exports.Named, name)
		}
	}
}

func (f *Filter) buildImporter(globals map[string]any) importer.Importer {
	if f.dir == "" {
		return nil
	}
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}
	return importer.NewLocalImporter(importer.LocalImporterOptions{
		GlobalNames: globalNames,
		SourceDir:   f.dir,
		Extensions:  []string{".risor"},
	})
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("script: proxy error: %v", err))
	}
	return p
}
