// Package extract walks a JavaScript syntax tree and records its documentable
// API: classes, functions, class members, documentation comments and how each
// entity is exported.
//
// Extraction is a single depth-first pass. Every entity is keyed by the start
// of its source range; when an export wraps a declaration the entity is moved
// to the wrapper's range so that each logical entity appears exactly once.
package extract

import "github.com/jward/joanna/internal/syntax"

// Extract walks root and returns the file's metadata. It never fails:
// constructs it does not recognize are traversed without producing entities.
func Extract(root *syntax.Node, opts ...Option) *FileMetadata {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	w := &walker{reg: NewRegistry(), opts: o}
	w.visit(root, nil, nil)
	w.resolveDeferred()
	return w.reg.Snapshot()
}
