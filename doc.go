// Package joanna extracts API metadata from JavaScript source: classes,
// functions, methods, documentation comments, and how each is exported.
//
// # Pipeline
//
// For each source file, joanna parses with tree-sitter, walks the tree once
// to build a registry of entities keyed by source position, and snapshots
// the registry as a [FileMetadata]. An optional Risor filter script then
// decides which entities to keep.
//
// # Usage
//
// Extract one file or a whole project:
//
//	md, err := joanna.Generate(ctx, "lib/person.js", src)
//
//	res, err := joanna.GenerateDirectory(ctx, "path/to/project")
//	out, err := json.MarshalIndent(res, "", "  ")
//
// Or maintain an incremental index and query it:
//
//	e, err := joanna.New(".joanna/index.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.IndexDirectory(ctx, "path/to/project")
//	locs, err := e.Query().Exports("Person")
//
// # Output
//
// Each entity is identified by its start position. [FileMetadata] marshals
// as {"objects": {line: {column: entity}}, "exports": ...} where exports is
// either the line of the default export or a map of exported name to line.
// Lines are 0-based, columns are byte offsets.
//
// # Documentation tags
//
// Documentation beginning with Public:, Private:, Essential:, Extended: or
// Section: keeps its text. Other documentation attached to an entity is
// tagged "Private: ". Comments attached to nothing are kept untagged as
// comment entities.
package joanna
