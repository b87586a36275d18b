package joanna

import (
	"fmt"

	"github.com/jward/joanna/internal/store"
)

// QueryBuilder provides read access to an index.
type QueryBuilder struct {
	store *store.Store
}

// ExportLocation is a file exporting a name.
type ExportLocation struct {
	File    string
	Name    string // empty for a default export
	Line    int    // output line of the exported entity
	Default bool
}

// EntityLocation is an entity and the file it was extracted from.
type EntityLocation struct {
	File   string
	Entity *Entity
}

// FileMetadata returns the stored metadata of an indexed file, or nil if
// the file is not in the index.
func (q *QueryBuilder) FileMetadata(path string) (*FileMetadata, error) {
	f, err := q.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("file metadata: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	md, err := q.store.LoadMetadata(f.ID)
	if err != nil {
		return nil, fmt.Errorf("file metadata: %w", err)
	}
	return md, nil
}

// Exports returns the files exporting name. The name "default" selects
// default exports.
func (q *QueryBuilder) Exports(name string) ([]ExportLocation, error) {
	var (
		rows []*store.Export
		err  error
	)
	if name == "default" {
		rows, err = q.store.DefaultExports()
	} else {
		rows, err = q.store.ExportsByName(name)
	}
	if err != nil {
		return nil, fmt.Errorf("exports: %w", err)
	}

	paths := make(map[int64]string)
	out := make([]ExportLocation, 0, len(rows))
	for _, x := range rows {
		path, err := q.filePath(paths, x.FileID)
		if err != nil {
			return nil, fmt.Errorf("exports: %w", err)
		}
		out = append(out, ExportLocation{File: path, Name: x.Name, Line: x.Line, Default: x.IsDefault})
	}
	return out, nil
}

// EntitiesNamed returns every indexed entity called name.
func (q *QueryBuilder) EntitiesNamed(name string) ([]EntityLocation, error) {
	rows, err := q.store.EntitiesByName(name)
	if err != nil {
		return nil, fmt.Errorf("entities named: %w", err)
	}
	return q.locate(rows)
}

// locate pairs stored entities with their file paths.
func (q *QueryBuilder) locate(rows []*store.Entity) ([]EntityLocation, error) {
	paths := make(map[int64]string)
	out := make([]EntityLocation, 0, len(rows))
	for _, row := range rows {
		path, err := q.filePath(paths, row.FileID)
		if err != nil {
			return nil, err
		}
		out = append(out, EntityLocation{File: path, Entity: row.ToExtract()})
	}
	return out, nil
}

// EntitiesOfKind returns every indexed entity of the given kind.
func (q *QueryBuilder) EntitiesOfKind(kind Kind) ([]EntityLocation, error) {
	rows, err := q.store.EntitiesByKind(string(kind))
	if err != nil {
		return nil, fmt.Errorf("entities of kind: %w", err)
	}
	return q.locate(rows)
}

// Files returns every indexed file, sorted by path.
func (q *QueryBuilder) Files() ([]*File, error) {
	files, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return files, nil
}

// filePath resolves a file ID to its path, memoized in cache.
func (q *QueryBuilder) filePath(cache map[int64]string, id int64) (string, error) {
	if p, ok := cache[id]; ok {
		return p, nil
	}
	f, err := q.store.FileByID(id)
	if err != nil {
		return "", err
	}
	if f == nil {
		return "", fmt.Errorf("file %d not found", id)
	}
	cache[id] = f.Path
	return f.Path, nil
}
