package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, hash, last_indexed) VALUES (?, ?, ?)",
		f.Path, f.Hash, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// UpdateFile rewrites the hash and index time of an existing file row.
func (s *Store) UpdateFile(f *File) error {
	_, err := s.db.Exec(
		"UPDATE files SET hash = ?, last_indexed = ? WHERE id = ?",
		f.Hash, f.LastIndexed, f.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return nil
}

func (s *Store) scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var hash sql.NullString
	var indexed sql.NullTime
	if err := scanner.Scan(&f.ID, &f.Path, &hash, &indexed); err != nil {
		return nil, err
	}
	f.Hash = hash.String
	f.LastIndexed = indexed.Time
	return f, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := s.scanFile(s.db.QueryRow(
		"SELECT id, path, hash, last_indexed FROM files WHERE path = ?", path,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FileByID(id int64) (*File, error) {
	f, err := s.scanFile(s.db.QueryRow(
		"SELECT id, path, hash, last_indexed FROM files WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, hash, last_indexed FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := s.scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Entity operations ---

func (s *Store) InsertEntity(e *Entity) (int64, error) {
	id, err := insertEntityTx(s.db, e)
	if err != nil {
		return 0, fmt.Errorf("insert entity: %w", err)
	}
	e.ID = id
	return id, nil
}

const entityColumns = `id, file_id, kind, name, binding, doc, super_class,
	start_line, start_col, end_line, end_col, params, static_members, instance_members`

func (s *Store) scanEntity(scanner interface{ Scan(...any) error }) (*Entity, error) {
	e := &Entity{}
	var name, binding, doc, super, params, static, instance sql.NullString
	err := scanner.Scan(&e.ID, &e.FileID, &e.Kind, &name, &binding, &doc, &super,
		&e.StartLine, &e.StartCol, &e.EndLine, &e.EndCol, &params, &static, &instance)
	if err != nil {
		return nil, err
	}
	e.Name, e.Binding, e.Doc, e.SuperClass = name.String, binding.String, doc.String, super.String
	e.Params = unmarshalJSONList[string](params.String)
	e.StaticMembers = unmarshalJSONList[[2]int](static.String)
	e.InstanceMembers = unmarshalJSONList[[2]int](instance.String)
	return e, nil
}

func (s *Store) queryEntities(query string, args ...any) ([]*Entity, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entities []*Entity
	for rows.Next() {
		e, err := s.scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (s *Store) EntitiesByFile(fileID int64) ([]*Entity, error) {
	return s.queryEntities(
		"SELECT "+entityColumns+" FROM entities WHERE file_id = ? ORDER BY start_line, start_col", fileID)
}

func (s *Store) EntitiesByName(name string) ([]*Entity, error) {
	return s.queryEntities(
		"SELECT "+entityColumns+" FROM entities WHERE name = ? ORDER BY file_id, start_line, start_col", name)
}

func (s *Store) EntitiesByKind(kind string) ([]*Entity, error) {
	return s.queryEntities(
		"SELECT "+entityColumns+" FROM entities WHERE kind = ? ORDER BY file_id, start_line, start_col", kind)
}

// --- Export operations ---

func (s *Store) InsertExport(x *Export) (int64, error) {
	id, err := insertExportTx(s.db, x)
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}
	x.ID = id
	return id, nil
}

func (s *Store) queryExports(query string, args ...any) ([]*Export, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exports []*Export
	for rows.Next() {
		x := &Export{}
		var name sql.NullString
		if err := rows.Scan(&x.ID, &x.FileID, &name, &x.Line, &x.IsDefault); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		x.Name = name.String
		exports = append(exports, x)
	}
	return exports, rows.Err()
}

func (s *Store) ExportsByFile(fileID int64) ([]*Export, error) {
	return s.queryExports(
		"SELECT id, file_id, name, line, is_default FROM exports WHERE file_id = ? ORDER BY name", fileID)
}

// ExportsByName returns the named exports called name across all files.
func (s *Store) ExportsByName(name string) ([]*Export, error) {
	return s.queryExports(
		"SELECT id, file_id, name, line, is_default FROM exports WHERE name = ? AND is_default = FALSE ORDER BY file_id", name)
}

// DefaultExports returns the default export of every file that has one.
func (s *Store) DefaultExports() ([]*Export, error) {
	return s.queryExports(
		"SELECT id, file_id, name, line, is_default FROM exports WHERE is_default = TRUE ORDER BY file_id")
}
