package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/jward/joanna/internal/extract"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// SaveMetadata replaces the stored metadata of a file within a single
// transaction: old entities and exports are deleted, then md is inserted.
//
// Insert order:
//  1. Entities, by start position
//  2. Named exports, by name
//  3. The default export, if any
func (s *Store) SaveMetadata(fileID int64, md *extract.FileMetadata) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save metadata: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFileDataTx(tx, []int64{fileID}); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}

	for _, e := range md.Entities() {
		row := EntityFromExtract(fileID, e)
		if _, err := insertEntityTx(tx, row); err != nil {
			return fmt.Errorf("save metadata: entity at %d:%d: %w", row.StartLine, row.StartCol, err)
		}
	}

	names := make([]string, 0, len(md.Exports.Named))
	for name := range md.Exports.Named {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		x := &Export{FileID: fileID, Name: name, Line: md.Exports.Named[name]}
		if _, err := insertExportTx(tx, x); err != nil {
			return fmt.Errorf("save metadata: export %q: %w", name, err)
		}
	}
	if md.Exports.HasDefault {
		x := &Export{FileID: fileID, Line: md.Exports.Default, IsDefault: true}
		if _, err := insertExportTx(tx, x); err != nil {
			return fmt.Errorf("save metadata: default export: %w", err)
		}
	}

	return tx.Commit()
}

// LoadMetadata rebuilds the FileMetadata of a file from its stored rows.
func (s *Store) LoadMetadata(fileID int64) (*extract.FileMetadata, error) {
	entities, err := s.EntitiesByFile(fileID)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	exports, err := s.ExportsByFile(fileID)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	md := extract.NewFileMetadata()
	for _, row := range entities {
		md.Put(row.ToExtract())
	}
	md.Exports.Named = make(map[string]int)
	for _, x := range exports {
		if x.IsDefault {
			md.Exports.HasDefault = true
			md.Exports.Default = x.Line
			continue
		}
		md.Exports.Named[x.Name] = x.Line
	}
	return md, nil
}

// EntityFromExtract converts an extracted entity to its stored form.
func EntityFromExtract(fileID int64, e *extract.Entity) *Entity {
	return &Entity{
		FileID:          fileID,
		Kind:            string(e.Kind),
		Name:            e.Name,
		Binding:         string(e.Binding),
		Doc:             e.Doc,
		SuperClass:      e.SuperClass,
		StartLine:       e.Range.Start.Line,
		StartCol:        e.Range.Start.Column,
		EndLine:         e.Range.End.Line,
		EndCol:          e.Range.End.Column,
		Params:          e.Params,
		StaticMembers:   pairs(e.StaticMembers),
		InstanceMembers: pairs(e.InstanceMembers),
	}
}

// ToExtract converts a stored entity back to its extracted form.
func (e *Entity) ToExtract() *extract.Entity {
	out := &extract.Entity{
		Kind:       extract.Kind(e.Kind),
		Name:       e.Name,
		Binding:    extract.Binding(e.Binding),
		Doc:        e.Doc,
		SuperClass: e.SuperClass,
		Range: extract.Range{
			Start: extract.Position{Line: e.StartLine, Column: e.StartCol},
			End:   extract.Position{Line: e.EndLine, Column: e.EndCol},
		},
	}
	switch out.Kind {
	case extract.KindClass:
		out.StaticMembers = positions(e.StaticMembers)
		out.InstanceMembers = positions(e.InstanceMembers)
	case extract.KindFunction:
		out.Params = e.Params
	}
	return out
}

func pairs(ps []extract.Position) [][2]int {
	out := make([][2]int, len(ps))
	for i, p := range ps {
		out[i] = [2]int{p.Line, p.Column}
	}
	return out
}

func positions(ps [][2]int) []extract.Position {
	out := make([]extract.Position, len(ps))
	for i, p := range ps {
		out[i] = extract.Position{Line: p[0], Column: p[1]}
	}
	return out
}

// --- Transaction-scoped insert helpers ---

func insertEntityTx(ex execer, e *Entity) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO entities (file_id, kind, name, binding, doc, super_class,
			start_line, start_col, end_line, end_col, params, static_members, instance_members)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.FileID, e.Kind, e.Name, e.Binding, e.Doc, e.SuperClass,
		e.StartLine, e.StartCol, e.EndLine, e.EndCol,
		marshalJSONList(e.Params), marshalJSONList(e.StaticMembers), marshalJSONList(e.InstanceMembers),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertExportTx(ex execer, x *Export) (int64, error) {
	res, err := ex.Exec(
		"INSERT INTO exports (file_id, name, line, is_default) VALUES (?, ?, ?, ?)",
		x.FileID, x.Name, x.Line, x.IsDefault,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
