package extract

import (
	"encoding/json"
	"sort"

	"github.com/jward/joanna/internal/syntax"
)

// Kind is the category of an extracted entity.
type Kind string

const (
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindPrimitive Kind = "primitive"
	KindComment   Kind = "comment"
)

// Binding describes how an entity is reachable from outside its file. The
// string values are the names documentation consumers expect.
type Binding string

const (
	BindingUndefined    Binding = ""
	BindingModuleExport Binding = "exports"
	BindingNamedExport  Binding = "exportsProperty"
	BindingStaticMember Binding = "classProperty"
	BindingInstance     Binding = "prototypeProperty"
	BindingLocal        Binding = "variable"
)

// Position is a point in output coordinates: 0-based line, 0-based column.
type Position struct {
	Line   int
	Column int
}

// MarshalJSON encodes p as [line, column].
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Line, p.Column})
}

// UnmarshalJSON decodes [line, column].
func (p *Position) UnmarshalJSON(data []byte) error {
	var v [2]int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Line, p.Column = v[0], v[1]
	return nil
}

// Range is a source span in output coordinates.
type Range struct {
	Start Position
	End   Position
}

// MarshalJSON encodes r as [[line, column], [line, column]].
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]Position{r.Start, r.End})
}

// UnmarshalJSON decodes [[line, column], [line, column]].
func (r *Range) UnmarshalJSON(data []byte) error {
	var v [2]Position
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Start, r.End = v[0], v[1]
	return nil
}

// rangeOf converts a parser span (1-based lines) to output coordinates.
func rangeOf(s syntax.Span) Range {
	return Range{
		Start: Position{Line: s.Start.Line - 1, Column: s.Start.Column},
		End:   Position{Line: s.End.Line - 1, Column: s.End.Column},
	}
}

// Entity is one documentable unit extracted from a file.
type Entity struct {
	Kind    Kind
	Name    string // empty for anonymous values
	Range   Range
	Binding Binding
	Doc     string

	// Class only.
	SuperClass      string
	StaticMembers   []Position
	InstanceMembers []Position

	// Function only.
	Params []string
}

// MarshalJSON writes the key set for the entity's kind. Empty values are
// written as null rather than omitted.
func (e Entity) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindClass:
		return json.Marshal(struct {
			Type                Kind       `json:"type"`
			Name                *string    `json:"name"`
			SuperClass          *string    `json:"superClass"`
			BindingType         *Binding   `json:"bindingType"`
			ClassProperties     []Position `json:"classProperties"`
			PrototypeProperties []Position `json:"prototypeProperties"`
			Doc                 *string    `json:"doc"`
			Range               Range      `json:"range"`
		}{e.Kind, nullable(e.Name), nullable(e.SuperClass), nullableBinding(e.Binding),
			nonNil(e.StaticMembers), nonNil(e.InstanceMembers), nullable(e.Doc), e.Range})
	case KindFunction:
		return json.Marshal(struct {
			Type        Kind     `json:"type"`
			Name        *string  `json:"name"`
			BindingType *Binding `json:"bindingType"`
			ParamNames  []string `json:"paramNames"`
			Doc         *string  `json:"doc"`
			Range       Range    `json:"range"`
		}{e.Kind, nullable(e.Name), nullableBinding(e.Binding), nonNil(e.Params), nullable(e.Doc), e.Range})
	case KindComment:
		return json.Marshal(struct {
			Type  Kind    `json:"type"`
			Doc   *string `json:"doc"`
			Range Range   `json:"range"`
		}{e.Kind, nullable(e.Doc), e.Range})
	default:
		return json.Marshal(struct {
			Type        Kind     `json:"type"`
			Name        *string  `json:"name"`
			BindingType *Binding `json:"bindingType"`
			Doc         *string  `json:"doc"`
			Range       Range    `json:"range"`
		}{e.Kind, nullable(e.Name), nullableBinding(e.Binding), nullable(e.Doc), e.Range})
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableBinding(b Binding) *Binding {
	if b == BindingUndefined {
		return nil
	}
	return &b
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Exports is a file's export table. When the file designates a default export
// the table serializes as that entity's line; otherwise as name → line.
type Exports struct {
	HasDefault bool
	Default    int
	Named      map[string]int
}

// MarshalJSON encodes the default line or the named map.
func (x Exports) MarshalJSON() ([]byte, error) {
	if x.HasDefault {
		return json.Marshal(x.Default)
	}
	if x.Named == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(x.Named)
}

// UnmarshalJSON accepts either form.
func (x *Exports) UnmarshalJSON(data []byte) error {
	var line int
	if err := json.Unmarshal(data, &line); err == nil {
		*x = Exports{HasDefault: true, Default: line}
		return nil
	}
	var named map[string]int
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	*x = Exports{Named: named}
	return nil
}

// FileMetadata is everything extracted from one file.
type FileMetadata struct {
	Objects map[int]map[int]*Entity `json:"objects"`
	Exports Exports                 `json:"exports"`
}

// NewFileMetadata returns empty metadata.
func NewFileMetadata() *FileMetadata {
	return &FileMetadata{Objects: make(map[int]map[int]*Entity)}
}

// Put stores e at its start position, replacing any occupant.
func (m *FileMetadata) Put(e *Entity) {
	start := e.Range.Start
	row := m.Objects[start.Line]
	if row == nil {
		row = make(map[int]*Entity)
		m.Objects[start.Line] = row
	}
	row[start.Column] = e
}

// At returns the entity starting at pos, or nil.
func (m *FileMetadata) At(pos Position) *Entity {
	return m.Objects[pos.Line][pos.Column]
}

// Remove deletes the entity starting at pos.
func (m *FileMetadata) Remove(pos Position) {
	row := m.Objects[pos.Line]
	if row == nil {
		return
	}
	delete(row, pos.Column)
	if len(row) == 0 {
		delete(m.Objects, pos.Line)
	}
}

// Entities returns all entities ordered by start position.
func (m *FileMetadata) Entities() []*Entity {
	var out []*Entity
	for _, row := range m.Objects {
		for _, e := range row {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Range.Start, out[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}

// Len returns the number of entities.
func (m *FileMetadata) Len() int {
	n := 0
	for _, row := range m.Objects {
		n += len(row)
	}
	return n
}
