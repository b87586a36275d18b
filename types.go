package joanna

import (
	"github.com/jward/joanna/internal/discover"
	"github.com/jward/joanna/internal/extract"
	"github.com/jward/joanna/internal/store"
)

// Public type aliases for internal types used in the library API. These
// are Go type aliases (=), so no conversion is needed.

type FileMetadata = extract.FileMetadata
type Entity = extract.Entity
type Exports = extract.Exports
type Position = extract.Position
type Range = extract.Range
type Kind = extract.Kind
type Binding = extract.Binding

type SourceOptions = discover.Options

type Store = store.Store
type File = store.File

// Entity kinds.
const (
	KindClass     = extract.KindClass
	KindFunction  = extract.KindFunction
	KindPrimitive = extract.KindPrimitive
	KindComment   = extract.KindComment
)

// Binding types.
const (
	BindingUndefined    = extract.BindingUndefined
	BindingModuleExport = extract.BindingModuleExport
	BindingNamedExport  = extract.BindingNamedExport
	BindingStaticMember = extract.BindingStaticMember
	BindingInstance     = extract.BindingInstance
	BindingLocal        = extract.BindingLocal
)
