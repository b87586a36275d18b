package store

import "time"

type File struct {
	ID          int64
	Path        string
	Hash        string
	LastIndexed time.Time
}

// Entity is the stored form of one extracted entity. Member positions are
// [line, column] pairs in output coordinates.
type Entity struct {
	ID              int64
	FileID          int64
	Kind            string
	Name            string
	Binding         string
	Doc             string
	SuperClass      string
	StartLine       int
	StartCol        int
	EndLine         int
	EndCol          int
	Params          []string
	StaticMembers   [][2]int
	InstanceMembers [][2]int
}

type Export struct {
	ID        int64
	FileID    int64
	Name      string // empty for the default export
	Line      int
	IsDefault bool
}
