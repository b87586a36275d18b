package main

import (
	"strings"
	"time"

	"github.com/jward/joanna"
)

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIEntity is a JSON-friendly entity row. Lines and columns are 0-based.
type CLIEntity struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Binding string `json:"binding,omitempty"`
	Doc     string `json:"doc,omitempty"`
}

// CLIFileMetadata is the stored metadata of one file.
type CLIFileMetadata struct {
	File     string               `json:"file"`
	Metadata *joanna.FileMetadata `json:"metadata"`
}

// CLIExport is a JSON-friendly export location.
type CLIExport struct {
	File    string `json:"file"`
	Name    string `json:"name,omitempty"`
	Line    int    `json:"line"`
	Default bool   `json:"default"`
}

// CLIFile is a JSON-friendly indexed file.
type CLIFile struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Hash        string    `json:"hash"`
	LastIndexed time.Time `json:"last_indexed"`
}

func toCLIEntity(file string, e *joanna.Entity) CLIEntity {
	return CLIEntity{
		File:    file,
		Line:    e.Range.Start.Line,
		Col:     e.Range.Start.Column,
		Type:    string(e.Kind),
		Name:    e.Name,
		Binding: string(e.Binding),
		Doc:     e.Doc,
	}
}

func toCLIExports(locs []joanna.ExportLocation) []CLIExport {
	out := make([]CLIExport, len(locs))
	for i, l := range locs {
		out[i] = CLIExport{File: l.File, Name: l.Name, Line: l.Line, Default: l.Default}
	}
	return out
}

func toCLIFiles(files []*joanna.File) []CLIFile {
	out := make([]CLIFile, len(files))
	for i, f := range files {
		out[i] = CLIFile{ID: f.ID, Path: f.Path, Hash: f.Hash, LastIndexed: f.LastIndexed}
	}
	return out
}

// firstLine returns the first line of a doc comment for table output.
func firstLine(doc string) string {
	line, _, _ := strings.Cut(doc, "\n")
	return line
}
