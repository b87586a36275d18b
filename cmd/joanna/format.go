package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// outputResult writes result to w in the selected format.
func outputResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(rootCmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIFileMetadata:
		formatFileMetadataText(w, v)
	case []CLIEntity:
		formatEntitiesText(w, v)
	case []CLIExport:
		formatExportsText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatFileMetadataText prints the entities of a file in position order,
// followed by its exports.
func formatFileMetadataText(w io.Writer, fm CLIFileMetadata) {
	entities := fm.Metadata.Entities()
	rows := make([]CLIEntity, len(entities))
	for i, e := range entities {
		rows[i] = toCLIEntity("", e)
	}
	fmt.Fprintf(w, "%s\n\n", fm.File)
	formatEntitiesText(w, rows)

	x := fm.Metadata.Exports
	fmt.Fprintln(w)
	switch {
	case x.HasDefault:
		fmt.Fprintf(w, "Exports: default (line %d)\n", x.Default)
	case len(x.Named) > 0:
		fmt.Fprintln(w, "Exports:")
		names := make([]string, 0, len(x.Named))
		for name := range x.Named {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s (line %d)\n", name, x.Named[name])
		}
	default:
		fmt.Fprintln(w, "Exports: none")
	}
}

// formatEntitiesText formats CLIEntity rows as aligned columns. The FILE
// column is omitted when no row carries a file.
func formatEntitiesText(w io.Writer, rows []CLIEntity) {
	withFile := false
	for _, r := range rows {
		if r.File != "" {
			withFile = true
			break
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"LINE", "COL", "TYPE", "NAME", "BINDING", "DOC"}
	if withFile {
		header = append([]string{"FILE"}, header...)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		cols := []string{
			fmt.Sprint(r.Line), fmt.Sprint(r.Col), r.Type,
			orDash(r.Name), orDash(r.Binding), firstLine(r.Doc),
		}
		if withFile {
			cols = append([]string{r.File}, cols...)
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	tw.Flush()
}

// formatExportsText formats CLIExport results as "file:line name" lines.
func formatExportsText(w io.Writer, exports []CLIExport) {
	for _, x := range exports {
		name := x.Name
		if x.Default {
			name = "default"
		}
		fmt.Fprintf(w, "%s:%d %s\n", x.File, x.Line, name)
	}
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tHASH")
	for _, f := range files {
		hash := f.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", f.ID, f.Path, hash)
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
