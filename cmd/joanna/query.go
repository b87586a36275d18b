package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/joanna"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the stored metadata of an indexed file",
	Long:  "Prints the metadata of one indexed file. The path is relative to the indexed directory. All line and column numbers are 0-based.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var exportsCmd = &cobra.Command{
	Use:   "exports <name>",
	Short: "List the files that export a name",
	Long:  `Lists every indexed file exporting <name>. The name "default" lists files with a default export.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExports,
}

var entitiesCmd = &cobra.Command{
	Use:   "entities [name]",
	Short: "List indexed entities by name or kind",
	Long:  "Lists the indexed entities called [name]. With --kind, only entities of that kind (class, function, primitive, comment) are listed; the name is then optional.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEntities,
}

var flagKind string

func init() {
	entitiesCmd.Flags().StringVar(&flagKind, "kind", "", "entity kind: class|function|primitive|comment")
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the indexed files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func runShow(cmd *cobra.Command, args []string) error {
	e, proj, err := openEngine()
	if err != nil {
		return outputError("show", err)
	}
	defer e.Close()

	key := indexKey(proj.root, args[0])
	md, err := e.Query().FileMetadata(key)
	if err != nil {
		return outputError("show", err)
	}
	if md == nil {
		return outputError("show", fmt.Errorf("file not indexed: %s", key))
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command: "show",
		Results: CLIFileMetadata{File: key, Metadata: md},
	})
}

func runExports(cmd *cobra.Command, args []string) error {
	e, _, err := openEngine()
	if err != nil {
		return outputError("exports", err)
	}
	defer e.Close()

	locs, err := e.Query().Exports(args[0])
	if err != nil {
		return outputError("exports", err)
	}
	results := toCLIExports(locs)
	count := len(results)
	return outputResult(cmd.OutOrStdout(), CLIResult{Command: "exports", Results: results, TotalCount: &count})
}

func runEntities(cmd *cobra.Command, args []string) error {
	e, _, err := openEngine()
	if err != nil {
		return outputError("entities", err)
	}
	defer e.Close()

	var locs []joanna.EntityLocation
	switch {
	case len(args) == 1:
		locs, err = e.Query().EntitiesNamed(args[0])
	case flagKind != "":
		locs, err = e.Query().EntitiesOfKind(joanna.Kind(flagKind))
	default:
		err = fmt.Errorf("requires a name or --kind")
	}
	if err != nil {
		return outputError("entities", err)
	}
	results := make([]CLIEntity, 0, len(locs))
	for _, l := range locs {
		if flagKind != "" && string(l.Entity.Kind) != flagKind {
			continue
		}
		results = append(results, toCLIEntity(l.File, l.Entity))
	}
	count := len(results)
	return outputResult(cmd.OutOrStdout(), CLIResult{Command: "entities", Results: results, TotalCount: &count})
}

func runFiles(cmd *cobra.Command, args []string) error {
	e, _, err := openEngine()
	if err != nil {
		return outputError("files", err)
	}
	defer e.Close()

	files, err := e.Query().Files()
	if err != nil {
		return outputError("files", err)
	}
	results := toCLIFiles(files)
	count := len(results)
	return outputResult(cmd.OutOrStdout(), CLIResult{Command: "files", Results: results, TotalCount: &count})
}

// indexKey converts a file argument to the slash-separated key it is stored
// under. Absolute paths are made relative to root.
func indexKey(root, file string) string {
	if filepath.IsAbs(file) {
		if rel, err := filepath.Rel(root, file); err == nil {
			file = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(file))
}
