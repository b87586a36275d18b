package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/joanna"
)

var (
	flagOutput             string
	flagPackage            string
	flagFilter             string
	flagNoConstructorProps bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [path...]",
	Short: "Write documentation metadata as JSON",
	Long: `Extracts metadata from JavaScript files and directories and writes
{"files": {"<path>": {"objects": ..., "exports": ...}}}. A single directory
argument is searched for sources and keyed by relative path; files are keyed
by the path given. Lines are 0-based.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write output to this file instead of stdout")
	generateCmd.Flags().StringVar(&flagPackage, "package", "", "package.json to read repository and version from")
	generateCmd.Flags().StringVar(&flagFilter, "filter", "", "Risor filter script (overrides the config)")
	generateCmd.Flags().BoolVar(&flagNoConstructorProps, "no-constructor-properties", false, "do not document this.x assignments in constructors")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	start, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(start)
	if err != nil {
		return fmt.Errorf("path not found: %s", start)
	}
	if !info.IsDir() {
		start = filepath.Dir(start)
	}
	proj, err := loadProject(start)
	if err != nil {
		return err
	}

	var extra []joanna.Option
	if flagFilter != "" {
		extra = append(extra, joanna.WithFilterFile(flagFilter))
	}
	if flagNoConstructorProps {
		extra = append(extra, joanna.WithConstructorProperties(false))
	}
	opts := proj.options(extra...)

	var res *joanna.Result
	if len(args) == 1 && info.IsDir() {
		res, err = joanna.GenerateDirectory(cmd.Context(), args[0], opts...)
	} else {
		var paths []string
		paths, err = expandPaths(args, opts)
		if err == nil {
			res, err = joanna.GenerateFiles(cmd.Context(), paths, opts...)
		}
	}
	if err != nil {
		return err
	}

	if flagPackage != "" {
		pkg, err := joanna.LoadPackageInfo(flagPackage)
		if err != nil {
			return err
		}
		res.SetPackage(pkg)
	}

	return writeResult(cmd.OutOrStdout(), res)
}

// expandPaths replaces directory arguments with the sources found in them.
func expandPaths(args []string, opts []joanna.Option) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := joanna.FindSources(arg, opts...)
		if err != nil {
			return nil, err
		}
		for _, rel := range found {
			paths = append(paths, filepath.Join(arg, filepath.FromSlash(rel)))
		}
	}
	return paths, nil
}

// writeResult encodes res to --output, or to w when no output file is set.
func writeResult(w io.Writer, res *joanna.Result) error {
	if flagOutput == "" {
		return encodeResult(w, res)
	}
	f, err := os.Create(flagOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", flagOutput, err)
	}
	if err := encodeResult(f, res); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", flagOutput, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", flagOutput, err)
	}
	return nil
}

func encodeResult(w io.Writer, res *joanna.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
