package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jward/joanna"
	"github.com/jward/joanna/internal/config"
)

var (
	flagConfig  string
	flagDB      string
	flagFormat  string
	flagVerbose bool
)

// logger is configured by the root command before any subcommand runs.
var logger = logrus.New()

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "joanna",
	Short:         "Documentation metadata for JavaScript sources",
	Long:          "Joanna parses JavaScript with tree-sitter and reports the documentable entities of each file (classes, functions, values and comments) with their doc comments, bindings and exports.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetOutput(cmd.ErrOrStderr())
		if flagVerbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
		if flagFormat == "" {
			return nil
		}
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .joanna.yaml in the repo root)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: index.database from the config)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: json|text (default: format from the config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(filesCmd)
}

// project is the repository a command operates on.
type project struct {
	root string
	cfg  *config.Config
}

// loadProject finds the repo root above dir and loads its configuration.
// The config's format applies unless --format was given.
func loadProject(dir string) (*project, error) {
	root := findRepoRoot(dir)
	cfg, err := config.Load(root, flagConfig)
	if err != nil {
		return nil, err
	}
	if flagFormat == "" {
		flagFormat = cfg.Format
	}
	return &project{root: root, cfg: cfg}, nil
}

// resolve returns path joined to the repo root unless it is absolute.
func (p *project) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.root, path)
}

// dbPath returns the database path from the --db flag or the config.
func (p *project) dbPath() string {
	if flagDB != "" {
		return p.resolve(flagDB)
	}
	return p.resolve(p.cfg.Index.Database)
}

// options builds the library options from the config. extra options are
// applied last so command flags win.
func (p *project) options(extra ...joanna.Option) []joanna.Option {
	opts := []joanna.Option{
		joanna.WithLogger(logger),
		joanna.WithWorkers(p.cfg.Index.Workers),
		joanna.WithConstructorProperties(p.cfg.Extract.ConstructorProperties),
		joanna.WithSourceOptions(p.cfg.DiscoverOptions()),
	}
	if p.cfg.Filter != "" {
		opts = append(opts, joanna.WithFilterFile(p.resolve(p.cfg.Filter)))
	}
	return append(opts, extra...)
}

// resolveTargetDir returns the absolute path of the directory to work on.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// openEngine opens the index for the project at the current directory.
func openEngine() (*joanna.Engine, *project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting cwd: %w", err)
	}
	proj, err := loadProject(cwd)
	if err != nil {
		return nil, nil, err
	}
	dbPath := proj.dbPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'joanna index' first)", dbPath)
	}
	e, err := joanna.New(dbPath, proj.options()...)
	if err != nil {
		return nil, nil, err
	}
	return e, proj, nil
}
