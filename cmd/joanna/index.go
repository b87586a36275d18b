package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jward/joanna"
	"github.com/jward/joanna/internal/discover"
	"github.com/jward/joanna/internal/watcher"
)

var (
	flagForce    bool
	flagDebounce time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Index a directory into the SQLite database",
	Long:  "Discovers JavaScript sources, extracts their metadata and stores it. Unchanged files are skipped; files no longer found are removed.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Index a directory and re-index files as they change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "re-extract every file even if unchanged")
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a batch of changes is indexed")
}

// openIndex creates the database directory and opens the engine.
func openIndex(proj *project, extra ...joanna.Option) (*joanna.Engine, error) {
	dbPath := proj.dbPath()
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	e, err := joanna.New(dbPath, proj.options(extra...)...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	proj, err := loadProject(targetDir)
	if err != nil {
		return err
	}

	progress := &indexProgress{w: cmd.ErrOrStderr(), quiet: flagVerbose}
	e, err := openIndex(proj, joanna.WithForce(flagForce), joanna.WithProgress(progress.update))
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.IndexDirectory(cmd.Context(), targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %s in %s\n", targetDir, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.ErrOrStderr(), "Database: %s\n", proj.dbPath())
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	proj, err := loadProject(targetDir)
	if err != nil {
		return err
	}
	e, err := openIndex(proj)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed file does not stop the watch; it is retried when it changes.
	if err := e.IndexDirectory(ctx, targetDir); err != nil {
		logger.WithError(err).Warn("initial index incomplete")
	}

	finder, err := discover.New(targetDir, proj.cfg.DiscoverOptions())
	if err != nil {
		return err
	}
	w, err := watcher.New(finder, reindexHandler(e, targetDir),
		watcher.WithDebounce(flagDebounce),
		watcher.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	w.Start(ctx)
	logger.WithField("root", targetDir).Info("watching for changes")

	<-ctx.Done()
	w.Stop()
	return nil
}

// reindexHandler re-indexes each batch of changed files under root.
func reindexHandler(e *joanna.Engine, root string) watcher.Handler {
	return func(ctx context.Context, changed []string) {
		logger.WithFields(logrus.Fields{"files": len(changed)}).Info("re-indexing")
		if err := e.IndexRelative(ctx, root, changed); err != nil {
			logger.WithError(err).Warn("re-index incomplete")
		}
	}
}
