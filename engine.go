package joanna

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jward/joanna/internal/parse"
	"github.com/jward/joanna/internal/script"
	"github.com/jward/joanna/internal/store"
)

const optionsHashKey = "options_hash"

// Engine maintains an incremental SQLite index of extracted metadata:
// discovery, change detection, extraction, and query access.
type Engine struct {
	store  *store.Store
	opts   options
	filter *script.Filter
	log    *logrus.Logger
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	o := buildOptions(opts)
	filter, err := o.loadFilter()
	if err != nil {
		return nil, err
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("joanna: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("joanna: migrate: %w", err)
	}

	return &Engine{store: s, opts: o, filter: filter, log: o.logger}, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

func (e *Engine) optionsHash() string {
	return store.ComputeOptionsHash(e.opts.settings(e.filter))
}

// OptionsChanged reports whether the extraction options differ from those
// used to build the current index. True on a fresh database.
func (e *Engine) OptionsChanged() bool {
	stored, err := e.store.GetSetting(optionsHashKey)
	if err != nil || stored == "" {
		return true
	}
	return stored != e.optionsHash()
}

// resetIfOptionsChanged drops every indexed file when the stored output
// would differ under the current options.
func (e *Engine) resetIfOptionsChanged() error {
	if !e.OptionsChanged() {
		return nil
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	if len(files) > 0 {
		e.log.WithField("files", len(files)).Info("extraction options changed; rebuilding index")
		ids := make([]int64, len(files))
		for i, f := range files {
			ids[i] = f.ID
		}
		if err := e.store.DeleteFiles(ids); err != nil {
			return fmt.Errorf("reset index: %w", err)
		}
	}
	return e.store.SetSetting(optionsHashKey, e.optionsHash())
}

// IndexFiles indexes the given file paths, which are also their keys in the
// index. When WithParallel is enabled, uses a worker pool for concurrent
// extraction with serial SQLite writes.
//
// For each file:
//  1. Skip unsupported extensions
//  2. Skip unchanged files (same content hash) unless WithForce is set
//  3. Delete stale data, insert the file record
//  4. Parse, extract and filter
//  5. Commit entities and exports
//
// Files that no longer exist are removed from the index. Errors on
// individual files are logged and skipped; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	return e.IndexRelative(ctx, "", paths)
}

// IndexRelative indexes paths relative to root, keyed by their
// slash-separated relative form. An empty root means paths are used as-is.
func (e *Engine) IndexRelative(ctx context.Context, root string, paths []string) error {
	if err := e.resetIfOptionsChanged(); err != nil {
		return fmt.Errorf("joanna: %w", err)
	}
	if e.opts.parallel {
		return e.indexParallel(ctx, root, paths)
	}
	return e.indexSerial(ctx, root, paths)
}

// IndexDirectory discovers the source files under root, indexes them, and
// removes files from the index that are no longer discovered.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	rels, err := findSources(root, e.opts)
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"root": root, "files": len(rels)}).Debug("discovered sources")

	if err := e.IndexRelative(ctx, root, rels); err != nil {
		return err
	}
	return e.prune(rels)
}

// prune deletes indexed files not present in keep.
func (e *Engine) prune(keep []string) error {
	live := make(map[string]bool, len(keep))
	for _, p := range keep {
		live[p] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("joanna: prune: %w", err)
	}
	var stale []int64
	for _, f := range files {
		if !live[f.Path] {
			stale = append(stale, f.ID)
			e.log.WithField("file", f.Path).Debug("removing deleted file")
		}
	}
	if err := e.store.DeleteFiles(stale); err != nil {
		return fmt.Errorf("joanna: prune: %w", err)
	}
	return nil
}

func (e *Engine) indexSerial(ctx context.Context, root string, paths []string) error {
	p := parse.NewParser()
	defer p.Close()

	var errs []error
	for i, path := range paths {
		if err := e.indexFile(ctx, p, root, path); err != nil {
			e.log.WithError(err).WithField("file", path).Warn("index failed")
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
		e.reportProgress(i+1, len(paths))
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, p *parse.Parser, root, path string) error {
	item, skip, err := e.prepareFile(root, path)
	if err != nil || skip {
		return err
	}
	md, err := e.extractFile(ctx, p, item)
	if err != nil {
		e.discard(item)
		return err
	}
	return e.commit(item, md)
}

// prepareFile does the serial preparation for a single file: hash check,
// cleanup, file record. skip=true means the file is unchanged, unsupported,
// or gone.
func (e *Engine) prepareFile(root, path string) (workItem, bool, error) {
	key := filepath.ToSlash(path)
	if _, ok := parse.LanguageForFile(key); !ok {
		return workItem{}, true, nil
	}

	full := path
	if root != "" {
		full = filepath.Join(root, filepath.FromSlash(path))
	}
	content, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return workItem{}, true, e.forget(key)
	}
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := e.store.FileByPath(key)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && !e.opts.force {
		return workItem{}, true, nil // unchanged
	}

	// A changed file keeps its row; only its entities and exports go.
	if existing != nil {
		if err := e.store.DeleteFileData(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
		existing.Hash = hash
		existing.LastIndexed = time.Now()
		if err := e.store.UpdateFile(existing); err != nil {
			return workItem{}, false, err
		}
		return workItem{path: key, fileID: existing.ID, content: content}, false, nil
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        key,
		Hash:        hash,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}
	return workItem{path: key, fileID: fileID, content: content}, false, nil
}

// forget removes a file that no longer exists on disk.
func (e *Engine) forget(key string) error {
	existing, err := e.store.FileByPath(key)
	if err != nil || existing == nil {
		return err
	}
	e.log.WithField("file", key).Debug("removing deleted file")
	return e.store.DeleteFiles([]int64{existing.ID})
}

// discard drops the file record of a failed extraction so the next run
// retries it instead of treating it as unchanged.
func (e *Engine) discard(item workItem) {
	if err := e.store.DeleteFiles([]int64{item.fileID}); err != nil {
		e.log.WithError(err).WithField("file", item.path).Warn("failed to discard file record")
	}
}

func (e *Engine) extractFile(ctx context.Context, p *parse.Parser, item workItem) (*FileMetadata, error) {
	return generate(ctx, p, e.filter, item.path, item.content, e.opts.extractOptions())
}

func (e *Engine) commit(item workItem, md *FileMetadata) error {
	if err := e.store.SaveMetadata(item.fileID, md); err != nil {
		e.discard(item)
		return fmt.Errorf("commit: %w", err)
	}
	e.log.WithFields(logrus.Fields{"file": item.path, "entities": md.Len()}).Debug("indexed")
	return nil
}

func (e *Engine) reportProgress(done, total int) {
	if e.opts.progress != nil {
		e.opts.progress(done, total)
	}
}
