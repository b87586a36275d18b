package joanna

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jward/joanna/internal/discover"
	"github.com/jward/joanna/internal/extract"
	"github.com/jward/joanna/internal/parse"
	"github.com/jward/joanna/internal/script"
)

// ErrUnsupportedFile is returned for files whose extension the parser does
// not handle.
var ErrUnsupportedFile = errors.New("joanna: unsupported file")

// Result is the metadata of a batch of files, keyed by path.
type Result struct {
	Repository string                   `json:"repository,omitempty"`
	Version    string                   `json:"version,omitempty"`
	Files      map[string]*FileMetadata `json:"files"`
}

// Generate extracts the metadata of one source file. filename selects the
// grammar and labels errors; src is its content.
func Generate(ctx context.Context, filename string, src []byte, opts ...Option) (*FileMetadata, error) {
	o := buildOptions(opts)
	filter, err := o.loadFilter()
	if err != nil {
		return nil, err
	}
	p := parse.NewParser()
	defer p.Close()
	return generate(ctx, p, filter, filename, src, o.extractOptions())
}

func generate(ctx context.Context, p *parse.Parser, filter *script.Filter, filename string, src []byte, xopts []extract.Option) (*FileMetadata, error) {
	if _, ok := parse.LanguageForFile(filename); !ok {
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedFile)
	}
	root, err := p.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	md := extract.Extract(root, xopts...)
	if filter != nil {
		if err := filter.Apply(ctx, filename, md); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return md, nil
}

// GenerateFiles extracts every file in paths concurrently. Results are
// keyed by the paths as given. The first failure cancels the batch.
func GenerateFiles(ctx context.Context, paths []string, opts ...Option) (*Result, error) {
	return generateAll(ctx, "", paths, buildOptions(opts))
}

// GenerateDirectory discovers the source files under root and extracts
// them. Results are keyed by slash-separated paths relative to root.
func GenerateDirectory(ctx context.Context, root string, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	rels, err := findSources(root, o)
	if err != nil {
		return nil, err
	}
	return generateAll(ctx, root, rels, o)
}

// FindSources returns the source files under root as sorted,
// slash-separated relative paths.
func FindSources(root string, opts ...Option) ([]string, error) {
	return findSources(root, buildOptions(opts))
}

func findSources(root string, o options) ([]string, error) {
	f, err := discover.New(root, o.sources)
	if err != nil {
		return nil, fmt.Errorf("joanna: %w", err)
	}
	return f.Find()
}

func generateAll(ctx context.Context, root string, paths []string, o options) (*Result, error) {
	filter, err := o.loadFilter()
	if err != nil {
		return nil, err
	}
	xopts := o.extractOptions()

	res := &Result{Files: make(map[string]*FileMetadata, len(paths))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, path := range paths {
		g.Go(func() error {
			full := path
			if root != "" {
				full = filepath.Join(root, filepath.FromSlash(path))
			}
			src, err := os.ReadFile(full)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			p := parse.NewParser()
			defer p.Close()
			md, err := generate(gctx, p, filter, path, src, xopts)
			if err != nil {
				return err
			}

			o.logger.WithField("file", path).WithField("entities", md.Len()).Debug("extracted")
			mu.Lock()
			res.Files[filepath.ToSlash(path)] = md
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
