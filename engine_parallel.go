package joanna

import (
	"context"
	"fmt"
	"sync"

	"github.com/jward/joanna/internal/parse"
)

// workItem holds everything a parallel extraction worker needs.
type workItem struct {
	path    string
	fileID  int64
	content []byte
}

// indexParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Parse, extract and filter on a worker pool (each with its own parser).
//	Phase C (serial):   Commit metadata to SQLite.
func (e *Engine) indexParallel(ctx context.Context, root string, paths []string) error {
	// ---- Phase A: Serial file preparation ----
	var items []workItem
	var errs []error
	for _, path := range paths {
		item, skip, err := e.prepareFile(root, path)
		if err != nil {
			e.log.WithError(err).WithField("file", path).Warn("prepare failed")
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	total := len(items)
	if total == 0 {
		return joinIndexErrors(errs)
	}

	// ---- Phase B: Parallel extraction ----
	numWorkers := min(e.opts.workers, total)

	workCh := make(chan workItem, total)
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item workItem
		md   *FileMetadata
		err  error
	}
	resultCh := make(chan result, total)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// tree-sitter parsers are not goroutine-safe.
			p := parse.NewParser()
			defer p.Close()
			for item := range workCh {
				md, err := e.extractFile(ctx, p, item)
				resultCh <- result{item: item, md: md, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	done := 0
	for res := range resultCh {
		done++
		if res.err != nil {
			e.discard(res.item)
			e.log.WithError(res.err).WithField("file", res.item.path).Warn("extract failed")
			errs = append(errs, fmt.Errorf("extract %s: %w", res.item.path, res.err))
		} else if err := e.commit(res.item, res.md); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
		}
		e.reportProgress(done, total)
	}

	return joinIndexErrors(errs)
}

func joinIndexErrors(errs []error) error {
	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}
