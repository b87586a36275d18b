// Package watcher reports changed source files under a project root,
// debounced into batches.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/jward/joanna/internal/discover"
)

// DefaultDebounce is the quiet period after the last event before a batch
// is delivered.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives a batch of changed source files as sorted,
// slash-separated paths relative to the root. Removed files are included.
type Handler func(ctx context.Context, changed []string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *logrus.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// Watcher watches the source directories of a project.
type Watcher struct {
	finder   *discover.Finder
	handler  Handler
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *logrus.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher over finder's root. Every directory not skipped by
// finder is watched, including ones created later.
func New(finder *discover.Finder, handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		finder:   finder,
		handler:  handler,
		watcher:  fsw,
		debounce: DefaultDebounce,
		log:      logrus.StandardLogger(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addDirectories(finder.Root(), nil); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop stops the watcher and waits for the loop to exit. It must only be
// called after Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.watcher.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	changed := make(map[string]bool)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	arm := func() {
		stopTimer()
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-w.stopCh:
			stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					// Files moved or copied in with the directory raise no
					// events of their own.
					found := false
					err := w.addDirectories(event.Name, func(rel string) {
						changed[rel] = true
						found = true
					})
					if err != nil {
						w.log.WithError(err).WithField("dir", event.Name).Warn("failed to watch new directory")
					}
					if found {
						arm()
					}
					continue
				}
			}
			rel, ok := w.relevant(event)
			if !ok {
				continue
			}
			changed[rel] = true
			arm()

		case <-fire:
			if len(changed) == 0 {
				continue
			}
			batch := make([]string, 0, len(changed))
			for rel := range changed {
				batch = append(batch, rel)
			}
			sort.Strings(batch)
			changed = make(map[string]bool)
			w.handler(ctx, batch)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("file watcher error")
		}
	}
}

// relevant returns the relative path of an event on a source file.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	rel, err := filepath.Rel(w.finder.Root(), event.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if !w.finder.Match(rel) {
		return "", false
	}
	return rel, true
}

// addDirectories watches root and the directories below it. When found is
// set it receives every source file already present.
func (w *Watcher) addDirectories(root string, found func(rel string)) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.log.WithError(err).WithField("path", path).Warn("error accessing path")
			return nil
		}
		if !d.IsDir() {
			if found == nil {
				return nil
			}
			if rel, err := filepath.Rel(w.finder.Root(), path); err == nil {
				if rel = filepath.ToSlash(rel); w.finder.Match(rel) {
					found(rel)
				}
			}
			return nil
		}
		if path != w.finder.Root() && w.finder.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.WithError(err).WithField("dir", path).Warn("failed to watch directory")
		}
		return nil
	})
}
