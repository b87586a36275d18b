package joanna

import (
	"runtime"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/jward/joanna/internal/discover"
	"github.com/jward/joanna/internal/extract"
	"github.com/jward/joanna/internal/script"
	"github.com/jward/joanna/internal/store"
)

// Option configures generation and indexing.
type Option func(*options)

type options struct {
	logger                *logrus.Logger
	workers               int
	parallel              bool
	force                 bool
	constructorProperties bool
	sources               discover.Options
	filterPath            string
	filterSource          string
	progress              func(done, total int)
}

func buildOptions(opts []Option) options {
	o := options{
		logger:                logrus.StandardLogger(),
		workers:               runtime.NumCPU(),
		parallel:              true,
		constructorProperties: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// WithLogger sets the logger. Filter scripts log through it too.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers bounds the number of files processed concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithParallel controls parallel extraction during indexing. When true
// (default), IndexFiles uses a worker pool for parsing and extraction with a
// single goroutine committing to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(o *options) {
		o.parallel = parallel
	}
}

// WithForce makes indexing re-extract files whose content is unchanged.
func WithForce(force bool) Option {
	return func(o *options) {
		o.force = force
	}
}

// WithConstructorProperties controls whether `this.x = ...` assignments in
// constructor bodies produce instance members. On by default.
func WithConstructorProperties(on bool) Option {
	return func(o *options) {
		o.constructorProperties = on
	}
}

// WithSourceOptions configures source discovery for directory operations.
func WithSourceOptions(s SourceOptions) Option {
	return func(o *options) {
		o.sources = s
	}
}

// WithFilterFile applies the Risor filter script at path to every file's
// entities. Imports in the script resolve against its directory.
func WithFilterFile(path string) Option {
	return func(o *options) {
		o.filterPath = path
		o.filterSource = ""
	}
}

// WithFilterSource applies an inline Risor filter script.
func WithFilterSource(source string) Option {
	return func(o *options) {
		o.filterSource = source
		o.filterPath = ""
	}
}

// WithProgress registers a callback invoked after each file is indexed.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

func (o *options) extractOptions() []extract.Option {
	return []extract.Option{extract.WithConstructorProperties(o.constructorProperties)}
}

// loadFilter returns the configured filter, or nil when none is set.
func (o *options) loadFilter() (*script.Filter, error) {
	switch {
	case o.filterPath != "":
		return script.Load(o.filterPath, script.WithLogger(o.logger))
	case o.filterSource != "":
		return script.New(o.filterSource, "inline", script.WithLogger(o.logger)), nil
	}
	return nil, nil
}

// settings lists the options that shape extraction output.
func (o *options) settings(filter *script.Filter) map[string]string {
	s := map[string]string{
		"constructor_properties": strconv.FormatBool(o.constructorProperties),
		"filter":                 "",
	}
	if filter != nil {
		s["filter"] = store.ContentHash([]byte(filter.Source()))
	}
	return s
}
