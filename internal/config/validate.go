package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrNoExtensions indicates an empty or malformed extension list.
	ErrNoExtensions = errors.New("invalid source extensions")

	// ErrNoSourceDirs indicates an empty source directory list.
	ErrNoSourceDirs = errors.New("empty source dirs")

	// ErrInvalidPattern indicates an exclude pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid exclude pattern")

	// ErrInvalidWorkers indicates a non-positive worker count.
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("invalid format")
)

// Validate checks that the configuration is usable. All problems are
// reported together.
func Validate(cfg *Config) error {
	var errs []error

	if len(cfg.Sources.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one extension is required", ErrNoExtensions))
	}
	for _, ext := range cfg.Sources.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("%w: %q must start with '.'", ErrNoExtensions, ext))
		}
	}
	if len(cfg.Sources.Dirs) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one directory segment is required", ErrNoSourceDirs))
	}
	for _, pattern := range cfg.Sources.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if cfg.Index.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidWorkers, cfg.Index.Workers))
	}

	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'json' or 'text', got '%s'", ErrInvalidFormat, cfg.Format))
	}

	return errors.Join(errs...)
}
