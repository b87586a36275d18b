// Package config loads joanna's project configuration.
//
// Values come from defaults, then `.joanna.yaml` in the project root, then
// JOANNA_* environment variables (a `.env` file in the root is loaded into
// the environment first).
package config

import (
	"runtime"

	"github.com/jward/joanna/internal/discover"
	"github.com/jward/joanna/internal/parse"
)

// Config represents the complete joanna configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Index   IndexConfig   `yaml:"index" mapstructure:"index"`
	Filter  string        `yaml:"filter" mapstructure:"filter"` // Risor filter script, relative to the root
	Format  string        `yaml:"format" mapstructure:"format"` // "json" or "text"
}

// SourcesConfig controls source discovery.
type SourcesConfig struct {
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
	Dirs       []string `yaml:"dirs" mapstructure:"dirs"`       // path segments that mark source trees
	Ignore     []string `yaml:"ignore" mapstructure:"ignore"`   // path segments never descended into
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"` // glob patterns on relative paths
}

// ExtractConfig controls the extractor.
type ExtractConfig struct {
	ConstructorProperties bool `yaml:"constructor_properties" mapstructure:"constructor_properties"`
}

// IndexConfig controls the SQLite index.
type IndexConfig struct {
	Database string `yaml:"database" mapstructure:"database"` // relative to the root unless absolute
	Workers  int    `yaml:"workers" mapstructure:"workers"`
}

// Default returns a configuration with the built-in defaults.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Extensions: parse.Extensions(),
			Dirs:       append([]string(nil), discover.DefaultSourceDirs...),
			Ignore:     append([]string(nil), discover.DefaultIgnoreDirs...),
			Exclude:    []string{},
		},
		Extract: ExtractConfig{
			ConstructorProperties: true,
		},
		Index: IndexConfig{
			Database: ".joanna/index.db",
			Workers:  runtime.NumCPU(),
		},
		Format: "json",
	}
}

// DiscoverOptions converts the sources section to discovery options.
func (c *Config) DiscoverOptions() discover.Options {
	return discover.Options{
		Extensions: c.Sources.Extensions,
		SourceDirs: c.Sources.Dirs,
		IgnoreDirs: c.Sources.Ignore,
		Exclude:    c.Sources.Exclude,
	}
}
