package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the project configuration file looked up in the root.
const FileName = ".joanna.yaml"

// Load loads configuration for the project at rootDir with the following
// priority (highest to lowest):
//  1. Environment variables (JOANNA_*), including those from rootDir/.env
//  2. Config file (explicit path if given, else rootDir/.joanna.yaml)
//  3. Default values
//
// A missing default config file is not an error; a missing explicit one is.
func Load(rootDir, explicitPath string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(rootDir, ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigFile(filepath.Join(rootDir, FileName))
	}

	v.SetEnvPrefix("JOANNA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply on
// Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("sources.extensions", defaults.Sources.Extensions)
	v.SetDefault("sources.dirs", defaults.Sources.Dirs)
	v.SetDefault("sources.ignore", defaults.Sources.Ignore)
	v.SetDefault("sources.exclude", defaults.Sources.Exclude)

	v.SetDefault("extract.constructor_properties", defaults.Extract.ConstructorProperties)

	v.SetDefault("index.database", defaults.Index.Database)
	v.SetDefault("index.workers", defaults.Index.Workers)

	v.SetDefault("filter", defaults.Filter)
	v.SetDefault("format", defaults.Format)
}

// loadDotEnv loads a .env file into the process environment. Variables
// already set are not overridden.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
