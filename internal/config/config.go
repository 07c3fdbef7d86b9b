// Package config loads the ibycus configuration file.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/ibycus/core/errors"
)

// EnvCorpus names the environment variable that overrides the corpus path.
const EnvCorpus = "IBYCUS_CORPUS"

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "ibycus.yaml"

// Config is the on-disk configuration.
type Config struct {
	// Corpus is a volume directory or a compressed tar of one.
	Corpus string       `yaml:"corpus"`
	Log    LogConfig    `yaml:"log"`
	Cache  CacheConfig  `yaml:"cache"`
	Export ExportConfig `yaml:"export"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheConfig bounds the number of decoded works kept per index.
type CacheConfig struct {
	Works int `yaml:"works"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	SQLite string `yaml:"sqlite"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Corpus: ".",
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Cache: CacheConfig{
			Works: 16,
		},
		Export: ExportConfig{
			SQLite: "ibycus.db",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
// The IBYCUS_CORPUS variable, when set, replaces the corpus path.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &errors.ParseError{Format: "config", Path: path, Offset: -1, Message: err.Error(), Err: err}
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.NewIO("read", path, err)
	}

	if env := os.Getenv(EnvCorpus); env != "" {
		cfg.Corpus = env
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Corpus == "" {
		return errors.NewValidation("corpus", "must not be empty")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &errors.ValidationError{Field: "log.level", Value: c.Log.Level, Message: "must be debug, info, warn or error"}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return &errors.ValidationError{Field: "log.format", Value: c.Log.Format, Message: "must be text or json"}
	}
	if c.Cache.Works < 1 {
		return &errors.ValidationError{Field: "cache.works", Message: "must be at least 1"}
	}
	return nil
}
