// Package config loads configuration for the dotted command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/jrhy/dotted/internal/logging"
)

const (
	// EnvPrefix starts every environment variable the loader reads.
	EnvPrefix = "DOTTED_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

var defaults = []byte(`
store:
  dir: .
  artifact: dotted.json
  name: ""
  format: ""
  delimiter: "."
  autosave: true
  bucket: ""
  prefix: ""
  endpoint: ""
  region: ""
log:
  level: warn
  format: console
`)

// Config is the dotted command configuration.
type Config struct {
	Store StoreConfig    `koanf:"store"`
	Log   logging.Config `koanf:"log"`
}

// StoreConfig says where the snapshot lives and how the store is opened.
// The snapshot is a file in Dir unless Bucket is set, in which case it is
// an S3 object under Prefix.
type StoreConfig struct {
	Dir       string `koanf:"dir"`
	Artifact  string `koanf:"artifact"`
	Name      string `koanf:"name"`
	Format    string `koanf:"format"`
	Delimiter string `koanf:"delimiter"`
	Autosave  bool   `koanf:"autosave"`

	Bucket   string `koanf:"bucket"`
	Prefix   string `koanf:"prefix"`
	Endpoint string `koanf:"endpoint"`
	Region   string `koanf:"region"`
}

// Load reads configuration from defaults, then the YAML file at path if it
// exists, then environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DOTTED_STORE_DIR, DOTTED_LOG_LEVEL, etc.)
//  2. YAML config file
//  3. Hardcoded defaults
//
// Environment variables map to keys by dropping the prefix, lowercasing, and
// splitting on the first underscore:
//
//	DOTTED_STORE_DIR -> store.dir
//	DOTTED_LOG_FORMAT -> log.format
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		content, err := readConfigFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s too large: %d bytes (max %d)", path, info.Size(), maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Store.Artifact == "" {
		return errors.New("store.artifact must not be empty")
	}
	if c.Store.Delimiter == "" {
		return errors.New("store.delimiter must not be empty")
	}
	switch c.Store.Format {
	case "", "json", "yaml", "proto":
	default:
		return fmt.Errorf("store.format must be json, yaml or proto, got %q", c.Store.Format)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
