/*
* Configuration loading
* Copyright (C) 2025  Artem Stefankiv
*
* This program is free software: you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation, either version 3 of the License, or
* (at your option) any later version.
*
* This program is distributed in the hope that it will be useful,
* but WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
* GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config file looked up in the working directory when none is given.
const defaultConfigFile = "blockrep.toml"

type Config struct {
	InputDir  string `toml:"input_dir" yaml:"input_dir" json:"input_dir"`
	OutputDir string `toml:"output_dir" yaml:"output_dir" json:"output_dir"`
	JSONDir   string `toml:"json_dir" yaml:"json_dir" json:"json_dir"`

	Log     LogConfig     `toml:"log" yaml:"log" json:"log"`
	Measure MeasureConfig `toml:"measure" yaml:"measure" json:"measure"`
	Catalog CatalogConfig `toml:"catalog" yaml:"catalog" json:"catalog"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level" json:"level"`
	// Format is text or json.
	Format string `toml:"format" yaml:"format" json:"format"`
}

type MeasureConfig struct {
	Seed       uint64 `toml:"seed" yaml:"seed" json:"seed"`
	RandomSeed bool   `toml:"random_seed" yaml:"random_seed" json:"random_seed"`
	// ChunkSize is the number of blocks handed from the reader to the
	// estimator at a time.
	ChunkSize int  `toml:"chunk_size" yaml:"chunk_size" json:"chunk_size"`
	Progress  bool `toml:"progress" yaml:"progress" json:"progress"`
}

type CatalogConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled" json:"enabled"`
	// Path defaults to catalog.db inside the JSON directory.
	Path string `toml:"path" yaml:"path" json:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		InputDir:  filepath.Join(".", "input"),
		OutputDir: filepath.Join(".", "output"),
		JSONDir:   filepath.Join(".", "json"),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Measure: MeasureConfig{
			ChunkSize: 4096,
			Progress:  true,
		},
		Catalog: CatalogConfig{
			Enabled: true,
		},
	}
}

// CatalogPath resolves the location of the run catalog database.
func (c *Config) CatalogPath() string {
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	return filepath.Join(c.JSONDir, "catalog.db")
}

// LoadConfig reads the configuration at path, applies BLOCKREP_*
// environment overrides and validates the result. An empty path falls back
// to blockrep.toml in the working directory, or defaults if that is absent.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case errors.Is(err, os.ErrNotExist):
		return nil, newFileNotFoundError(path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := decodeConfig(path, data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// ApplyEnvOverrides applies BLOCKREP_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("BLOCKREP_INPUT_DIR"); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv("BLOCKREP_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("BLOCKREP_JSON_DIR"); v != "" {
		c.JSONDir = v
	}
	if v := os.Getenv("BLOCKREP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BLOCKREP_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("BLOCKREP_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BLOCKREP_SEED: %w", err)
		}
		c.Measure.Seed = seed
	}
	if v := os.Getenv("BLOCKREP_RANDOM_SEED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BLOCKREP_RANDOM_SEED: %w", err)
		}
		c.Measure.RandomSeed = b
	}
	if v := os.Getenv("BLOCKREP_CATALOG"); v != "" {
		switch strings.ToLower(v) {
		case "off", "false", "0":
			c.Catalog.Enabled = false
		default:
			c.Catalog.Enabled = true
			c.Catalog.Path = v
		}
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.InputDir == "" {
		errs = append(errs, errors.New("input_dir is empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if c.JSONDir == "" {
		errs = append(errs, errors.New("json_dir is empty"))
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log format %q is not text or json", c.Log.Format))
	}
	if c.Measure.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("measure chunk_size must be positive, got %d", c.Measure.ChunkSize))
	}
	return errors.Join(errs...)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
