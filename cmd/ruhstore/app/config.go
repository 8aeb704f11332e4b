// Copyright 2025 Ruh App, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/ruh-app/offline-go/cmd/ruhstore/flags"
	"github.com/ruh-app/offline-go/encoding"
)

const (
	// envPrefix prefixes the environment variables read into the config.
	// Nested keys use a double underscore, e.g. RUHSTORE_LOG__LEVEL.
	envPrefix = "RUHSTORE_"

	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// Config is the ruhstore configuration, assembled from defaults, an optional
// YAML file, environment variables and command line flags, in that order.
type Config struct {
	DataDir     string            `koanf:"data_dir"`
	Log         LogConfig         `koanf:"log"`
	Compression CompressionConfig `koanf:"compression"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type CompressionConfig struct {
	Mode  string `koanf:"mode"`
	Level int    `koanf:"level"`
}

// NewDefaultConfig returns the config used when nothing else is set. The
// default data directory matches the one the app client writes to.
func NewDefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return &Config{
		DataDir: filepath.Join(home, ".ruh", "offline"),
		Log: LogConfig{
			Level: "debug",
		},
		Compression: CompressionConfig{
			Mode:  CompressionNone,
			Level: 3,
		},
	}
}

// LoadConfig builds the effective config. Flags win over environment
// variables, environment variables win over the file.
func LoadConfig(appFlags *flags.App) (*Config, error) {
	cfg := NewDefaultConfig()

	k := koanf.New(".")

	if appFlags.Config != "" {
		if err := k.Load(file.Provider(appFlags.Config), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", appFlags.Config, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if appFlags.DataDir != "" {
		cfg.DataDir = appFlags.DataDir
	}

	if appFlags.LogJSON {
		cfg.Log.JSON = true
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envToKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return errors.New("data directory is not set")
	}

	switch c.Compression.Mode {
	case "", CompressionNone:
	case CompressionZstd:
		if c.Compression.Level < 1 || c.Compression.Level > 22 {
			return fmt.Errorf("invalid zstd compression level %d", c.Compression.Level)
		}
	default:
		return fmt.Errorf("unknown compression mode %q", c.Compression.Mode)
	}

	return nil
}

// Codec returns the collection blob codec the config describes.
func (c *Config) Codec() (encoding.Codec, error) {
	inner := encoding.NewJSONCodec()

	if c.Compression.Mode != CompressionZstd {
		return inner, nil
	}

	return encoding.NewZstdCodec(inner, c.Compression.Level)
}
