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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ruh-app/offline-go/cmd/ruhstore/flags"
	"github.com/stretchr/testify/require"
)

// Config tests stay sequential: some of them set process environment
// variables that LoadConfig reads.

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	require.NotEmpty(t, cfg.DataDir)
	require.True(t, strings.HasSuffix(cfg.DataDir, filepath.Join(".ruh", "offline")))
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Log.JSON)
	require.Equal(t, CompressionNone, cfg.Compression.Mode)
	require.Equal(t, 3, cfg.Compression.Level)
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults when nothing is set", func(t *testing.T) {
		cfg, err := LoadConfig(flags.NewApp())
		require.NoError(t, err)
		require.Equal(t, "debug", cfg.Log.Level)
		require.Equal(t, CompressionNone, cfg.Compression.Mode)
		require.NotEmpty(t, cfg.DataDir)
	})

	t.Run("Reads the YAML file", func(t *testing.T) {
		path := writeConfigFile(t, `
data_dir: /data/offline
log:
  level: info
  json: true
compression:
  mode: zstd
  level: 5
`)

		appFlags := flags.NewApp()
		appFlags.Config = path

		cfg, err := LoadConfig(appFlags)
		require.NoError(t, err)
		require.Equal(t, "/data/offline", cfg.DataDir)
		require.Equal(t, "info", cfg.Log.Level)
		require.True(t, cfg.Log.JSON)
		require.Equal(t, CompressionZstd, cfg.Compression.Mode)
		require.Equal(t, 5, cfg.Compression.Level)
	})

	t.Run("Environment wins over the file", func(t *testing.T) {
		path := writeConfigFile(t, `
log:
  level: info
`)

		t.Setenv("RUHSTORE_LOG__LEVEL", "error")

		appFlags := flags.NewApp()
		appFlags.Config = path

		cfg, err := LoadConfig(appFlags)
		require.NoError(t, err)
		require.Equal(t, "error", cfg.Log.Level)
	})

	t.Run("Flags win over the file", func(t *testing.T) {
		path := writeConfigFile(t, `
data_dir: /data/offline
`)

		appFlags := flags.NewApp()
		appFlags.Config = path
		appFlags.DataDir = "/data/elsewhere"
		appFlags.LogJSON = true

		cfg, err := LoadConfig(appFlags)
		require.NoError(t, err)
		require.Equal(t, "/data/elsewhere", cfg.DataDir)
		require.True(t, cfg.Log.JSON)
	})

	t.Run("Fails on a missing file", func(t *testing.T) {
		appFlags := flags.NewApp()
		appFlags.Config = filepath.Join(t.TempDir(), "absent.yaml")

		_, err := LoadConfig(appFlags)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to load config file")
	})

	t.Run("Rejects an empty data directory", func(t *testing.T) {
		path := writeConfigFile(t, `
data_dir: ""
`)

		appFlags := flags.NewApp()
		appFlags.Config = path

		_, err := LoadConfig(appFlags)
		require.Error(t, err)
		require.Contains(t, err.Error(), "data directory is not set")
	})

	t.Run("Rejects an out of range zstd level", func(t *testing.T) {
		path := writeConfigFile(t, `
compression:
  mode: zstd
  level: 23
`)

		appFlags := flags.NewApp()
		appFlags.Config = path

		_, err := LoadConfig(appFlags)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid zstd compression level")
	})

	t.Run("Rejects an unknown compression mode", func(t *testing.T) {
		path := writeConfigFile(t, `
compression:
  mode: gzip
`)

		appFlags := flags.NewApp()
		appFlags.Config = path

		_, err := LoadConfig(appFlags)
		require.Error(t, err)
		require.Contains(t, err.Error(), `unknown compression mode "gzip"`)
	})
}

func TestConfig_Codec(t *testing.T) {
	t.Run("Plain JSON by default", func(t *testing.T) {
		cfg := NewDefaultConfig()

		codec, err := cfg.Codec()
		require.NoError(t, err)

		data, err := codec.Marshal(map[string]string{"key": "value"})
		require.NoError(t, err)
		require.JSONEq(t, `{"key":"value"}`, string(data))
	})

	t.Run("Zstd frames when enabled", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Compression.Mode = CompressionZstd

		codec, err := cfg.Codec()
		require.NoError(t, err)

		data, err := codec.Marshal(map[string]string{"key": "value"})
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(data), 4)
		// zstd frame magic.
		require.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, data[:4])
	})
}
