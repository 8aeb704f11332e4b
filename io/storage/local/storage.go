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

// Package local provides a file-backed key-value storage adapter.
// Each key is persisted as one file under a root directory, written through
// a temp file so a crash never leaves a half-written blob.
package local

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruh-app/offline-go/models"
)

const (
	localType = "local"

	// tmpPattern names in-progress writes so Keys can skip them.
	tmpPattern = ".write-"
)

// Storage persists each key as a file under rootDir.
type Storage struct {
	rootDir string
}

// NewStorage creates the root directory if needed and returns the adapter.
func NewStorage(rootDir string) (*Storage, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("root directory is required")
	}

	if err := createDirIfNotExist(rootDir); err != nil {
		return nil, err
	}

	return &Storage{rootDir: rootDir}, nil
}

func createDirIfNotExist(path string) error {
	_, err := os.Stat(path)

	switch {
	case err == nil:
		// ok.
	case os.IsNotExist(err):
		if err = os.MkdirAll(path, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	default:
		return fmt.Errorf("failed to get stats for directory %s: %w", path, err)
	}

	return nil
}

func (s *Storage) filePath(key string) string {
	// Escaping keeps arbitrary keys to a single flat file each.
	return filepath.Join(s.rootDir, url.PathEscape(key))
}

// GetItem reads the value stored under key.
func (s *Storage) GetItem(ctx context.Context, key string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data, err := os.ReadFile(s.filePath(key))

	switch {
	case err == nil:
		return data, nil
	case os.IsNotExist(err):
		return nil, fmt.Errorf("key %q: %w", key, models.ErrKeyNotFound)
	default:
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
}

// SetItem writes value under key, replacing any previous value.
func (s *Storage) SetItem(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tmp, err := os.CreateTemp(s.rootDir, tmpPattern+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err = tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err = os.Rename(tmp.Name(), s.filePath(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store key %q: %w", key, err)
	}

	return nil
}

// RemoveItem deletes the value under key. Removing a missing key is not an
// error.
func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err := os.Remove(s.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}

	return nil
}

// Keys returns the stored keys in unspecified order.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	entries, err := os.ReadDir(s.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", s.rootDir, err)
	}

	keys := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tmpPattern) {
			continue
		}

		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			// Not one of ours.
			continue
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// GetType returns the `localType` type of storage. Used in logging.
func (s *Storage) GetType() string {
	return localType
}
