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

// Package memory provides an in-memory key-value storage adapter.
// It backs tests and short-lived sessions where persistence is not needed.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ruh-app/offline-go/models"
)

const memoryType = "memory"

// Storage is an in-memory key-value store. Safe for concurrent use.
type Storage struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewStorage creates an empty in-memory store.
func NewStorage() *Storage {
	return &Storage{
		items: make(map[string][]byte),
	}
}

// GetItem returns a copy of the value stored under key.
func (s *Storage) GetItem(ctx context.Context, key string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, models.ErrKeyNotFound)
	}

	out := make([]byte, len(value))
	copy(out, value)

	return out, nil
}

// SetItem stores a copy of value under key, replacing any previous value.
func (s *Storage) SetItem(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = stored

	return nil
}

// RemoveItem deletes the value under key. Removing a missing key is not an
// error.
func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)

	return nil
}

// Keys returns the stored keys in unspecified order.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}

	return keys, nil
}

// GetType returns the `memoryType` type of storage. Used in logging.
func (s *Storage) GetType() string {
	return memoryType
}
