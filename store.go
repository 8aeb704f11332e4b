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

package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ruh-app/offline-go/encoding"
	"github.com/ruh-app/offline-go/internal/logging"
	"github.com/ruh-app/offline-go/models"
)

type collectionConfig struct {
	codec     encoding.Codec
	logger    *slog.Logger
	storeType logging.StoreType
}

// CollectionOpt is a functional option that allows configuring a [Collection].
type CollectionOpt func(*collectionConfig)

// WithCollectionCodec sets the blob codec for a [Collection].
func WithCollectionCodec(codec encoding.Codec) CollectionOpt {
	return func(cfg *collectionConfig) {
		cfg.codec = codec
	}
}

// WithCollectionLogger sets the logger for a [Collection].
func WithCollectionLogger(logger *slog.Logger) CollectionOpt {
	return func(cfg *collectionConfig) {
		cfg.logger = logger
	}
}

// Collection persists one domain's records as a single blob under key.
// Every operation is a whole-collection read-modify-write serialized by the
// collection's mutex, so the storage engine never needs partial updates.
type Collection[T models.Syncable[T]] struct {
	storage Storage
	codec   encoding.Codec
	logger  *slog.Logger
	key     string

	mu sync.Mutex
}

// NewCollection creates a collection stored under key.
//
// options:
//   - [WithCollectionCodec] to change the blob codec (JSON by default).
//   - [WithCollectionLogger] to set a logger that the collection will log to.
func NewCollection[T models.Syncable[T]](storage Storage, key string, opts ...CollectionOpt) (*Collection[T], error) {
	return newCollection[T](storage, key, logging.StoreTypeUnknown, opts...)
}

func newCollection[T models.Syncable[T]](
	storage Storage,
	key string,
	storeType logging.StoreType,
	opts ...CollectionOpt,
) (*Collection[T], error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}

	if key == "" {
		return nil, errors.New("collection key is required")
	}

	cfg := collectionConfig{
		codec:     encoding.NewJSONCodec(),
		logger:    logging.NewDefault(),
		storeType: storeType,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Collection[T]{
		storage: storage,
		codec:   cfg.codec,
		logger:  logging.WithStore(cfg.logger, key, cfg.storeType),
		key:     key,
	}, nil
}

// List returns all records in insertion order. A missing blob is an empty
// collection, not an error.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load(ctx)
}

// Add appends the record.
func (c *Collection[T]) Add(ctx context.Context, record T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}

	return c.save(ctx, append(records, record))
}

// Update replaces the record with the given id by mutate's return value.
// Returns false without writing when the id is absent.
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(T) T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return false, err
	}

	for i, record := range records {
		if record.Key() == id {
			records[i] = mutate(record)
			return true, c.save(ctx, records)
		}
	}

	return false, nil
}

// Remove deletes the record with the given id. Returns false without writing
// when the id is absent.
func (c *Collection[T]) Remove(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return false, err
	}

	for i, record := range records {
		if record.Key() == id {
			records = append(records[:i], records[i+1:]...)
			return true, c.save(ctx, records)
		}
	}

	return false, nil
}

// Take removes and returns the record with the given id. Returns false
// without writing when the id is absent.
func (c *Collection[T]) Take(ctx context.Context, id string) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T

	records, err := c.load(ctx)
	if err != nil {
		return zero, false, err
	}

	for i, record := range records {
		if record.Key() == id {
			records = append(records[:i], records[i+1:]...)
			return record, true, c.save(ctx, records)
		}
	}

	return zero, false, nil
}

// Unsynced returns the records still waiting for server confirmation.
func (c *Collection[T]) Unsynced(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	var unsynced []T

	for _, record := range records {
		if !record.IsSynced() {
			unsynced = append(unsynced, record)
		}
	}

	return unsynced, nil
}

// MarkSynced flips the synced flag on the given ids and returns how many
// records actually changed.
func (c *Collection[T]) MarkSynced(ctx context.Context, ids []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return 0, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var changed int

	for i, record := range records {
		if _, ok := wanted[record.Key()]; ok && !record.IsSynced() {
			records[i] = record.WithSynced(true)
			changed++
		}
	}

	if changed == 0 {
		return 0, nil
	}

	return changed, c.save(ctx, records)
}

// Prune removes every synced record and keeps the unsynced ones, returning
// the number of records removed. Useful for bounding the persisted blob on
// long-lived installs.
func (c *Collection[T]) Prune(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return 0, err
	}

	kept := records[:0]

	for _, record := range records {
		if !record.IsSynced() {
			kept = append(kept, record)
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	c.logger.Debug("pruned synced records",
		slog.Int("removed", removed),
		slog.Int("kept", len(kept)),
	)

	return removed, c.save(ctx, kept)
}

// Clear drops the whole collection blob.
func (c *Collection[T]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.storage.RemoveItem(ctx, c.key); err != nil {
		return fmt.Errorf("failed to clear collection %q: %w", c.key, err)
	}

	c.logger.Debug("collection cleared")

	return nil
}

// Key returns the storage key the collection lives under.
func (c *Collection[T]) Key() string {
	return c.key
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	data, err := c.storage.GetItem(ctx, c.key)
	if err != nil {
		if errors.Is(err, models.ErrKeyNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to load collection %q: %w", c.key, err)
	}

	var records []T
	if err := c.codec.Unmarshal(data, &records); err != nil {
		if encoding.IsCorruptedError(err) {
			return nil, fmt.Errorf("collection %q blob is corrupted: %w", c.key, err)
		}

		return nil, fmt.Errorf("failed to decode collection %q: %w", c.key, err)
	}

	return records, nil
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	data, err := c.codec.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %q: %w", c.key, err)
	}

	if err := c.storage.SetItem(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to store collection %q: %w", c.key, err)
	}

	return nil
}
