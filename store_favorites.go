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

	"github.com/ruh-app/offline-go/internal/logging"
	"github.com/ruh-app/offline-go/models"
)

// FavoriteStore persists favorited verses.
type FavoriteStore struct {
	*Collection[models.FavoriteVerse]
}

// NewFavoriteStore creates the favorites collection over storage.
func NewFavoriteStore(storage Storage, opts ...CollectionOpt) (*FavoriteStore, error) {
	coll, err := newCollection[models.FavoriteVerse](storage, FavoritesStoreKey, logging.StoreTypeFavorites, opts...)
	if err != nil {
		return nil, err
	}

	return &FavoriteStore{Collection: coll}, nil
}

// Add stores the favorite unless the same (Chapter, Verse) is already
// present. Returns true when the verse was actually added.
func (s *FavoriteStore) Add(ctx context.Context, verse models.FavoriteVerse) (bool, error) {
	c := s.Collection

	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return false, err
	}

	for _, record := range records {
		if record.SameVerse(verse) {
			return false, nil
		}
	}

	return true, c.save(ctx, append(records, verse))
}

// FindByVerse returns the stored favorite with the given natural key, or nil.
func (s *FavoriteStore) FindByVerse(ctx context.Context, chapter, verse int) (*models.FavoriteVerse, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if record.Chapter == chapter && record.Verse == verse {
			return &record, nil
		}
	}

	return nil, nil
}
