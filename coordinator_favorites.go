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
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ruh-app/offline-go/internal/logging"
	"github.com/ruh-app/offline-go/models"
)

// FavoriteCoordinator applies optimistic updates for favorited verses.
// Favoriting is idempotent by (Chapter, Verse): staging an already stored
// verse is a no-op.
type FavoriteCoordinator struct {
	store     *FavoriteStore
	cache     QueryCache
	api       APIClient
	executor  *RetryExecutor
	validate  *validator.Validate
	logger    *slog.Logger
	snapshots *snapshotBook
}

// NewFavoriteCoordinator creates the favorites coordinator.
//
// options:
//   - [WithCoordinatorLogger] to set a logger that the coordinator will log to.
//   - [WithCoordinatorValidator] to share one validator instance.
func NewFavoriteCoordinator(
	store *FavoriteStore,
	cache QueryCache,
	api APIClient,
	executor *RetryExecutor,
	opts ...CoordinatorOpt,
) (*FavoriteCoordinator, error) {
	if store == nil {
		return nil, errors.New("favorite store is required")
	}

	if cache == nil {
		return nil, errors.New("query cache is required")
	}

	if api == nil {
		return nil, errors.New("api client is required")
	}

	if executor == nil {
		return nil, errors.New("retry executor is required")
	}

	cfg := newCoordinatorConfig(opts)

	return &FavoriteCoordinator{
		store:     store,
		cache:     cache,
		api:       api,
		executor:  executor,
		validate:  cfg.validate,
		logger:    logging.WithCoordinator(cfg.logger, uuid.NewString(), logging.StoreTypeFavorites),
		snapshots: newSnapshotBook(),
	}, nil
}

// Stage validates the input and persists a tentative unsynced favorite under
// a temp id, splicing it to the head of the cached list. When the verse is
// already stored, Stage returns the existing record and false without
// touching anything.
func (c *FavoriteCoordinator) Stage(ctx context.Context, input models.FavoriteVerseInput) (models.FavoriteVerse, bool, error) {
	if err := c.validate.Struct(input); err != nil {
		return models.FavoriteVerse{}, false, fmt.Errorf("invalid favorite verse: %w", err)
	}

	verse := models.FavoriteVerse{
		ID:          NewTempID(),
		Chapter:     input.Chapter,
		Verse:       input.Verse,
		ArabicText:  input.ArabicText,
		Translation: input.Translation,
		Timestamp:   time.Now(),
	}

	added, err := c.store.Add(ctx, verse)
	if err != nil {
		return models.FavoriteVerse{}, false, err
	}

	if !added {
		existing, err := c.store.FindByVerse(ctx, verse.Chapter, verse.Verse)
		if err != nil {
			return models.FavoriteVerse{}, false, err
		}

		c.logger.Debug("verse already favorited",
			slog.Int("chapter", verse.Chapter),
			slog.Int("verse", verse.Verse),
		)

		return *existing, false, nil
	}

	c.splice(verse)

	c.logger.Debug("staged favorite verse",
		slog.String("id", verse.ID),
		slog.Int("chapter", verse.Chapter),
		slog.Int("verse", verse.Verse),
	)

	return verse, true, nil
}

func (c *FavoriteCoordinator) splice(verse models.FavoriteVerse) {
	region := models.FavoriteListRegion

	c.cache.CancelInFlight(region)

	value, existed := c.cache.Data(region)
	c.snapshots.remember(verse.ID, snapshotEntry{
		region:  region,
		value:   value,
		existed: existed,
	})

	var list models.FavoriteList
	if current, isList := value.(models.FavoriteList); existed && isList {
		list = current
	}

	verses := make([]models.FavoriteVerse, 0, len(list.Verses)+1)
	verses = append(verses, verse)
	verses = append(verses, list.Verses...)

	list.Verses = verses
	list.Total++

	c.cache.SetData(region, list)
}

// Confirm marks the staged favorite synced, replacing it with the canonical
// server record, and invalidates the list region.
func (c *FavoriteCoordinator) Confirm(ctx context.Context, tempID string, canonical models.FavoriteVerse) error {
	if canonical.ID == "" {
		canonical.ID = tempID
	}

	canonical.Synced = true

	found, err := c.store.Update(ctx, tempID, func(models.FavoriteVerse) models.FavoriteVerse {
		return canonical
	})
	if err != nil {
		return err
	}

	if !found {
		c.logger.Debug("confirm for unknown record", slog.String("temp_id", tempID))
	}

	c.snapshots.forget(tempID)
	c.cache.Invalidate(models.FavoriteListRegion)

	return nil
}

// Rollback removes the staged favorite and puts the list region back to its
// pre-stage state. Safe to call after a partial stage.
func (c *FavoriteCoordinator) Rollback(ctx context.Context, tempID string) error {
	_, removed, err := c.store.Take(ctx, tempID)

	snapshot, hasSnapshot := c.snapshots.take(tempID)

	if hasSnapshot && snapshot.existed {
		c.cache.SetData(models.FavoriteListRegion, snapshot.value)
	} else {
		c.unsplice(tempID)
	}

	c.cache.Invalidate(models.FavoriteListRegion)

	if err != nil {
		return err
	}

	c.logger.Debug("rolled back favorite verse",
		slog.String("temp_id", tempID),
		slog.Bool("removed", removed),
	)

	return nil
}

func (c *FavoriteCoordinator) unsplice(tempID string) {
	value, ok := c.cache.Data(models.FavoriteListRegion)
	if !ok {
		return
	}

	list, isList := value.(models.FavoriteList)
	if !isList {
		return
	}

	verses := make([]models.FavoriteVerse, 0, len(list.Verses))

	var removed bool

	for _, verse := range list.Verses {
		if verse.ID == tempID {
			removed = true
			continue
		}

		verses = append(verses, verse)
	}

	if !removed {
		return
	}

	list.Verses = verses
	if list.Total > 0 {
		list.Total--
	}

	c.cache.SetData(models.FavoriteListRegion, list)
}

// Favorite stages the verse and favorites it through the executor under the
// given policy, confirming on success and rolling back on terminal failure.
// Favoriting an already stored verse returns the existing record without a
// network call. When ctx is canceled mid-flight neither confirm nor rollback
// happens: the record stays unsynced and sweep-eligible.
func (c *FavoriteCoordinator) Favorite(
	ctx context.Context,
	input models.FavoriteVerseInput,
	policy *models.RetryPolicy,
) (models.FavoriteVerse, error) {
	staged, fresh, err := c.Stage(ctx, input)
	if err != nil {
		return models.FavoriteVerse{}, err
	}

	if !fresh {
		return staged, nil
	}

	canonical, err := ExecuteValue(ctx, c.executor, func(ctx context.Context) (models.FavoriteVerse, error) {
		return c.api.FavoriteVerse(ctx, staged)
	}, policy)
	if err != nil {
		if ctx.Err() != nil {
			return models.FavoriteVerse{}, ctx.Err()
		}

		if rbErr := c.Rollback(ctx, staged.ID); rbErr != nil {
			c.logger.Warn("rollback failed",
				slog.String("temp_id", staged.ID),
				slog.Any("err", rbErr),
			)
		}

		return models.FavoriteVerse{}, err
	}

	if err := c.Confirm(ctx, staged.ID, canonical); err != nil {
		return models.FavoriteVerse{}, err
	}

	return canonical.WithSynced(true), nil
}

// sync replays a staged favorite from the queue: one API call, then confirm.
func (c *FavoriteCoordinator) sync(ctx context.Context, staged models.FavoriteVerse) error {
	canonical, err := c.api.FavoriteVerse(ctx, staged)
	if err != nil {
		return err
	}

	return c.Confirm(ctx, staged.ID, canonical)
}
