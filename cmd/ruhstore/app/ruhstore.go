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
	"context"
	"fmt"
	"log/slog"

	offline "github.com/ruh-app/offline-go"
	"github.com/ruh-app/offline-go/internal/logging"
)

// Collection names accepted by the subcommands.
const (
	CollectionChat      = "chat"
	CollectionWellness  = "wellness"
	CollectionFavorites = "favorites"
	CollectionAll       = "all"
)

// RuhStore inspects and maintains the offline store of a Ruh install. It
// opens the store's data directory directly, so it must not run while the
// app is writing to it.
type RuhStore struct {
	cfg    *Config
	logger *slog.Logger

	storage   offline.Storage
	chat      *offline.ChatStore
	wellness  *offline.WellnessStore
	favorites *offline.FavoriteStore
}

func NewRuhStore(cfg *Config, version string, logger *slog.Logger) (*RuhStore, error) {
	logger = logging.WithTool(logger, "ruhstore", version)

	storage, err := offline.NewStorageLocal(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	codec, err := cfg.Codec()
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	collOpts := []offline.CollectionOpt{
		offline.WithCollectionCodec(codec),
		offline.WithCollectionLogger(logger),
	}

	chat, err := offline.NewChatStore(storage, collOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat store: %w", err)
	}

	wellness, err := offline.NewWellnessStore(storage, collOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open wellness store: %w", err)
	}

	favorites, err := offline.NewFavoriteStore(storage, collOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites store: %w", err)
	}

	return &RuhStore{
		cfg:       cfg,
		logger:    logger,
		storage:   storage,
		chat:      chat,
		wellness:  wellness,
		favorites: favorites,
	}, nil
}

// Status prints per-collection record counts.
func (r *RuhStore) Status(ctx context.Context, isJSON bool) error {
	report := StatusReport{
		DataDir: r.cfg.DataDir,
		Engine:  r.storage.GetType(),
	}

	var err error

	if report.Chat, err = collectionStatus(ctx, r.chat.Collection); err != nil {
		return err
	}

	if report.Wellness, err = collectionStatus(ctx, r.wellness.Collection); err != nil {
		return err
	}

	if report.Favorites, err = collectionStatus(ctx, r.favorites.Collection); err != nil {
		return err
	}

	ReportStatus(&report, isJSON, r.logger)

	return nil
}

// List prints the records of one collection, optionally only the unsynced
// ones.
func (r *RuhStore) List(ctx context.Context, collection string, unsyncedOnly, isJSON bool) error {
	switch collection {
	case CollectionChat:
		records, err := listRecords(ctx, r.chat.Collection, unsyncedOnly)
		if err != nil {
			return err
		}

		return ReportRecords(records, isJSON)
	case CollectionWellness:
		records, err := listRecords(ctx, r.wellness.Collection, unsyncedOnly)
		if err != nil {
			return err
		}

		return ReportRecords(records, isJSON)
	case CollectionFavorites:
		records, err := listRecords(ctx, r.favorites.Collection, unsyncedOnly)
		if err != nil {
			return err
		}

		return ReportRecords(records, isJSON)
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
}

// Prune removes synced records from the given collection, or from all of
// them. Unsynced records always survive.
func (r *RuhStore) Prune(ctx context.Context, collection string, isJSON bool) error {
	switch collection {
	case CollectionChat, CollectionWellness, CollectionFavorites, CollectionAll:
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}

	report := PruneReport{}

	var err error

	if collection == CollectionChat || collection == CollectionAll {
		if report.Chat, err = r.chat.Prune(ctx); err != nil {
			return err
		}
	}

	if collection == CollectionWellness || collection == CollectionAll {
		if report.Wellness, err = r.wellness.Prune(ctx); err != nil {
			return err
		}
	}

	if collection == CollectionFavorites || collection == CollectionAll {
		if report.Favorites, err = r.favorites.Prune(ctx); err != nil {
			return err
		}
	}

	ReportPrune(&report, isJSON, r.logger)

	return nil
}

// Clear drops a whole collection, unsynced records included.
func (r *RuhStore) Clear(ctx context.Context, collection string) error {
	switch collection {
	case CollectionChat:
		return r.chat.Clear(ctx)
	case CollectionWellness:
		return r.wellness.Clear(ctx)
	case CollectionFavorites:
		return r.favorites.Clear(ctx)
	case CollectionAll:
		if err := r.chat.Clear(ctx); err != nil {
			return err
		}

		if err := r.wellness.Clear(ctx); err != nil {
			return err
		}

		return r.favorites.Clear(ctx)
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
}
