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

	"github.com/ruh-app/offline-go/io/cache"
	"github.com/ruh-app/offline-go/io/storage/local"
	"github.com/ruh-app/offline-go/io/storage/memory"
	"github.com/ruh-app/offline-go/models"
)

// Storage is the persisted key-value boundary provided by the host platform.
// Implementations must return models.ErrKeyNotFound for missing keys.
// Values are opaque blobs; all encoding happens on this side of the boundary.
type Storage interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
	// GetType returns the type of the storage. Used in logging.
	GetType() string
}

// QueryCache is the query-cache boundary the coordinators splice optimistic
// records into. Data returns the current value for a region, if cached.
type QueryCache interface {
	Data(region models.Region) (any, bool)
	SetData(region models.Region, value any)
	Invalidate(region models.Region)
	CancelInFlight(region models.Region)
}

// APIClient is the network boundary the coordinators sync records through.
// Each call sends a staged record and returns its canonical server form.
type APIClient interface {
	SendMessage(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error)
	SubmitCheckIn(ctx context.Context, checkIn models.WellnessCheckIn) (models.WellnessCheckIn, error)
	FavoriteVerse(ctx context.Context, verse models.FavoriteVerse) (models.FavoriteVerse, error)
}

// OperationRunner executes one queued operation.
type OperationRunner interface {
	Run(ctx context.Context, op models.Operation) error
}

// NewStorageMemory initializes an in-memory storage adapter.
func NewStorageMemory() Storage {
	return memory.NewStorage()
}

// NewStorageLocal initializes a file-backed storage adapter rooted at dir.
func NewStorageLocal(dir string) (Storage, error) {
	return local.NewStorage(dir)
}

// NewCacheMemory initializes the in-memory query cache.
func NewCacheMemory() QueryCache {
	return cache.New()
}
