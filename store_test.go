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
	"testing"
	"time"

	"github.com/ruh-app/offline-go/encoding"
	"github.com/ruh-app/offline-go/models"
	"github.com/stretchr/testify/require"
)

const testCollectionKey = "test_records"

func testMessage(id string, synced bool) models.ChatMessage {
	return models.ChatMessage{
		ID:             id,
		ConversationID: "conv-1",
		Sender:         models.SenderUser,
		Content:        "content of " + id,
		Synced:         synced,
	}
}

func newTestCollection(t *testing.T) *Collection[models.ChatMessage] {
	t.Helper()

	coll, err := NewCollection[models.ChatMessage](NewStorageMemory(), testCollectionKey)
	require.NoError(t, err)

	return coll
}

func TestNewCollection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		storage Storage
		key     string
		wantErr string
	}{
		{name: "Valid arguments", storage: NewStorageMemory(), key: testCollectionKey},
		{name: "Missing storage", key: testCollectionKey, wantErr: "storage is required"},
		{name: "Missing key", storage: NewStorageMemory(), wantErr: "collection key is required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			coll, err := NewCollection[models.ChatMessage](tt.storage, tt.key)

			if tt.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, coll)
				require.Equal(t, tt.key, coll.Key())

				return
			}

			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCollection_AddAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coll := newTestCollection(t)

	records, err := coll.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)

	require.NoError(t, coll.Add(ctx, testMessage("msg-1", false)))
	require.NoError(t, coll.Add(ctx, testMessage("msg-2", true)))

	records, err = coll.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "msg-1", records[0].ID)
	require.Equal(t, "msg-2", records[1].ID)
}

func TestCollection_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coll := newTestCollection(t)

	require.NoError(t, coll.Add(ctx, testMessage("msg-1", false)))

	t.Run("Mutates an existing record", func(t *testing.T) {
		ok, err := coll.Update(ctx, "msg-1", func(msg models.ChatMessage) models.ChatMessage {
			msg.Content = "edited"
			return msg
		})

		require.NoError(t, err)
		require.True(t, ok)

		records, err := coll.List(ctx)
		require.NoError(t, err)
		require.Equal(t, "edited", records[0].Content)
	})

	t.Run("Skips an absent id", func(t *testing.T) {
		ok, err := coll.Update(ctx, "missing", func(msg models.ChatMessage) models.ChatMessage {
			return msg
		})

		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestCollection_Remove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coll := newTestCollection(t)

	require.NoError(t, coll.Add(ctx, testMessage("msg-1", false)))
	require.NoError(t, coll.Add(ctx, testMessage("msg-2", false)))

	ok, err := coll.Remove(ctx, "msg-1")
	require.NoError(t, err)
	require.True(t, ok)

	records, err := coll.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "msg-2", records[0].ID)

	ok, err = coll.Remove(ctx, "msg-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCollection_Take(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coll := newTestCollection(t)

	require.NoError(t, coll.Add(ctx, testMessage("msg-1", false)))

	record, ok, err := coll.Take(ctx, "msg-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "msg-1", record.ID)

	records, err := coll.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)

	record, ok, err = coll.Take(ctx, "msg-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, record.ID)
}

func TestCollection_Unsynced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coll := newTestCollection(t)

	require.NoError(t, coll.Add(ctx, testMessage("msg-1", true)))
	require.NoError(t, coll.Add(ctx, testMessage("msg-2", false)))
	require.NoError(t, coll.Add(ctx, testMessage("msg-3", false)))

	unsynced, err := coll.Unsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 2)
	require.Equal(t, "msg-2", unsynced[0].ID)
	require.Equal(t, "msg-3", unsynced[1].ID)
}

func TestCollection_MarkSynced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coll := newTestCollection(t)

	require.NoError(t, coll.Add(ctx, testMessage("msg-1", false)))
	require.NoError(t, coll.Add(ctx, testMessage("msg-2", false)))

	changed, err := coll.MarkSynced(ctx, []string{"msg-1", "msg-2", "missing"})
	require.NoError(t, err)
	require.Equal(t, 2, changed)

	unsynced, err := coll.Unsynced(ctx)
	require.NoError(t, err)
	require.Empty(t, unsynced)

	// Already synced records do not count again.
	changed, err = coll.MarkSynced(ctx, []string{"msg-1", "msg-2"})
	require.NoError(t, err)
	require.Zero(t, changed)
}

func TestCollection_Prune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Removes synced records only", func(t *testing.T) {
		t.Parallel()

		coll := newTestCollection(t)

		require.NoError(t, coll.Add(ctx, testMessage("msg-1", true)))
		require.NoError(t, coll.Add(ctx, testMessage("msg-2", false)))
		require.NoError(t, coll.Add(ctx, testMessage("msg-3", true)))

		removed, err := coll.Prune(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, removed)

		records, err := coll.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "msg-2", records[0].ID)
	})

	t.Run("Leaves unsynced records alone", func(t *testing.T) {
		t.Parallel()

		coll := newTestCollection(t)

		require.NoError(t, coll.Add(ctx, testMessage("msg-1", false)))

		removed, err := coll.Prune(ctx)
		require.NoError(t, err)
		require.Zero(t, removed)
	})

	t.Run("Handles an empty collection", func(t *testing.T) {
		t.Parallel()

		coll := newTestCollection(t)

		removed, err := coll.Prune(ctx)
		require.NoError(t, err)
		require.Zero(t, removed)
	})
}

func TestCollection_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coll := newTestCollection(t)

	require.NoError(t, coll.Add(ctx, testMessage("msg-1", false)))
	require.NoError(t, coll.Clear(ctx))

	records, err := coll.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)

	// Clearing an already empty collection is fine.
	require.NoError(t, coll.Clear(ctx))
}

func TestCollection_Codec(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Round trips through a compressed blob", func(t *testing.T) {
		t.Parallel()

		codec, err := encoding.NewZstdCodec(encoding.NewJSONCodec(), 3)
		require.NoError(t, err)

		storage := NewStorageMemory()
		coll, err := NewCollection[models.ChatMessage](storage, testCollectionKey, WithCollectionCodec(codec))
		require.NoError(t, err)

		msg := testMessage("msg-1", false)
		msg.Timestamp = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, coll.Add(ctx, msg))

		records, err := coll.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, msg, records[0])

		// The stored blob is a zstd frame, not plain JSON.
		blob, err := storage.GetItem(ctx, testCollectionKey)
		require.NoError(t, err)
		require.NotContains(t, string(blob), "conv-1")
	})

	t.Run("Reports a corrupted blob", func(t *testing.T) {
		t.Parallel()

		codec, err := encoding.NewZstdCodec(encoding.NewJSONCodec(), 3)
		require.NoError(t, err)

		storage := NewStorageMemory()
		coll, err := NewCollection[models.ChatMessage](storage, testCollectionKey, WithCollectionCodec(codec))
		require.NoError(t, err)

		require.NoError(t, storage.SetItem(ctx, testCollectionKey, []byte("not a zstd frame")))

		_, err = coll.List(ctx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "blob is corrupted")
	})
}

func TestChatStore_ListConversation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, err := NewChatStore(NewStorageMemory())
	require.NoError(t, err)

	first := testMessage("msg-1", false)
	other := testMessage("msg-2", false)
	other.ConversationID = "conv-2"
	second := testMessage("msg-3", false)

	require.NoError(t, store.Add(ctx, first))
	require.NoError(t, store.Add(ctx, other))
	require.NoError(t, store.Add(ctx, second))

	messages, err := store.ListConversation(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "msg-1", messages[0].ID)
	require.Equal(t, "msg-3", messages[1].ID)

	messages, err = store.ListConversation(ctx, "conv-3")
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestWellnessStore_History(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, err := NewWellnessStore(NewStorageMemory())
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"checkin-1", "checkin-2", "checkin-3"} {
		require.NoError(t, store.Add(ctx, models.WellnessCheckIn{
			ID:          id,
			Mood:        "calm",
			EnergyLevel: 5,
			StressLevel: 3,
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	history, err := store.History(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, history.TotalEntries)
	require.Equal(t, "checkin-3", history.Entries[0].ID)
	require.Equal(t, "checkin-2", history.Entries[1].ID)
	require.Equal(t, "checkin-1", history.Entries[2].ID)
}

func TestFavoriteStore_Add(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, err := NewFavoriteStore(NewStorageMemory())
	require.NoError(t, err)

	verse := models.FavoriteVerse{ID: "fav-1", Chapter: 2, Verse: 255}

	added, err := store.Add(ctx, verse)
	require.NoError(t, err)
	require.True(t, added)

	// A second favorite of the same verse is a no-op, whatever its id.
	added, err = store.Add(ctx, models.FavoriteVerse{ID: "fav-2", Chapter: 2, Verse: 255})
	require.NoError(t, err)
	require.False(t, added)

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "fav-1", records[0].ID)
}

func TestFavoriteStore_FindByVerse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, err := NewFavoriteStore(NewStorageMemory())
	require.NoError(t, err)

	added, err := store.Add(ctx, models.FavoriteVerse{ID: "fav-1", Chapter: 2, Verse: 255})
	require.NoError(t, err)
	require.True(t, added)

	found, err := store.FindByVerse(ctx, 2, 255)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "fav-1", found.ID)

	found, err = store.FindByVerse(ctx, 3, 1)
	require.NoError(t, err)
	require.Nil(t, found)
}
