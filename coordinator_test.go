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
	"sync"
	"testing"

	"github.com/ruh-app/offline-go/io/cache"
	"github.com/ruh-app/offline-go/models"
	"github.com/stretchr/testify/require"
)

// fakeAPI counts calls per endpoint and delegates outcomes to the fn fields.
// Without an fn it echoes the record back under a server-assigned id.
type fakeAPI struct {
	mu sync.Mutex

	sendCalls     int
	submitCalls   int
	favoriteCalls int

	sendFn     func(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error)
	submitFn   func(ctx context.Context, checkIn models.WellnessCheckIn) (models.WellnessCheckIn, error)
	favoriteFn func(ctx context.Context, verse models.FavoriteVerse) (models.FavoriteVerse, error)
}

func (a *fakeAPI) SendMessage(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	a.mu.Lock()
	a.sendCalls++
	fn := a.sendFn
	a.mu.Unlock()

	if fn == nil {
		canonical := msg
		canonical.ID = "srv-" + msg.ID

		return canonical, nil
	}

	return fn(ctx, msg)
}

func (a *fakeAPI) SubmitCheckIn(ctx context.Context, checkIn models.WellnessCheckIn) (models.WellnessCheckIn, error) {
	a.mu.Lock()
	a.submitCalls++
	fn := a.submitFn
	a.mu.Unlock()

	if fn == nil {
		canonical := checkIn
		canonical.ID = "srv-" + checkIn.ID

		return canonical, nil
	}

	return fn(ctx, checkIn)
}

func (a *fakeAPI) FavoriteVerse(ctx context.Context, verse models.FavoriteVerse) (models.FavoriteVerse, error) {
	a.mu.Lock()
	a.favoriteCalls++
	fn := a.favoriteFn
	a.mu.Unlock()

	if fn == nil {
		canonical := verse
		canonical.ID = "srv-" + verse.ID

		return canonical, nil
	}

	return fn(ctx, verse)
}

func (a *fakeAPI) sendCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.sendCalls
}

func (a *fakeAPI) favoriteCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.favoriteCalls
}

// coordinatorFixture wires the three coordinators over shared in-memory
// storage, one cache and one fake API.
type coordinatorFixture struct {
	api *fakeAPI
	qc  *cache.Cache

	chatStore     *ChatStore
	wellnessStore *WellnessStore
	favoriteStore *FavoriteStore

	chat      *ChatCoordinator
	wellness  *WellnessCoordinator
	favorites *FavoriteCoordinator
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()

	storage := NewStorageMemory()
	qc := cache.New()
	api := &fakeAPI{}

	executor, err := NewRetryExecutor(NewConnectivityMonitor())
	require.NoError(t, err)

	chatStore, err := NewChatStore(storage)
	require.NoError(t, err)

	wellnessStore, err := NewWellnessStore(storage)
	require.NoError(t, err)

	favoriteStore, err := NewFavoriteStore(storage)
	require.NoError(t, err)

	chat, err := NewChatCoordinator(chatStore, qc, api, executor)
	require.NoError(t, err)

	wellness, err := NewWellnessCoordinator(wellnessStore, qc, api, executor)
	require.NoError(t, err)

	favorites, err := NewFavoriteCoordinator(favoriteStore, qc, api, executor)
	require.NoError(t, err)

	return &coordinatorFixture{
		api:           api,
		qc:            qc,
		chatStore:     chatStore,
		wellnessStore: wellnessStore,
		favoriteStore: favoriteStore,
		chat:          chat,
		wellness:      wellness,
		favorites:     favorites,
	}
}

func testChatInput() models.ChatMessageInput {
	return models.ChatMessageInput{
		ConversationID: "conv-1",
		Sender:         models.SenderUser,
		Content:        "salaam",
	}
}

func testCheckInInput() models.WellnessCheckInInput {
	return models.WellnessCheckInInput{
		Mood:        "calm",
		EnergyLevel: 7,
		StressLevel: 4,
	}
}

func testVerseInput() models.FavoriteVerseInput {
	return models.FavoriteVerseInput{
		Chapter:     2,
		Verse:       255,
		Translation: "Allah - there is no deity except Him.",
	}
}

func TestNewChatCoordinator(t *testing.T) {
	t.Parallel()

	storage := NewStorageMemory()
	qc := cache.New()
	api := &fakeAPI{}

	executor, err := NewRetryExecutor(NewConnectivityMonitor())
	require.NoError(t, err)

	store, err := NewChatStore(storage)
	require.NoError(t, err)

	tests := []struct {
		name     string
		store    *ChatStore
		cache    QueryCache
		api      APIClient
		executor *RetryExecutor
		wantErr  string
	}{
		{name: "All dependencies", store: store, cache: qc, api: api, executor: executor},
		{name: "Missing store", cache: qc, api: api, executor: executor, wantErr: "chat store is required"},
		{name: "Missing cache", store: store, api: api, executor: executor, wantErr: "query cache is required"},
		{name: "Missing api client", store: store, cache: qc, executor: executor, wantErr: "api client is required"},
		{name: "Missing executor", store: store, cache: qc, api: api, wantErr: "retry executor is required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			coordinator, err := NewChatCoordinator(tt.store, tt.cache, tt.api, tt.executor)

			if tt.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, coordinator)

				return
			}

			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChatCoordinator_Stage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Persists an unsynced message under a temp id", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		staged, err := f.chat.Stage(ctx, testChatInput())
		require.NoError(t, err)
		require.True(t, IsTempID(staged.ID))
		require.False(t, staged.Synced)
		require.False(t, staged.Timestamp.IsZero())

		records, err := f.chatStore.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, staged, records[0])
	})

	t.Run("Splices the message into an empty thread", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		staged, err := f.chat.Stage(ctx, testChatInput())
		require.NoError(t, err)

		value, ok := f.qc.Data(models.ChatThreadRegion("conv-1"))
		require.True(t, ok)

		thread, ok := value.(models.ChatThread)
		require.True(t, ok)
		require.Equal(t, 1, thread.MessageCount)
		require.Equal(t, staged.ID, thread.Messages[0].ID)
	})

	t.Run("Splices the message to the head of a cached thread", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)
		region := models.ChatThreadRegion("conv-1")

		f.qc.SetData(region, models.ChatThread{
			ConversationID: "conv-1",
			MessageCount:   2,
			Messages: []models.ChatMessage{
				testMessage("msg-2", true),
				testMessage("msg-1", true),
			},
		})

		staged, err := f.chat.Stage(ctx, testChatInput())
		require.NoError(t, err)

		value, _ := f.qc.Data(region)
		thread := value.(models.ChatThread)

		require.Equal(t, 3, thread.MessageCount)
		require.Equal(t, staged.ID, thread.Messages[0].ID)
		require.Equal(t, "msg-2", thread.Messages[1].ID)
		require.Equal(t, "msg-1", thread.Messages[2].ID)
	})

	t.Run("Rejects invalid input", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		input := testChatInput()
		input.Content = ""

		_, err := f.chat.Stage(ctx, input)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid chat message")

		records, err := f.chatStore.List(ctx)
		require.NoError(t, err)
		require.Empty(t, records)
	})
}

func TestChatCoordinator_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Confirms the canonical record on success", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		sent, err := f.chat.Send(ctx, testChatInput(), fastPolicy(3))
		require.NoError(t, err)
		require.True(t, sent.Synced)
		require.False(t, IsTempID(sent.ID))
		require.Equal(t, 1, f.api.sendCount())

		records, err := f.chatStore.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, sent.ID, records[0].ID)
		require.True(t, records[0].Synced)

		// The thread region is flagged for refetch but keeps serving data.
		region := models.ChatThreadRegion("conv-1")
		_, ok := f.qc.Data(region)
		require.True(t, ok)
		require.True(t, f.qc.IsStale(region))
	})

	t.Run("Retries a transient failure", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)
		f.api.sendFn = func(_ context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
			if f.api.sendCount() == 1 {
				return models.ChatMessage{}, models.NewStatusError(502, "")
			}

			msg.ID = "srv-1"

			return msg, nil
		}

		sent, err := f.chat.Send(ctx, testChatInput(), fastPolicy(3))
		require.NoError(t, err)
		require.Equal(t, "srv-1", sent.ID)
		require.Equal(t, 2, f.api.sendCount())
	})

	t.Run("Rolls back on terminal failure", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)
		region := models.ChatThreadRegion("conv-1")

		preThread := models.ChatThread{
			ConversationID: "conv-1",
			MessageCount:   1,
			Messages:       []models.ChatMessage{testMessage("msg-1", true)},
		}
		f.qc.SetData(region, preThread)

		f.api.sendFn = func(context.Context, models.ChatMessage) (models.ChatMessage, error) {
			return models.ChatMessage{}, models.NewStatusError(422, "content rejected")
		}

		_, err := f.chat.Send(ctx, testChatInput(), fastPolicy(3))
		require.Error(t, err)
		require.Contains(t, err.Error(), "content rejected")
		require.Equal(t, 1, f.api.sendCount())

		// Store and cache are back to their pre-stage state.
		records, err := f.chatStore.List(ctx)
		require.NoError(t, err)
		require.Empty(t, records)

		value, ok := f.qc.Data(region)
		require.True(t, ok)
		require.Equal(t, preThread, value)
		require.True(t, f.qc.IsStale(region))
	})

	t.Run("Keeps the record unsynced when canceled mid-flight", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		sendCtx, cancel := context.WithCancel(ctx)
		f.api.sendFn = func(context.Context, models.ChatMessage) (models.ChatMessage, error) {
			cancel()

			return models.ChatMessage{}, sendCtx.Err()
		}

		_, err := f.chat.Send(sendCtx, testChatInput(), fastPolicy(3))
		require.ErrorIs(t, err, context.Canceled)

		// No rollback: the staged record waits for a later reconcile.
		records, err := f.chatStore.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.True(t, IsTempID(records[0].ID))
		require.False(t, records[0].Synced)
	})
}

func TestChatCoordinator_Confirm(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Swaps the temp record for the canonical one", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		staged, err := f.chat.Stage(ctx, testChatInput())
		require.NoError(t, err)

		canonical := staged
		canonical.ID = "srv-1"

		require.NoError(t, f.chat.Confirm(ctx, staged.ID, canonical))

		records, err := f.chatStore.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "srv-1", records[0].ID)
		require.True(t, records[0].Synced)
		require.True(t, f.qc.IsStale(models.ChatThreadRegion("conv-1")))
	})

	t.Run("Tolerates an unknown temp id", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		require.NoError(t, f.chat.Confirm(ctx, "missing", testMessage("srv-9", true)))
	})
}

func TestChatCoordinator_Rollback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Restores the pre-stage snapshot and removes the record", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)
		region := models.ChatThreadRegion("conv-1")

		preThread := models.ChatThread{
			ConversationID: "conv-1",
			MessageCount:   1,
			Messages:       []models.ChatMessage{testMessage("msg-1", true)},
		}
		f.qc.SetData(region, preThread)

		staged, err := f.chat.Stage(ctx, testChatInput())
		require.NoError(t, err)

		require.NoError(t, f.chat.Rollback(ctx, staged.ID))

		records, err := f.chatStore.List(ctx)
		require.NoError(t, err)
		require.Empty(t, records)

		value, ok := f.qc.Data(region)
		require.True(t, ok)
		require.Equal(t, preThread, value)
		require.True(t, f.qc.IsStale(region))
	})

	t.Run("Unsplices when there was no pre-stage value", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		staged, err := f.chat.Stage(ctx, testChatInput())
		require.NoError(t, err)

		require.NoError(t, f.chat.Rollback(ctx, staged.ID))

		value, ok := f.qc.Data(models.ChatThreadRegion("conv-1"))
		require.True(t, ok)

		thread := value.(models.ChatThread)
		require.Zero(t, thread.MessageCount)
		require.Empty(t, thread.Messages)
	})

	t.Run("Tolerates a missing record after a partial stage", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		staged, err := f.chat.Stage(ctx, testChatInput())
		require.NoError(t, err)

		// The persistence half is already gone.
		removed, err := f.chatStore.Remove(ctx, staged.ID)
		require.NoError(t, err)
		require.True(t, removed)

		require.NoError(t, f.chat.Rollback(ctx, staged.ID))

		value, ok := f.qc.Data(models.ChatThreadRegion("conv-1"))
		require.True(t, ok)

		thread := value.(models.ChatThread)
		require.Empty(t, thread.Messages)
	})

	t.Run("Tolerates being called twice", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		staged, err := f.chat.Stage(ctx, testChatInput())
		require.NoError(t, err)

		require.NoError(t, f.chat.Rollback(ctx, staged.ID))
		require.NoError(t, f.chat.Rollback(ctx, staged.ID))
	})
}

func TestWellnessCoordinator_Submit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Confirms the canonical record on success", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		submitted, err := f.wellness.Submit(ctx, testCheckInInput(), fastPolicy(3))
		require.NoError(t, err)
		require.True(t, submitted.Synced)
		require.False(t, IsTempID(submitted.ID))

		unsynced, err := f.wellnessStore.Unsynced(ctx)
		require.NoError(t, err)
		require.Empty(t, unsynced)

		require.True(t, f.qc.IsStale(models.WellnessHistoryRegion))
	})

	t.Run("Bumps the cached history on stage", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		f.qc.SetData(models.WellnessHistoryRegion, models.WellnessHistory{
			TotalEntries: 1,
			Entries:      []models.WellnessCheckIn{{ID: "checkin-1", Synced: true}},
		})

		staged, err := f.wellness.Stage(ctx, testCheckInInput())
		require.NoError(t, err)

		value, _ := f.qc.Data(models.WellnessHistoryRegion)
		history := value.(models.WellnessHistory)

		require.Equal(t, 2, history.TotalEntries)
		require.Equal(t, staged.ID, history.Entries[0].ID)
		require.Equal(t, "checkin-1", history.Entries[1].ID)
	})

	t.Run("Rolls back on terminal failure", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		preHistory := models.WellnessHistory{
			TotalEntries: 1,
			Entries:      []models.WellnessCheckIn{{ID: "checkin-1", Synced: true}},
		}
		f.qc.SetData(models.WellnessHistoryRegion, preHistory)

		f.api.submitFn = func(context.Context, models.WellnessCheckIn) (models.WellnessCheckIn, error) {
			return models.WellnessCheckIn{}, models.NewStatusError(422, "mood is required")
		}

		_, err := f.wellness.Submit(ctx, testCheckInInput(), fastPolicy(3))
		require.Error(t, err)

		records, err := f.wellnessStore.List(ctx)
		require.NoError(t, err)
		require.Empty(t, records)

		value, ok := f.qc.Data(models.WellnessHistoryRegion)
		require.True(t, ok)
		require.Equal(t, preHistory, value)
	})

	t.Run("Rejects levels outside the scale", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		input := testCheckInInput()
		input.EnergyLevel = 11

		_, err := f.wellness.Submit(ctx, input, fastPolicy(3))
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid wellness check-in")
	})
}

func TestFavoriteCoordinator_Favorite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Confirms the canonical record on success", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		favorite, err := f.favorites.Favorite(ctx, testVerseInput(), fastPolicy(3))
		require.NoError(t, err)
		require.True(t, favorite.Synced)
		require.False(t, IsTempID(favorite.ID))
		require.Equal(t, 1, f.api.favoriteCount())
		require.True(t, f.qc.IsStale(models.FavoriteListRegion))
	})

	t.Run("Returns the stored favorite without a network call", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		existing := models.FavoriteVerse{ID: "fav-1", Chapter: 2, Verse: 255, Synced: true}
		added, err := f.favoriteStore.Add(ctx, existing)
		require.NoError(t, err)
		require.True(t, added)

		favorite, err := f.favorites.Favorite(ctx, testVerseInput(), fastPolicy(3))
		require.NoError(t, err)
		require.Equal(t, "fav-1", favorite.ID)
		require.True(t, favorite.Synced)
		require.Zero(t, f.api.favoriteCount())

		// The duplicate never touched the cache.
		require.Zero(t, f.qc.Len())
	})

	t.Run("Rolls back on terminal failure", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		f.api.favoriteFn = func(context.Context, models.FavoriteVerse) (models.FavoriteVerse, error) {
			return models.FavoriteVerse{}, models.NewStatusError(403, "")
		}

		_, err := f.favorites.Favorite(ctx, testVerseInput(), fastPolicy(3))
		require.Error(t, err)

		records, err := f.favoriteStore.List(ctx)
		require.NoError(t, err)
		require.Empty(t, records)

		// The splice was undone, leaving an empty list behind.
		value, ok := f.qc.Data(models.FavoriteListRegion)
		require.True(t, ok)

		list := value.(models.FavoriteList)
		require.Zero(t, list.Total)
		require.Empty(t, list.Verses)
	})

	t.Run("Rejects invalid input", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		input := testVerseInput()
		input.Chapter = 0

		_, err := f.favorites.Favorite(ctx, input, fastPolicy(3))
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid favorite verse")
	})
}

func TestNewRunner(t *testing.T) {
	t.Parallel()

	f := newCoordinatorFixture(t)

	runner, err := NewRunner(f.chat, f.wellness, f.favorites)
	require.NoError(t, err)
	require.NotNil(t, runner)

	_, err = NewRunner(nil, f.wellness, f.favorites)
	require.Error(t, err)
	require.Contains(t, err.Error(), "all domain coordinators are required")
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Replays a chat send", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		runner, err := NewRunner(f.chat, f.wellness, f.favorites)
		require.NoError(t, err)

		staged := testMessage(NewTempID(), false)
		require.NoError(t, f.chatStore.Add(ctx, staged))

		op, err := models.NewChatSendOperation(staged)
		require.NoError(t, err)

		require.NoError(t, runner.Run(ctx, op))

		records, err := f.chatStore.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "srv-"+staged.ID, records[0].ID)
		require.True(t, records[0].Synced)
	})

	t.Run("Replays a wellness submit", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		runner, err := NewRunner(f.chat, f.wellness, f.favorites)
		require.NoError(t, err)

		staged := models.WellnessCheckIn{ID: NewTempID(), Mood: "calm", EnergyLevel: 5, StressLevel: 5}
		require.NoError(t, f.wellnessStore.Add(ctx, staged))

		op, err := models.NewWellnessSubmitOperation(staged)
		require.NoError(t, err)

		require.NoError(t, runner.Run(ctx, op))

		unsynced, err := f.wellnessStore.Unsynced(ctx)
		require.NoError(t, err)
		require.Empty(t, unsynced)
	})

	t.Run("Replays a verse favorite", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		runner, err := NewRunner(f.chat, f.wellness, f.favorites)
		require.NoError(t, err)

		staged := models.FavoriteVerse{ID: NewTempID(), Chapter: 2, Verse: 255}
		added, err := f.favoriteStore.Add(ctx, staged)
		require.NoError(t, err)
		require.True(t, added)

		op, err := models.NewVerseFavoriteOperation(staged)
		require.NoError(t, err)

		require.NoError(t, runner.Run(ctx, op))

		unsynced, err := f.favoriteStore.Unsynced(ctx)
		require.NoError(t, err)
		require.Empty(t, unsynced)
	})

	t.Run("Propagates the api error", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)
		f.api.sendFn = func(context.Context, models.ChatMessage) (models.ChatMessage, error) {
			return models.ChatMessage{}, models.ErrNetworkUnavailable
		}

		runner, err := NewRunner(f.chat, f.wellness, f.favorites)
		require.NoError(t, err)

		op, err := models.NewChatSendOperation(testMessage("temp-1", false))
		require.NoError(t, err)

		err = runner.Run(ctx, op)
		require.ErrorIs(t, err, models.ErrNetworkUnavailable)
	})

	t.Run("Rejects an unknown kind", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		runner, err := NewRunner(f.chat, f.wellness, f.favorites)
		require.NoError(t, err)

		err = runner.Run(ctx, models.Operation{Kind: "chat_delete", TempID: "temp-1", Payload: []byte(`{}`)})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown operation kind")
	})

	t.Run("Rejects a malformed payload", func(t *testing.T) {
		t.Parallel()

		f := newCoordinatorFixture(t)

		runner, err := NewRunner(f.chat, f.wellness, f.favorites)
		require.NoError(t, err)

		op := models.Operation{
			Kind:    models.OperationChatSend,
			TempID:  "temp-1",
			Payload: []byte(`"not an object"`),
		}

		err = runner.Run(ctx, op)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to decode")
	})
}
