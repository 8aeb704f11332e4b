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

// Storage keys of the persisted collections.
const (
	ChatStoreKey      = "ruh_offline_chat_messages"
	WellnessStoreKey  = "ruh_offline_wellness_checkins"
	FavoritesStoreKey = "ruh_offline_favorite_verses"
)

// ChatStore persists chat messages.
type ChatStore struct {
	*Collection[models.ChatMessage]
}

// NewChatStore creates the chat message collection over storage.
func NewChatStore(storage Storage, opts ...CollectionOpt) (*ChatStore, error) {
	coll, err := newCollection[models.ChatMessage](storage, ChatStoreKey, logging.StoreTypeChat, opts...)
	if err != nil {
		return nil, err
	}

	return &ChatStore{Collection: coll}, nil
}

// ListConversation returns the messages of one conversation in insertion
// order.
func (s *ChatStore) ListConversation(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var messages []models.ChatMessage

	for _, msg := range records {
		if msg.ConversationID == conversationID {
			messages = append(messages, msg)
		}
	}

	return messages, nil
}
