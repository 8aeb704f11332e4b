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

package models

import "time"

// Syncable is implemented by offline records. IsSynced reports server
// acknowledgement; WithSynced returns a copy with the flag set, keeping
// records value types.
type Syncable[T any] interface {
	Key() string
	IsSynced() bool
	WithSynced(synced bool) T
}

// **** Chat ****

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ChatMessage is a single message in a conversation.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	Synced         bool      `json:"synced"`
}

func (m ChatMessage) Key() string    { return m.ID }
func (m ChatMessage) IsSynced() bool { return m.Synced }

func (m ChatMessage) WithSynced(synced bool) ChatMessage {
	m.Synced = synced
	return m
}

// ChatMessageInput is the user-supplied part of a ChatMessage.
type ChatMessageInput struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Sender         string `json:"sender" validate:"required,oneof=user assistant"`
	Content        string `json:"content" validate:"required"`
}

// **** Wellness ****

// WellnessCheckIn is a single daily wellness entry.
type WellnessCheckIn struct {
	ID          string    `json:"id"`
	Mood        string    `json:"mood"`
	EnergyLevel int       `json:"energy_level"`
	StressLevel int       `json:"stress_level"`
	Notes       string    `json:"notes,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Synced      bool      `json:"synced"`
}

func (c WellnessCheckIn) Key() string    { return c.ID }
func (c WellnessCheckIn) IsSynced() bool { return c.Synced }

func (c WellnessCheckIn) WithSynced(synced bool) WellnessCheckIn {
	c.Synced = synced
	return c
}

// WellnessCheckInInput is the user-supplied part of a WellnessCheckIn.
// Energy and stress levels use the 1..10 scale.
type WellnessCheckInInput struct {
	Mood        string `json:"mood" validate:"required"`
	EnergyLevel int    `json:"energy_level" validate:"min=1,max=10"`
	StressLevel int    `json:"stress_level" validate:"min=1,max=10"`
	Notes       string `json:"notes,omitempty"`
}

// **** Favorites ****

// FavoriteVerse is a verse the user marked as favorite.
// (Chapter, Verse) is the natural key; ID is the sync identity.
type FavoriteVerse struct {
	ID          string    `json:"id"`
	Chapter     int       `json:"chapter"`
	Verse       int       `json:"verse"`
	ArabicText  string    `json:"arabic_text,omitempty"`
	Translation string    `json:"translation,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Synced      bool      `json:"synced"`
}

func (v FavoriteVerse) Key() string    { return v.ID }
func (v FavoriteVerse) IsSynced() bool { return v.Synced }

func (v FavoriteVerse) WithSynced(synced bool) FavoriteVerse {
	v.Synced = synced
	return v
}

// SameVerse reports whether other refers to the same (Chapter, Verse).
func (v FavoriteVerse) SameVerse(other FavoriteVerse) bool {
	return v.Chapter == other.Chapter && v.Verse == other.Verse
}

// FavoriteVerseInput is the user-supplied part of a FavoriteVerse.
type FavoriteVerseInput struct {
	Chapter     int    `json:"chapter" validate:"min=1"`
	Verse       int    `json:"verse" validate:"min=1"`
	ArabicText  string `json:"arabic_text,omitempty"`
	Translation string `json:"translation,omitempty"`
}

// **** Cache regions ****

// Region identifies a cached query result. The cache treats regions as
// opaque keys; values under them are the aggregate types below.
type Region string

const (
	WellnessHistoryRegion Region = "wellness_history"
	FavoriteListRegion    Region = "favorite_list"
)

// ChatThreadRegion returns the region holding one conversation's thread.
func ChatThreadRegion(conversationID string) Region {
	return Region("chat_thread:" + conversationID)
}

// ChatThread is the cached view of one conversation, newest message first.
type ChatThread struct {
	ConversationID string        `json:"conversation_id"`
	MessageCount   int           `json:"message_count"`
	Messages       []ChatMessage `json:"messages"`
}

// WellnessHistory is the cached check-in history, newest entry first.
type WellnessHistory struct {
	TotalEntries int               `json:"total_entries"`
	Entries      []WellnessCheckIn `json:"wellness_history"`
}

// FavoriteList is the cached favorites view, newest favorite first.
type FavoriteList struct {
	Total  int             `json:"total"`
	Verses []FavoriteVerse `json:"verses"`
}
