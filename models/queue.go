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

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperationKind discriminates queued operation payloads.
type OperationKind string

const (
	OperationChatSend       OperationKind = "chat_send"
	OperationWellnessSubmit OperationKind = "wellness_submit"
	OperationVerseFavorite  OperationKind = "verse_favorite"
)

// Operation is a replayable unit of deferred work. The payload is the staged
// record serialized as JSON, so queued work can be inspected and dispatched
// by kind instead of holding closures.
type Operation struct {
	Kind    OperationKind   `json:"kind"`
	TempID  string          `json:"temp_id"`
	Payload json.RawMessage `json:"payload"`
}

// NewChatSendOperation wraps a staged chat message for queueing.
func NewChatSendOperation(m ChatMessage) (Operation, error) {
	return newOperation(OperationChatSend, m.ID, m)
}

// NewWellnessSubmitOperation wraps a staged check-in for queueing.
func NewWellnessSubmitOperation(c WellnessCheckIn) (Operation, error) {
	return newOperation(OperationWellnessSubmit, c.ID, c)
}

// NewVerseFavoriteOperation wraps a staged favorite for queueing.
func NewVerseFavoriteOperation(v FavoriteVerse) (Operation, error) {
	return newOperation(OperationVerseFavorite, v.ID, v)
}

func newOperation(kind OperationKind, tempID string, payload any) (Operation, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Operation{}, fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}

	return Operation{Kind: kind, TempID: tempID, Payload: data}, nil
}

// Validate checks that the operation is dispatchable.
func (op Operation) Validate() error {
	switch op.Kind {
	case OperationChatSend, OperationWellnessSubmit, OperationVerseFavorite:
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}

	if op.TempID == "" {
		return fmt.Errorf("operation temp id must not be empty")
	}

	if len(op.Payload) == 0 {
		return fmt.Errorf("operation payload must not be empty")
	}

	return nil
}

// Decode unmarshals the payload into out, which must match the kind.
func (op Operation) Decode(out any) error {
	if err := json.Unmarshal(op.Payload, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", op.Kind, err)
	}

	return nil
}

// ItemStatus describes one queued item.
type ItemStatus struct {
	ID         string        `json:"id"`
	Kind       OperationKind `json:"kind"`
	Attempts   uint          `json:"attempts"`
	MaxRetries uint          `json:"max_retries"`
}

// DropRecord describes an item the queue gave up on.
type DropRecord struct {
	ItemID    string        `json:"item_id"`
	Kind      OperationKind `json:"kind"`
	Attempts  uint          `json:"attempts"`
	Reason    string        `json:"reason"`
	DroppedAt time.Time     `json:"dropped_at"`
}

// QueueStatus is a point-in-time snapshot of the retry queue.
type QueueStatus struct {
	Length     int          `json:"length"`
	Processing bool         `json:"processing"`
	Items      []ItemStatus `json:"items"`
	Drops      []DropRecord `json:"drops,omitempty"`
}
