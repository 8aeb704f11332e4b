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

// ChatCoordinator applies optimistic updates for chat messages: stage a
// tentative record locally, then confirm or roll back once the network
// outcome is known.
type ChatCoordinator struct {
	store     *ChatStore
	cache     QueryCache
	api       APIClient
	executor  *RetryExecutor
	validate  *validator.Validate
	logger    *slog.Logger
	snapshots *snapshotBook
}

// NewChatCoordinator creates the chat coordinator.
//
// options:
//   - [WithCoordinatorLogger] to set a logger that the coordinator will log to.
//   - [WithCoordinatorValidator] to share one validator instance.
func NewChatCoordinator(
	store *ChatStore,
	cache QueryCache,
	api APIClient,
	executor *RetryExecutor,
	opts ...CoordinatorOpt,
) (*ChatCoordinator, error) {
	if store == nil {
		return nil, errors.New("chat store is required")
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

	return &ChatCoordinator{
		store:     store,
		cache:     cache,
		api:       api,
		executor:  executor,
		validate:  cfg.validate,
		logger:    logging.WithCoordinator(cfg.logger, uuid.NewString(), logging.StoreTypeChat),
		snapshots: newSnapshotBook(),
	}, nil
}

// Stage validates the input, persists a tentative unsynced message under a
// temp id and splices it to the head of the conversation's cached thread.
// The pre-stage cache value is remembered for rollback.
func (c *ChatCoordinator) Stage(ctx context.Context, input models.ChatMessageInput) (models.ChatMessage, error) {
	if err := c.validate.Struct(input); err != nil {
		return models.ChatMessage{}, fmt.Errorf("invalid chat message: %w", err)
	}

	msg := models.ChatMessage{
		ID:             NewTempID(),
		ConversationID: input.ConversationID,
		Sender:         input.Sender,
		Content:        input.Content,
		Timestamp:      time.Now(),
	}

	if err := c.store.Add(ctx, msg); err != nil {
		return models.ChatMessage{}, err
	}

	c.splice(msg)

	c.logger.Debug("staged chat message",
		slog.String("id", msg.ID),
		slog.String("conversation", msg.ConversationID),
	)

	return msg, nil
}

// splice cancels in-flight fetches for the thread region, snapshots it and
// puts the staged message at the head with the count bumped.
func (c *ChatCoordinator) splice(msg models.ChatMessage) {
	region := models.ChatThreadRegion(msg.ConversationID)

	c.cache.CancelInFlight(region)

	value, existed := c.cache.Data(region)
	c.snapshots.remember(msg.ID, snapshotEntry{
		region:  region,
		value:   value,
		existed: existed,
	})

	thread := models.ChatThread{ConversationID: msg.ConversationID}
	if current, isThread := value.(models.ChatThread); existed && isThread {
		thread = current
	}

	messages := make([]models.ChatMessage, 0, len(thread.Messages)+1)
	messages = append(messages, msg)
	messages = append(messages, thread.Messages...)

	thread.Messages = messages
	thread.MessageCount++

	c.cache.SetData(region, thread)
}

// Confirm marks the staged message synced, replacing it with the canonical
// server record, and invalidates the thread region so a refetch supersedes
// the optimistic entry.
func (c *ChatCoordinator) Confirm(ctx context.Context, tempID string, canonical models.ChatMessage) error {
	if canonical.ID == "" {
		canonical.ID = tempID
	}

	canonical.Synced = true

	found, err := c.store.Update(ctx, tempID, func(models.ChatMessage) models.ChatMessage {
		return canonical
	})
	if err != nil {
		return err
	}

	if !found {
		c.logger.Debug("confirm for unknown record", slog.String("temp_id", tempID))
	}

	c.snapshots.forget(tempID)
	c.cache.Invalidate(models.ChatThreadRegion(canonical.ConversationID))

	return nil
}

// Rollback removes the staged message and puts the thread region back to its
// pre-stage state. Safe to call after a partial stage: both halves tolerate
// being already absent.
func (c *ChatCoordinator) Rollback(ctx context.Context, tempID string) error {
	record, removed, err := c.store.Take(ctx, tempID)

	snapshot, hasSnapshot := c.snapshots.take(tempID)

	var region models.Region

	switch {
	case hasSnapshot:
		region = snapshot.region
	case removed:
		region = models.ChatThreadRegion(record.ConversationID)
	}

	if region != "" {
		if hasSnapshot && snapshot.existed {
			c.cache.SetData(region, snapshot.value)
		} else {
			c.unsplice(region, tempID)
		}

		c.cache.Invalidate(region)
	}

	if err != nil {
		return err
	}

	c.logger.Debug("rolled back chat message",
		slog.String("temp_id", tempID),
		slog.Bool("removed", removed),
	)

	return nil
}

// unsplice removes the staged message from the cached thread when there was
// no pre-stage value to restore.
func (c *ChatCoordinator) unsplice(region models.Region, tempID string) {
	value, ok := c.cache.Data(region)
	if !ok {
		return
	}

	thread, isThread := value.(models.ChatThread)
	if !isThread {
		return
	}

	messages := make([]models.ChatMessage, 0, len(thread.Messages))

	var removed bool

	for _, msg := range thread.Messages {
		if msg.ID == tempID {
			removed = true
			continue
		}

		messages = append(messages, msg)
	}

	if !removed {
		return
	}

	thread.Messages = messages
	if thread.MessageCount > 0 {
		thread.MessageCount--
	}

	c.cache.SetData(region, thread)
}

// Send stages the message and sends it through the executor under the given
// policy, confirming on success and rolling back on terminal failure. When
// ctx is canceled mid-flight neither happens: the record stays unsynced and
// sweep-eligible.
func (c *ChatCoordinator) Send(
	ctx context.Context,
	input models.ChatMessageInput,
	policy *models.RetryPolicy,
) (models.ChatMessage, error) {
	staged, err := c.Stage(ctx, input)
	if err != nil {
		return models.ChatMessage{}, err
	}

	canonical, err := ExecuteValue(ctx, c.executor, func(ctx context.Context) (models.ChatMessage, error) {
		return c.api.SendMessage(ctx, staged)
	}, policy)
	if err != nil {
		if ctx.Err() != nil {
			return models.ChatMessage{}, ctx.Err()
		}

		if rbErr := c.Rollback(ctx, staged.ID); rbErr != nil {
			c.logger.Warn("rollback failed",
				slog.String("temp_id", staged.ID),
				slog.Any("err", rbErr),
			)
		}

		return models.ChatMessage{}, err
	}

	if err := c.Confirm(ctx, staged.ID, canonical); err != nil {
		return models.ChatMessage{}, err
	}

	return canonical.WithSynced(true), nil
}

// sync replays a staged message from the queue: one API call, then confirm.
func (c *ChatCoordinator) sync(ctx context.Context, staged models.ChatMessage) error {
	canonical, err := c.api.SendMessage(ctx, staged)
	if err != nil {
		return err
	}

	return c.Confirm(ctx, staged.ID, canonical)
}
