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
	"fmt"
	"log/slog"

	"github.com/ruh-app/offline-go/models"
)

// Reconcile sweeps the persisted stores for unsynced records and re-enqueues
// each one as a background operation, so work staged in an earlier session or
// orphaned by a cancellation is retried. It returns the number of records
// enqueued.
//
// Enqueueing an ID that is already pending replaces that item, so running
// Reconcile while the queue holds work is safe.
func (c *Client) Reconcile(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	policy := models.NewBackgroundRetryPolicy()

	count := 0

	messages, err := c.chatStore.Unsynced(ctx)
	if err != nil {
		return count, fmt.Errorf("failed to sweep chat store: %w", err)
	}

	for _, msg := range messages {
		op, err := models.NewChatSendOperation(msg)
		if err != nil {
			return count, err
		}

		if _, err := c.queue.Enqueue(msg.ID, op, policy); err != nil {
			return count, err
		}

		count++
	}

	checkIns, err := c.wellnessStore.Unsynced(ctx)
	if err != nil {
		return count, fmt.Errorf("failed to sweep wellness store: %w", err)
	}

	for _, checkIn := range checkIns {
		op, err := models.NewWellnessSubmitOperation(checkIn)
		if err != nil {
			return count, err
		}

		if _, err := c.queue.Enqueue(checkIn.ID, op, policy); err != nil {
			return count, err
		}

		count++
	}

	verses, err := c.favoriteStore.Unsynced(ctx)
	if err != nil {
		return count, fmt.Errorf("failed to sweep favorites store: %w", err)
	}

	for _, verse := range verses {
		op, err := models.NewVerseFavoriteOperation(verse)
		if err != nil {
			return count, err
		}

		if _, err := c.queue.Enqueue(verse.ID, op, policy); err != nil {
			return count, err
		}

		count++
	}

	if count > 0 {
		c.logger.Info("reconciled unsynced records",
			slog.Int("count", count),
		)
	}

	return count, nil
}
