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

// WellnessCoordinator applies optimistic updates for wellness check-ins.
type WellnessCoordinator struct {
	store     *WellnessStore
	cache     QueryCache
	api       APIClient
	executor  *RetryExecutor
	validate  *validator.Validate
	logger    *slog.Logger
	snapshots *snapshotBook
}

// NewWellnessCoordinator creates the wellness coordinator.
//
// options:
//   - [WithCoordinatorLogger] to set a logger that the coordinator will log to.
//   - [WithCoordinatorValidator] to share one validator instance.
func NewWellnessCoordinator(
	store *WellnessStore,
	cache QueryCache,
	api APIClient,
	executor *RetryExecutor,
	opts ...CoordinatorOpt,
) (*WellnessCoordinator, error) {
	if store == nil {
		return nil, errors.New("wellness store is required")
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

	return &WellnessCoordinator{
		store:     store,
		cache:     cache,
		api:       api,
		executor:  executor,
		validate:  cfg.validate,
		logger:    logging.WithCoordinator(cfg.logger, uuid.NewString(), logging.StoreTypeWellness),
		snapshots: newSnapshotBook(),
	}, nil
}

// Stage validates the input, persists a tentative unsynced check-in under a
// temp id and splices it to the head of the cached history with the entry
// count bumped. The pre-stage cache value is remembered for rollback.
func (c *WellnessCoordinator) Stage(ctx context.Context, input models.WellnessCheckInInput) (models.WellnessCheckIn, error) {
	if err := c.validate.Struct(input); err != nil {
		return models.WellnessCheckIn{}, fmt.Errorf("invalid wellness check-in: %w", err)
	}

	checkIn := models.WellnessCheckIn{
		ID:          NewTempID(),
		Mood:        input.Mood,
		EnergyLevel: input.EnergyLevel,
		StressLevel: input.StressLevel,
		Notes:       input.Notes,
		Timestamp:   time.Now(),
	}

	if err := c.store.Add(ctx, checkIn); err != nil {
		return models.WellnessCheckIn{}, err
	}

	c.splice(checkIn)

	c.logger.Debug("staged wellness check-in", slog.String("id", checkIn.ID))

	return checkIn, nil
}

func (c *WellnessCoordinator) splice(checkIn models.WellnessCheckIn) {
	region := models.WellnessHistoryRegion

	c.cache.CancelInFlight(region)

	value, existed := c.cache.Data(region)
	c.snapshots.remember(checkIn.ID, snapshotEntry{
		region:  region,
		value:   value,
		existed: existed,
	})

	var history models.WellnessHistory
	if current, isHistory := value.(models.WellnessHistory); existed && isHistory {
		history = current
	}

	entries := make([]models.WellnessCheckIn, 0, len(history.Entries)+1)
	entries = append(entries, checkIn)
	entries = append(entries, history.Entries...)

	history.Entries = entries
	history.TotalEntries++

	c.cache.SetData(region, history)
}

// Confirm marks the staged check-in synced, replacing it with the canonical
// server record, and invalidates the history region.
func (c *WellnessCoordinator) Confirm(ctx context.Context, tempID string, canonical models.WellnessCheckIn) error {
	if canonical.ID == "" {
		canonical.ID = tempID
	}

	canonical.Synced = true

	found, err := c.store.Update(ctx, tempID, func(models.WellnessCheckIn) models.WellnessCheckIn {
		return canonical
	})
	if err != nil {
		return err
	}

	if !found {
		c.logger.Debug("confirm for unknown record", slog.String("temp_id", tempID))
	}

	c.snapshots.forget(tempID)
	c.cache.Invalidate(models.WellnessHistoryRegion)

	return nil
}

// Rollback removes the staged check-in and puts the history region back to
// its pre-stage state. Safe to call after a partial stage.
func (c *WellnessCoordinator) Rollback(ctx context.Context, tempID string) error {
	_, removed, err := c.store.Take(ctx, tempID)

	snapshot, hasSnapshot := c.snapshots.take(tempID)

	if hasSnapshot && snapshot.existed {
		c.cache.SetData(models.WellnessHistoryRegion, snapshot.value)
	} else {
		c.unsplice(tempID)
	}

	c.cache.Invalidate(models.WellnessHistoryRegion)

	if err != nil {
		return err
	}

	c.logger.Debug("rolled back wellness check-in",
		slog.String("temp_id", tempID),
		slog.Bool("removed", removed),
	)

	return nil
}

func (c *WellnessCoordinator) unsplice(tempID string) {
	value, ok := c.cache.Data(models.WellnessHistoryRegion)
	if !ok {
		return
	}

	history, isHistory := value.(models.WellnessHistory)
	if !isHistory {
		return
	}

	entries := make([]models.WellnessCheckIn, 0, len(history.Entries))

	var removed bool

	for _, entry := range history.Entries {
		if entry.ID == tempID {
			removed = true
			continue
		}

		entries = append(entries, entry)
	}

	if !removed {
		return
	}

	history.Entries = entries
	if history.TotalEntries > 0 {
		history.TotalEntries--
	}

	c.cache.SetData(models.WellnessHistoryRegion, history)
}

// Submit stages the check-in and submits it through the executor under the
// given policy, confirming on success and rolling back on terminal failure.
// When ctx is canceled mid-flight neither happens: the record stays unsynced
// and sweep-eligible.
func (c *WellnessCoordinator) Submit(
	ctx context.Context,
	input models.WellnessCheckInInput,
	policy *models.RetryPolicy,
) (models.WellnessCheckIn, error) {
	staged, err := c.Stage(ctx, input)
	if err != nil {
		return models.WellnessCheckIn{}, err
	}

	canonical, err := ExecuteValue(ctx, c.executor, func(ctx context.Context) (models.WellnessCheckIn, error) {
		return c.api.SubmitCheckIn(ctx, staged)
	}, policy)
	if err != nil {
		if ctx.Err() != nil {
			return models.WellnessCheckIn{}, ctx.Err()
		}

		if rbErr := c.Rollback(ctx, staged.ID); rbErr != nil {
			c.logger.Warn("rollback failed",
				slog.String("temp_id", staged.ID),
				slog.Any("err", rbErr),
			)
		}

		return models.WellnessCheckIn{}, err
	}

	if err := c.Confirm(ctx, staged.ID, canonical); err != nil {
		return models.WellnessCheckIn{}, err
	}

	return canonical.WithSynced(true), nil
}

// sync replays a staged check-in from the queue: one API call, then confirm.
func (c *WellnessCoordinator) sync(ctx context.Context, staged models.WellnessCheckIn) error {
	canonical, err := c.api.SubmitCheckIn(ctx, staged)
	if err != nil {
		return err
	}

	return c.Confirm(ctx, staged.ID, canonical)
}
