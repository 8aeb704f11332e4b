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
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ruh-app/offline-go/internal/logging"
	"github.com/ruh-app/offline-go/models"
)

// tempIDPrefix marks record ids that were assigned locally during staging.
const tempIDPrefix = "temp-"

// NewTempID returns a fresh id for a staged record.
func NewTempID() string {
	return tempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was assigned locally during staging.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// coordinatorConfig carries the optional pieces shared by all coordinators.
type coordinatorConfig struct {
	logger   *slog.Logger
	validate *validator.Validate
}

// CoordinatorOpt is a functional option that allows configuring a coordinator.
type CoordinatorOpt func(*coordinatorConfig)

// WithCoordinatorLogger sets the logger for a coordinator.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOpt {
	return func(cfg *coordinatorConfig) {
		cfg.logger = logger
	}
}

// WithCoordinatorValidator sets the input validator for a coordinator.
// Client wires one shared instance into all three coordinators.
func WithCoordinatorValidator(validate *validator.Validate) CoordinatorOpt {
	return func(cfg *coordinatorConfig) {
		cfg.validate = validate
	}
}

// snapshotEntry is the pre-stage cache state of one region.
type snapshotEntry struct {
	region models.Region
	value  any
	// existed distinguishes "region held this value" from "region was empty".
	existed bool
}

// snapshotBook remembers pre-stage cache values keyed by the staged record's
// temp id, so rollback can put a region back exactly as it was.
type snapshotBook struct {
	mu      sync.Mutex
	entries map[string]snapshotEntry
}

func newSnapshotBook() *snapshotBook {
	return &snapshotBook{entries: make(map[string]snapshotEntry)}
}

func (b *snapshotBook) remember(tempID string, entry snapshotEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[tempID] = entry
}

// take removes and returns the entry for tempID.
func (b *snapshotBook) take(tempID string) (snapshotEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[tempID]
	if ok {
		delete(b.entries, tempID)
	}

	return entry, ok
}

func (b *snapshotBook) forget(tempID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.entries, tempID)
}

// Runner dispatches queued operations to the domain coordinators. It is the
// OperationRunner the retry queue drains through: decode the payload by
// kind, replay the API call, confirm on success. Terminal queue failures
// never roll records back; they stay unsynced until reconciled.
type Runner struct {
	chat      *ChatCoordinator
	wellness  *WellnessCoordinator
	favorites *FavoriteCoordinator
}

// NewRunner creates the queue runner over the three domain coordinators.
func NewRunner(chat *ChatCoordinator, wellness *WellnessCoordinator, favorites *FavoriteCoordinator) (*Runner, error) {
	if chat == nil || wellness == nil || favorites == nil {
		return nil, errors.New("all domain coordinators are required")
	}

	return &Runner{
		chat:      chat,
		wellness:  wellness,
		favorites: favorites,
	}, nil
}

// Run executes one queued operation.
func (r *Runner) Run(ctx context.Context, op models.Operation) error {
	switch op.Kind {
	case models.OperationChatSend:
		var msg models.ChatMessage
		if err := op.Decode(&msg); err != nil {
			return err
		}

		return r.chat.sync(ctx, msg)
	case models.OperationWellnessSubmit:
		var checkIn models.WellnessCheckIn
		if err := op.Decode(&checkIn); err != nil {
			return err
		}

		return r.wellness.sync(ctx, checkIn)
	case models.OperationVerseFavorite:
		var verse models.FavoriteVerse
		if err := op.Decode(&verse); err != nil {
			return err
		}

		return r.favorites.sync(ctx, verse)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

func newCoordinatorConfig(opts []CoordinatorOpt) coordinatorConfig {
	cfg := coordinatorConfig{}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = logging.NewDefault()
	}

	if cfg.validate == nil {
		cfg.validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return cfg
}
