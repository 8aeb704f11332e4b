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

package logging

import (
	"io"
	"log/slog"
)

// NewDefault returns a logger that discards everything. Components use it
// when the caller did not supply one.
func NewDefault() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func WithClient(logger *slog.Logger, id string) *slog.Logger {
	group := slog.Group("client", "id", id)
	return logger.With(group)
}

func WithMonitor(logger *slog.Logger, id string) *slog.Logger {
	group := slog.Group("monitor", "id", id)
	return logger.With(group)
}

func WithExecutor(logger *slog.Logger, id string) *slog.Logger {
	group := slog.Group("executor", "id", id)
	return logger.With(group)
}

func WithQueue(logger *slog.Logger, id string) *slog.Logger {
	group := slog.Group("queue", "id", id)
	return logger.With(group)
}

// StoreType names the domain behind a record store.
type StoreType string

const (
	StoreTypeUnknown   StoreType = "unknown"
	StoreTypeChat      StoreType = "chat"
	StoreTypeWellness  StoreType = "wellness"
	StoreTypeFavorites StoreType = "favorites"
)

func WithStore(logger *slog.Logger, key string, storeType StoreType) *slog.Logger {
	group := slog.Group("store", "key", key, "type", storeType)
	return logger.With(group)
}

func WithCoordinator(logger *slog.Logger, id string, storeType StoreType) *slog.Logger {
	group := slog.Group("coordinator", "id", id, "type", storeType)
	return logger.With(group)
}

func WithTool(logger *slog.Logger, name, version string) *slog.Logger {
	group := slog.Group("tool", "name", name, "version", version)
	return logger.With(group)
}
