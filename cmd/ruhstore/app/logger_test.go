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

package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid level", func(t *testing.T) {
		logger, err := NewLogger("bogus", true, false)
		require.ErrorContains(t, err, "invalid log level")
		require.Nil(t, logger)
	})

	t.Run("Verbose debug level", func(t *testing.T) {
		logger, err := NewLogger("debug", true, false)
		require.NoError(t, err)
		assert.True(t, logger.Enabled(ctx, slog.LevelDebug))
	})

	t.Run("Non-verbose defaults to warn", func(t *testing.T) {
		// The level flag is ignored without the verbose flag.
		logger, err := NewLogger("debug", false, false)
		require.NoError(t, err)
		assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
		assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
	})

	t.Run("JSON handler", func(t *testing.T) {
		logger, err := NewLogger("info", true, true)
		require.NoError(t, err)
		require.IsType(t, &slog.JSONHandler{}, logger.Handler())
	})

	t.Run("Text handler", func(t *testing.T) {
		logger, err := NewLogger("info", true, false)
		require.NoError(t, err)
		require.IsType(t, &slog.TextHandler{}, logger.Handler())
	})
}
