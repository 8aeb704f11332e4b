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

package metrics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Collector tracks offline-core activity with atomic counters.
// A nil *Collector is valid and counts nothing.
type Collector struct {
	// executions counts Execute calls started.
	executions atomic.Uint64
	// attempts counts operation invocations, including the first one.
	attempts atomic.Uint64
	// retries counts backoff delays taken between attempts.
	retries atomic.Uint64
	// waits counts connectivity waits that actually blocked.
	waits atomic.Uint64
	// enqueued counts items accepted by the retry queue.
	enqueued atomic.Uint64
	// drained counts items the queue completed successfully.
	drained atomic.Uint64
	// requeued counts items sent back to the tail after a failed pass.
	requeued atomic.Uint64
	// dropped counts items the queue gave up on.
	dropped atomic.Uint64
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Executions uint64
	Attempts   uint64
	Retries    uint64
	Waits      uint64
	Enqueued   uint64
	Drained    uint64
	Requeued   uint64
	Dropped    uint64
}

func (c *Collector) IncExecutions() {
	if c == nil {
		return
	}

	c.executions.Add(1)
}

func (c *Collector) IncAttempts() {
	if c == nil {
		return
	}

	c.attempts.Add(1)
}

func (c *Collector) IncRetries() {
	if c == nil {
		return
	}

	c.retries.Add(1)
}

func (c *Collector) IncWaits() {
	if c == nil {
		return
	}

	c.waits.Add(1)
}

func (c *Collector) IncEnqueued() {
	if c == nil {
		return
	}

	c.enqueued.Add(1)
}

func (c *Collector) IncDrained() {
	if c == nil {
		return
	}

	c.drained.Add(1)
}

func (c *Collector) IncRequeued() {
	if c == nil {
		return
	}

	c.requeued.Add(1)
}

func (c *Collector) IncDropped() {
	if c == nil {
		return
	}

	c.dropped.Add(1)
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}

	return Snapshot{
		Executions: c.executions.Load(),
		Attempts:   c.attempts.Load(),
		Retries:    c.retries.Load(),
		Waits:      c.waits.Load(),
		Enqueued:   c.enqueued.Load(),
		Drained:    c.drained.Load(),
		Requeued:   c.requeued.Load(),
		Dropped:    c.dropped.Load(),
	}
}

// Report logs the counters at debug level every interval until ctx is done.
func (c *Collector) Report(ctx context.Context, logger *slog.Logger, interval time.Duration) {
	if c == nil || logger == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s := c.Snapshot()
			logger.Debug("offline activity",
				slog.Uint64("executions", s.Executions),
				slog.Uint64("attempts", s.Attempts),
				slog.Uint64("retries", s.Retries),
				slog.Uint64("waits", s.Waits),
				slog.Uint64("enqueued", s.Enqueued),
				slog.Uint64("drained", s.Drained),
				slog.Uint64("requeued", s.Requeued),
				slog.Uint64("dropped", s.Dropped),
			)
		case <-ctx.Done():
			return
		}
	}
}
