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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ruh-app/offline-go/internal/logging"
	"github.com/ruh-app/offline-go/internal/metrics"
	"github.com/ruh-app/offline-go/models"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// defaultDrainInterval paces the drain loop between items.
	defaultDrainInterval = 100 * time.Millisecond
	// defaultDropLogSize bounds the drop log kept for Status.
	defaultDropLogSize = 50
)

// queueItem is one pending operation. Membership is unique by id; attempts
// only ever grows within an item's lifetime.
type queueItem struct {
	id            string
	op            models.Operation
	policy        *models.RetryPolicy
	attempts      uint
	enqueuedAt    time.Time
	lastAttemptAt time.Time
}

// RetryQueue holds deferred operations and drains them through the executor
// whenever connectivity allows. At most one drain loop runs at a time.
type RetryQueue struct {
	monitor  *ConnectivityMonitor
	executor *RetryExecutor
	runner   OperationRunner
	logger   *slog.Logger
	metrics  *metrics.Collector
	id       string

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	closeOnce   sync.Once

	// sem admits a single drain loop; processing mirrors it for Status.
	sem        *semaphore.Weighted
	processing atomic.Bool
	// limiter paces drain iterations so a burst of queued work cannot
	// starve the caller's thread.
	limiter *rate.Limiter

	defaultPolicy *models.RetryPolicy
	dropLogSize   int

	mu    sync.Mutex
	order []*queueItem
	byID  map[string]*queueItem
	drops []models.DropRecord
}

// QueueOpt is a functional option that allows configuring the [RetryQueue].
type QueueOpt func(*RetryQueue)

// WithQueueLogger sets the logger for the [RetryQueue].
func WithQueueLogger(logger *slog.Logger) QueueOpt {
	return func(q *RetryQueue) {
		q.logger = logger
	}
}

// WithQueueID sets the ID for the [RetryQueue].
// This ID is used for logging purposes.
func WithQueueID(id string) QueueOpt {
	return func(q *RetryQueue) {
		q.id = id
	}
}

// WithQueueMetrics sets the activity collector for the [RetryQueue].
func WithQueueMetrics(collector *metrics.Collector) QueueOpt {
	return func(q *RetryQueue) {
		q.metrics = collector
	}
}

// WithQueuePolicy sets the policy used when Enqueue receives a nil one.
func WithQueuePolicy(policy *models.RetryPolicy) QueueOpt {
	return func(q *RetryQueue) {
		q.defaultPolicy = policy
	}
}

// WithDrainInterval sets the pacing delay between drain iterations.
func WithDrainInterval(d time.Duration) QueueOpt {
	return func(q *RetryQueue) {
		if d > 0 {
			q.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithDropLogSize bounds how many drop records Status keeps.
func WithDropLogSize(n int) QueueOpt {
	return func(q *RetryQueue) {
		if n > 0 {
			q.dropLogSize = n
		}
	}
}

// NewRetryQueue creates a new retry queue. Drains trigger on Enqueue while
// connected and on every disconnected to connected transition; Close drops
// the transition subscription.
//
// options:
//   - [WithQueueLogger] to set a logger that the queue will log to.
//   - [WithQueueID] to set an identifier for the queue.
//   - [WithQueueMetrics] to count queue activity.
//   - [WithQueuePolicy] to set the policy for Enqueue calls without one.
//   - [WithDrainInterval] to change the pacing between drain iterations.
//   - [WithDropLogSize] to bound the drop log.
func NewRetryQueue(
	monitor *ConnectivityMonitor,
	executor *RetryExecutor,
	runner OperationRunner,
	opts ...QueueOpt,
) (*RetryQueue, error) {
	if monitor == nil {
		return nil, errors.New("connectivity monitor is required")
	}

	if executor == nil {
		return nil, errors.New("retry executor is required")
	}

	if runner == nil {
		return nil, errors.New("operation runner is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &RetryQueue{
		monitor:       monitor,
		executor:      executor,
		runner:        runner,
		logger:        logging.NewDefault(),
		id:            uuid.NewString(),
		ctx:           ctx,
		cancel:        cancel,
		sem:           semaphore.NewWeighted(1),
		limiter:       rate.NewLimiter(rate.Every(defaultDrainInterval), 1),
		defaultPolicy: models.NewBackgroundRetryPolicy(),
		dropLogSize:   defaultDropLogSize,
		byID:          make(map[string]*queueItem),
	}

	for _, opt := range opts {
		opt(q)
	}

	q.logger = logging.WithQueue(q.logger, q.id)

	q.unsubscribe = monitor.OnChange(func(connected bool) {
		if connected && q.Len() > 0 {
			q.triggerDrain()
		}
	})

	return q, nil
}

// Enqueue adds an operation under the given id, replacing any pending item
// with the same id. An empty id gets a generated one. A nil policy means the
// queue's default. Returns the id actually used.
func (q *RetryQueue) Enqueue(id string, op models.Operation, policy *models.RetryPolicy) (string, error) {
	if err := op.Validate(); err != nil {
		return "", fmt.Errorf("failed to validate operation: %w", err)
	}

	if id == "" {
		id = uuid.NewString()
	}

	policy = q.getUsablePolicy(policy)
	if err := policy.Validate(); err != nil {
		return "", fmt.Errorf("invalid retry policy: %w", err)
	}

	item := &queueItem{
		id:         id,
		op:         op,
		policy:     policy,
		enqueuedAt: time.Now(),
	}

	q.mu.Lock()

	if existing, ok := q.byID[id]; ok {
		// Last writer wins; the replacement keeps the queue position and
		// starts its attempts over.
		*existing = *item
	} else {
		q.byID[id] = item
		q.order = append(q.order, item)
	}

	q.mu.Unlock()

	q.metrics.IncEnqueued()
	q.logger.Debug("operation enqueued",
		slog.String("id", id),
		slog.String("kind", string(op.Kind)),
	)

	if q.monitor.IsConnected() {
		q.triggerDrain()
	}

	return id, nil
}

// Status returns a snapshot of the queue: pending items in drain order, the
// processing flag, and the recent drop log.
func (q *RetryQueue) Status() models.QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]models.ItemStatus, 0, len(q.order))
	for _, item := range q.order {
		items = append(items, models.ItemStatus{
			ID:         item.id,
			Kind:       item.op.Kind,
			Attempts:   item.attempts,
			MaxRetries: item.policy.MaxRetries,
		})
	}

	drops := make([]models.DropRecord, len(q.drops))
	copy(drops, q.drops)

	return models.QueueStatus{
		Length:     len(q.order),
		Processing: q.processing.Load(),
		Items:      items,
		Drops:      drops,
	}
}

// Len returns the number of pending items.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.order)
}

// Clear removes all pending items. The drop log is kept.
func (q *RetryQueue) Clear() {
	q.mu.Lock()
	cleared := len(q.order)
	q.order = nil
	q.byID = make(map[string]*queueItem)
	q.mu.Unlock()

	q.logger.Debug("queue cleared", slog.Int("items", cleared))
}

// Close stops reacting to connectivity transitions and cancels any running
// drain. Pending items stay in memory until the process exits.
func (q *RetryQueue) Close() {
	q.closeOnce.Do(func() {
		q.unsubscribe()
		q.cancel()
	})
}

// triggerDrain starts the drain loop unless one is already running.
func (q *RetryQueue) triggerDrain() {
	if !q.sem.TryAcquire(1) {
		return
	}

	go func() {
		defer q.sem.Release(1)
		q.drain(q.ctx)
	}()
}

// drain processes items until the queue is empty, connectivity is lost, or
// ctx is done. Items are taken from the head; failing items go back to the
// tail so one stuck operation cannot block the rest.
func (q *RetryQueue) drain(ctx context.Context) {
	q.processing.Store(true)
	defer q.processing.Store(false)

	for {
		if ctx.Err() != nil {
			return
		}

		if !q.monitor.IsConnected() {
			q.logger.Debug("drain paused while offline", slog.Int("pending", q.Len()))
			return
		}

		if q.Len() == 0 {
			return
		}

		if err := q.limiter.Wait(ctx); err != nil {
			return
		}

		item, ok := q.pop()
		if !ok {
			return
		}

		q.runItem(ctx, item)
	}
}

// runItem runs one drain pass for the item. The executor contributes the
// connectivity gate and error classification only; the queue owns the outer
// attempts bookkeeping, so the pass is a single-attempt policy.
func (q *RetryQueue) runItem(ctx context.Context, item *queueItem) {
	single := &models.RetryPolicy{
		Multiplier:  1,
		ShouldRetry: item.policy.ShouldRetry,
	}

	err := q.executor.Execute(ctx, func(ctx context.Context) error {
		return q.runner.Run(ctx, item.op)
	}, single)
	if err == nil {
		q.metrics.IncDrained()
		q.logger.Debug("operation drained",
			slog.String("id", item.id),
			slog.String("kind", string(item.op.Kind)),
		)

		return
	}

	if ctx.Err() != nil {
		// Canceled mid-pass; the item goes back untouched.
		q.pushFront(item)
		return
	}

	item.attempts++
	item.lastAttemptAt = time.Now()

	switch {
	case !item.policy.Retryable(err):
		q.drop(item, err, "non-retryable")
	case item.attempts >= item.policy.MaxRetries:
		q.drop(item, err, "retries exhausted")
	default:
		q.metrics.IncRequeued()
		q.logger.Debug("operation requeued",
			slog.String("id", item.id),
			slog.Uint64("attempts", uint64(item.attempts)),
			slog.Any("err", err),
		)
		q.pushBack(item)
	}
}

// pop removes and returns the head item.
func (q *RetryQueue) pop() (*queueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return nil, false
	}

	item := q.order[0]
	q.order = q.order[1:]
	delete(q.byID, item.id)

	return item, true
}

func (q *RetryQueue) pushBack(item *queueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.byID[item.id]; ok {
		// Re-enqueued while in flight; the newer item wins.
		return
	}

	q.byID[item.id] = item
	q.order = append(q.order, item)
}

func (q *RetryQueue) pushFront(item *queueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.byID[item.id]; ok {
		return
	}

	q.byID[item.id] = item
	q.order = append([]*queueItem{item}, q.order...)
}

// drop records the item in the bounded drop log. Drops are terminal queue
// events, never errors thrown to a caller; the matching offline record stays
// unsynced until someone re-enqueues it.
func (q *RetryQueue) drop(item *queueItem, cause error, reason string) {
	record := models.DropRecord{
		ItemID:    item.id,
		Kind:      item.op.Kind,
		Attempts:  item.attempts,
		Reason:    reason,
		DroppedAt: time.Now(),
	}

	q.mu.Lock()

	q.drops = append(q.drops, record)
	if len(q.drops) > q.dropLogSize {
		q.drops = q.drops[len(q.drops)-q.dropLogSize:]
	}

	q.mu.Unlock()

	q.metrics.IncDropped()
	q.logger.Warn("dropping operation",
		slog.String("id", item.id),
		slog.String("kind", string(item.op.Kind)),
		slog.Uint64("attempts", uint64(item.attempts)),
		slog.String("reason", reason),
		slog.Any("err", cause),
	)
}

func (q *RetryQueue) getUsablePolicy(p *models.RetryPolicy) *models.RetryPolicy {
	if p == nil {
		cp := *q.defaultPolicy
		return &cp
	}

	return p
}
