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
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ruh-app/offline-go/encoding"
	"github.com/ruh-app/offline-go/internal/logging"
	"github.com/ruh-app/offline-go/internal/metrics"
	"github.com/ruh-app/offline-go/models"
)

// Client is the main entry point for the offline package. It owns the
// resilience core for one app process: the connectivity monitor, the retry
// executor, the retry queue, the persisted stores and the optimistic
// coordinators, all wired together over the supplied boundaries.
// Example usage:
//
//	storage, err := offline.NewStorageLocal(dataDir) // or the platform's engine
//	if err != nil {
//		// handle error
//	}
//
//	client, err := offline.NewClient(storage, queryCache, apiClient,
//		offline.WithID("app"),
//	)
//	if err != nil {
//		// handle error
//	}
//	defer client.Close()
//
//	// platform glue feeds the raw connectivity signal
//	client.Monitor().Report(netInfo.IsConnected())
//
//	// optimistic send with retries
//	msg, err := client.Chat().Send(ctx, input, models.NewStandardRetryPolicy())
//
//	// or stage and let the queue drain it in the background
//	msg, err = client.SendMessageDeferred(ctx, input, nil)
type Client struct {
	storage Storage
	cache   QueryCache
	api     APIClient

	logger  *slog.Logger
	id      string
	codec   encoding.Codec
	metrics *metrics.Collector

	monitor  *ConnectivityMonitor
	executor *RetryExecutor
	queue    *RetryQueue

	chatStore     *ChatStore
	wellnessStore *WellnessStore
	favoriteStore *FavoriteStore

	chat      *ChatCoordinator
	wellness  *WellnessCoordinator
	favorites *FavoriteCoordinator
	runner    *Runner

	monitorOpts  []MonitorOpt
	executorOpts []ExecutorOpt
	queueOpts    []QueueOpt

	reconcileOnConnect bool
	activityInterval   time.Duration

	ctx            context.Context
	cancel         context.CancelFunc
	reconcileUnsub func()
	closeOnce      sync.Once
}

// ClientOpt is a functional option that allows configuring the [Client].
type ClientOpt func(*Client)

// WithID sets the ID for the [Client].
// This ID is used for logging purposes.
func WithID(id string) ClientOpt {
	return func(c *Client) {
		c.id = id
	}
}

// WithLogger sets the logger for the [Client] and everything it constructs.
func WithLogger(logger *slog.Logger) ClientOpt {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCodec sets the blob codec used by the persisted collections.
func WithCodec(codec encoding.Codec) ClientOpt {
	return func(c *Client) {
		c.codec = codec
	}
}

// WithMonitorOptions forwards options to the constructed [ConnectivityMonitor].
func WithMonitorOptions(opts ...MonitorOpt) ClientOpt {
	return func(c *Client) {
		c.monitorOpts = append(c.monitorOpts, opts...)
	}
}

// WithExecutorOptions forwards options to the constructed [RetryExecutor].
func WithExecutorOptions(opts ...ExecutorOpt) ClientOpt {
	return func(c *Client) {
		c.executorOpts = append(c.executorOpts, opts...)
	}
}

// WithQueueOptions forwards options to the constructed [RetryQueue].
func WithQueueOptions(opts ...QueueOpt) ClientOpt {
	return func(c *Client) {
		c.queueOpts = append(c.queueOpts, opts...)
	}
}

// WithReconcileOnConnect re-runs [Client.Reconcile] on every disconnected to
// connected transition.
func WithReconcileOnConnect() ClientOpt {
	return func(c *Client) {
		c.reconcileOnConnect = true
	}
}

// WithActivityLogInterval logs the activity counters at debug level every
// interval until the client is closed.
func WithActivityLogInterval(interval time.Duration) ClientOpt {
	return func(c *Client) {
		c.activityInterval = interval
	}
}

// NewClient creates a new offline client over the three app boundaries.
//   - storage is the persisted key-value engine records live in.
//   - cache is the UI's query cache the coordinators splice into.
//   - api is the network client staged records sync through.
//
// options:
//   - [WithID] to set an identifier for the client.
//   - [WithLogger] to set a logger that this client will log to.
//   - [WithCodec] to change the collection blob codec.
//   - [WithMonitorOptions], [WithExecutorOptions], [WithQueueOptions] to
//     forward options to the constructed components.
//   - [WithReconcileOnConnect] to re-enqueue unsynced records on reconnect.
//   - [WithActivityLogInterval] to periodically log activity counters.
func NewClient(storage Storage, cache QueryCache, api APIClient, opts ...ClientOpt) (*Client, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}

	if cache == nil {
		return nil, errors.New("query cache is required")
	}

	if api == nil {
		return nil, errors.New("api client is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize the Client with default values
	client := &Client{
		storage: storage,
		cache:   cache,
		api:     api,
		logger:  slog.Default(),
		codec:   encoding.NewJSONCodec(),
		metrics: metrics.NewCollector(),
		// #nosec G404
		id:     strconv.Itoa(rand.Intn(1000)),
		ctx:    ctx,
		cancel: cancel,
	}

	// Apply all options to the Client
	for _, opt := range opts {
		opt(client)
	}

	// Further customization after applying options
	client.logger = client.logger.WithGroup("offline")
	client.logger = logging.WithClient(client.logger, client.id)

	if err := client.buildComponents(); err != nil {
		cancel()
		return nil, err
	}

	if client.reconcileOnConnect {
		client.reconcileUnsub = client.monitor.OnChange(func(connected bool) {
			if !connected {
				return
			}

			go func() {
				if _, err := client.Reconcile(client.ctx); err != nil {
					client.logger.Warn("reconcile on connect failed", slog.Any("err", err))
				}
			}()
		})
	}

	if client.activityInterval > 0 {
		go client.metrics.Report(client.ctx, client.logger, client.activityInterval)
	}

	return client, nil
}

func (c *Client) buildComponents() error {
	monitorOpts := append([]MonitorOpt{
		WithMonitorLogger(c.logger),
		WithMonitorID(c.id),
	}, c.monitorOpts...)

	c.monitor = NewConnectivityMonitor(monitorOpts...)

	executorOpts := append([]ExecutorOpt{
		WithExecutorLogger(c.logger),
		WithExecutorID(c.id),
		WithExecutorMetrics(c.metrics),
	}, c.executorOpts...)

	executor, err := NewRetryExecutor(c.monitor, executorOpts...)
	if err != nil {
		return fmt.Errorf("failed to create retry executor: %w", err)
	}

	c.executor = executor

	collOpts := []CollectionOpt{
		WithCollectionLogger(c.logger),
		WithCollectionCodec(c.codec),
	}

	if c.chatStore, err = NewChatStore(c.storage, collOpts...); err != nil {
		return fmt.Errorf("failed to create chat store: %w", err)
	}

	if c.wellnessStore, err = NewWellnessStore(c.storage, collOpts...); err != nil {
		return fmt.Errorf("failed to create wellness store: %w", err)
	}

	if c.favoriteStore, err = NewFavoriteStore(c.storage, collOpts...); err != nil {
		return fmt.Errorf("failed to create favorite store: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	coordOpts := []CoordinatorOpt{
		WithCoordinatorLogger(c.logger),
		WithCoordinatorValidator(validate),
	}

	if c.chat, err = NewChatCoordinator(c.chatStore, c.cache, c.api, c.executor, coordOpts...); err != nil {
		return fmt.Errorf("failed to create chat coordinator: %w", err)
	}

	if c.wellness, err = NewWellnessCoordinator(c.wellnessStore, c.cache, c.api, c.executor, coordOpts...); err != nil {
		return fmt.Errorf("failed to create wellness coordinator: %w", err)
	}

	if c.favorites, err = NewFavoriteCoordinator(c.favoriteStore, c.cache, c.api, c.executor, coordOpts...); err != nil {
		return fmt.Errorf("failed to create favorite coordinator: %w", err)
	}

	if c.runner, err = NewRunner(c.chat, c.wellness, c.favorites); err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	queueOpts := append([]QueueOpt{
		WithQueueLogger(c.logger),
		WithQueueID(c.id),
		WithQueueMetrics(c.metrics),
	}, c.queueOpts...)

	if c.queue, err = NewRetryQueue(c.monitor, c.executor, c.runner, queueOpts...); err != nil {
		return fmt.Errorf("failed to create retry queue: %w", err)
	}

	return nil
}

// Close stops the queue's drain trigger subscription and every background
// goroutine the client started. Pending queue items are lost, staged records
// stay persisted for the next session's Reconcile.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.reconcileUnsub != nil {
			c.reconcileUnsub()
		}

		c.queue.Close()
		c.cancel()
	})
}

// Monitor returns the connectivity monitor, for the platform glue to feed
// and the UI to observe.
func (c *Client) Monitor() *ConnectivityMonitor {
	return c.monitor
}

// Executor returns the retry executor for ad-hoc retried operations.
func (c *Client) Executor() *RetryExecutor {
	return c.executor
}

// Queue returns the background retry queue.
func (c *Client) Queue() *RetryQueue {
	return c.queue
}

// ChatStore returns the persisted chat message collection.
func (c *Client) ChatStore() *ChatStore {
	return c.chatStore
}

// WellnessStore returns the persisted check-in collection.
func (c *Client) WellnessStore() *WellnessStore {
	return c.wellnessStore
}

// FavoriteStore returns the persisted favorites collection.
func (c *Client) FavoriteStore() *FavoriteStore {
	return c.favoriteStore
}

// Chat returns the chat coordinator.
func (c *Client) Chat() *ChatCoordinator {
	return c.chat
}

// Wellness returns the wellness coordinator.
func (c *Client) Wellness() *WellnessCoordinator {
	return c.wellness
}

// Favorites returns the favorites coordinator.
func (c *Client) Favorites() *FavoriteCoordinator {
	return c.favorites
}

// Activity returns a snapshot of the activity counters.
func (c *Client) Activity() metrics.Snapshot {
	return c.metrics.Snapshot()
}

// SendMessageDeferred stages the message and queues its send for background
// drain under the given policy (nil means the queue's default). The staged
// record is returned immediately and stays unsynced until the queue
// confirms it.
func (c *Client) SendMessageDeferred(
	ctx context.Context,
	input models.ChatMessageInput,
	policy *models.RetryPolicy,
) (models.ChatMessage, error) {
	staged, err := c.chat.Stage(ctx, input)
	if err != nil {
		return models.ChatMessage{}, err
	}

	op, err := models.NewChatSendOperation(staged)
	if err != nil {
		return models.ChatMessage{}, err
	}

	if _, err := c.queue.Enqueue(staged.ID, op, policy); err != nil {
		return models.ChatMessage{}, err
	}

	return staged, nil
}

// SubmitCheckInDeferred stages the check-in and queues its submission for
// background drain under the given policy.
func (c *Client) SubmitCheckInDeferred(
	ctx context.Context,
	input models.WellnessCheckInInput,
	policy *models.RetryPolicy,
) (models.WellnessCheckIn, error) {
	staged, err := c.wellness.Stage(ctx, input)
	if err != nil {
		return models.WellnessCheckIn{}, err
	}

	op, err := models.NewWellnessSubmitOperation(staged)
	if err != nil {
		return models.WellnessCheckIn{}, err
	}

	if _, err := c.queue.Enqueue(staged.ID, op, policy); err != nil {
		return models.WellnessCheckIn{}, err
	}

	return staged, nil
}

// FavoriteVerseDeferred stages the favorite and queues it for background
// drain under the given policy. Favoriting an already stored verse returns
// the existing record without queueing anything.
func (c *Client) FavoriteVerseDeferred(
	ctx context.Context,
	input models.FavoriteVerseInput,
	policy *models.RetryPolicy,
) (models.FavoriteVerse, error) {
	staged, fresh, err := c.favorites.Stage(ctx, input)
	if err != nil {
		return models.FavoriteVerse{}, err
	}

	if !fresh {
		return staged, nil
	}

	op, err := models.NewVerseFavoriteOperation(staged)
	if err != nil {
		return models.FavoriteVerse{}, err
	}

	if _, err := c.queue.Enqueue(staged.ID, op, policy); err != nil {
		return models.FavoriteVerse{}, err
	}

	return staged, nil
}
