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

	"github.com/google/uuid"
	"github.com/ruh-app/offline-go/internal/logging"
	"github.com/ruh-app/offline-go/internal/metrics"
	"github.com/ruh-app/offline-go/models"
)

// defaultConnectivityWait bounds the pre-attempt wait for connectivity.
const defaultConnectivityWait = 30 * time.Second

// OperationFunc is one retryable unit of work. Implementations must honor
// ctx at their own blocking points.
type OperationFunc func(ctx context.Context) error

// RetryExecutor runs operations under a retry policy, gating each attempt on
// connectivity. It is the single place backoff lives; the queue and the
// coordinators never duplicate it.
type RetryExecutor struct {
	monitor *ConnectivityMonitor
	logger  *slog.Logger
	metrics *metrics.Collector
	id      string
	// connectivityWait bounds how long a single attempt waits for
	// connectivity before failing with models.ErrNetworkUnavailable.
	connectivityWait time.Duration
}

// ExecutorOpt is a functional option that allows configuring the [RetryExecutor].
type ExecutorOpt func(*RetryExecutor)

// WithExecutorLogger sets the logger for the [RetryExecutor].
func WithExecutorLogger(logger *slog.Logger) ExecutorOpt {
	return func(e *RetryExecutor) {
		e.logger = logger
	}
}

// WithExecutorID sets the ID for the [RetryExecutor].
// This ID is used for logging purposes.
func WithExecutorID(id string) ExecutorOpt {
	return func(e *RetryExecutor) {
		e.id = id
	}
}

// WithConnectivityWait sets the per-attempt connectivity wait bound for the
// [RetryExecutor].
func WithConnectivityWait(d time.Duration) ExecutorOpt {
	return func(e *RetryExecutor) {
		e.connectivityWait = d
	}
}

// WithExecutorMetrics sets the activity collector for the [RetryExecutor].
func WithExecutorMetrics(collector *metrics.Collector) ExecutorOpt {
	return func(e *RetryExecutor) {
		e.metrics = collector
	}
}

// NewRetryExecutor creates a new retry executor bound to the given monitor.
//
// options:
//   - [WithExecutorLogger] to set a logger that the executor will log to.
//   - [WithExecutorID] to set an identifier for the executor.
//   - [WithConnectivityWait] to bound the per-attempt connectivity wait.
//   - [WithExecutorMetrics] to count executor activity.
func NewRetryExecutor(monitor *ConnectivityMonitor, opts ...ExecutorOpt) (*RetryExecutor, error) {
	if monitor == nil {
		return nil, errors.New("connectivity monitor is required")
	}

	e := &RetryExecutor{
		monitor:          monitor,
		logger:           logging.NewDefault(),
		id:               uuid.NewString(),
		connectivityWait: defaultConnectivityWait,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = logging.WithExecutor(e.logger, e.id)

	return e, nil
}

// Execute runs op until it succeeds, its policy gives up, or ctx is done.
// Total invocations of op never exceed policy.MaxRetries+1. A nil policy
// means the standard preset. Terminal failures come back wrapped with the
// attempt count; cancellation comes back as the bare ctx error.
func (e *RetryExecutor) Execute(ctx context.Context, op OperationFunc, policy *models.RetryPolicy) error {
	policy = e.getUsablePolicy(policy)
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}

	e.metrics.IncExecutions()

	totalAttempts := policy.MaxRetries + 1

	var lastErr error

	for attempt := uint(1); attempt <= totalAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = e.attempt(ctx, op)
		if lastErr == nil {
			return nil
		}

		// Cancellation wins over classification, and skips OnRetry.
		if err := ctx.Err(); err != nil {
			return err
		}

		if !policy.Retryable(lastErr) || attempt == totalAttempts {
			return fmt.Errorf("failed after %d attempts: %w", attempt, lastErr)
		}

		delay := policy.Delay(attempt)

		e.logger.Debug("retrying operation",
			slog.Uint64("attempt", uint64(attempt)),
			slog.Duration("delay", delay),
			slog.Any("err", lastErr),
		)

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, lastErr)
		}

		e.metrics.IncRetries()

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// attempt gates one attempt on connectivity, then runs op.
func (e *RetryExecutor) attempt(ctx context.Context, op OperationFunc) error {
	if !e.monitor.IsConnected() {
		e.metrics.IncWaits()

		if !e.monitor.WaitForConnection(ctx, e.connectivityWait) {
			return models.ErrNetworkUnavailable
		}
	}

	e.metrics.IncAttempts()

	return op(ctx)
}

// WithRetry returns a decorator that wraps operations with the given policy.
func (e *RetryExecutor) WithRetry(policy *models.RetryPolicy) func(op OperationFunc) OperationFunc {
	return func(op OperationFunc) OperationFunc {
		return func(ctx context.Context) error {
			return e.Execute(ctx, op, policy)
		}
	}
}

func (e *RetryExecutor) getUsablePolicy(p *models.RetryPolicy) *models.RetryPolicy {
	if p == nil {
		dp := models.NewDefaultRetryPolicy()
		cp := *dp

		return &cp
	}

	return p
}

// ExecuteValue runs a value-returning operation through ex under the policy.
func ExecuteValue[T any](
	ctx context.Context,
	ex *RetryExecutor,
	op func(ctx context.Context) (T, error),
	policy *models.RetryPolicy,
) (T, error) {
	var out T

	err := ex.Execute(ctx, func(ctx context.Context) error {
		value, err := op(ctx)
		if err != nil {
			return err
		}

		out = value

		return nil
	}, policy)
	if err != nil {
		var zero T
		return zero, err
	}

	return out, nil
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
