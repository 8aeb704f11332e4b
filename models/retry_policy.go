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

package models

import (
	"fmt"
	"math"
	"time"
)

// RetryPolicy defines the configuration for retry attempts in case of failures.
type RetryPolicy struct {
	// BaseDelay is the initial delay between retry attempts.
	BaseDelay time.Duration

	// MaxDelay caps the delay between retry attempts.
	// If set to 0, delays grow unbounded.
	MaxDelay time.Duration

	// Multiplier is used to increase the delay between subsequent retry attempts.
	// The actual delay is calculated as: BaseDelay * (Multiplier ^ (attempt-1)),
	// capped by MaxDelay.
	Multiplier float64

	// MaxRetries is the maximum number of retry attempts made after the initial
	// one, so an operation runs at most MaxRetries+1 times.
	// If set to 0, no retries will be performed.
	MaxRetries uint

	// ShouldRetry reports whether an error is worth another attempt.
	// If nil, DefaultShouldRetry is used.
	ShouldRetry func(err error) bool

	// OnRetry, if set, is called after a failed attempt and before the backoff
	// sleep that precedes the next one, with the 1-based number of the attempt
	// that just failed and its error.
	OnRetry func(attempt uint, err error)
}

// NewRetryPolicy returns new configuration for retry attempts in case of failures.
func NewRetryPolicy(baseDelay, maxDelay time.Duration, multiplier float64, maxRetries uint) *RetryPolicy {
	return &RetryPolicy{
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
		Multiplier: multiplier,
		MaxRetries: maxRetries,
	}
}

// NewDefaultRetryPolicy returns a new RetryPolicy with default values.
// It is an alias for NewStandardRetryPolicy.
func NewDefaultRetryPolicy() *RetryPolicy {
	return NewStandardRetryPolicy()
}

// NewStandardRetryPolicy suits ordinary interactive calls: a few attempts
// with a moderate delay ceiling.
func NewStandardRetryPolicy() *RetryPolicy {
	return NewRetryPolicy(1000*time.Millisecond, 30*time.Second, 2, 3)
}

// NewCriticalRetryPolicy suits operations that must not be given up on
// lightly, such as submitting a check-in the user already confirmed.
func NewCriticalRetryPolicy() *RetryPolicy {
	return NewRetryPolicy(1000*time.Millisecond, time.Minute, 2, 5)
}

// NewQuickRetryPolicy suits calls the UI is visibly waiting on: one fast
// retry, then surface the failure.
func NewQuickRetryPolicy() *RetryPolicy {
	return NewRetryPolicy(500*time.Millisecond, 2*time.Second, 2, 1)
}

// NewBackgroundRetryPolicy suits queued work nobody is waiting on: many
// patient attempts with long delays.
func NewBackgroundRetryPolicy() *RetryPolicy {
	return NewRetryPolicy(5*time.Second, 5*time.Minute, 2, 8)
}

// Delay returns the backoff delay that follows the given 1-based attempt.
func (p *RetryPolicy) Delay(attempt uint) time.Duration {
	if p == nil || p.BaseDelay <= 0 {
		return 0
	}

	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	return time.Duration(delay)
}

// Retryable reports whether err is worth another attempt under this policy.
func (p *RetryPolicy) Retryable(err error) bool {
	if p != nil && p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}

	return DefaultShouldRetry(err)
}

// Validate checks retry policy values.
func (p *RetryPolicy) Validate() error {
	if p == nil {
		return nil
	}

	if p.BaseDelay < 0 {
		return fmt.Errorf("base delay must be non-negative")
	}

	if p.MaxDelay < 0 {
		return fmt.Errorf("max delay must be non-negative")
	}

	if p.MaxDelay > 0 && p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("max delay must be greater than or equal to base delay")
	}

	if p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be greater than or equal to 1")
	}

	return nil
}
