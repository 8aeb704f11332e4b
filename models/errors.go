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
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// ErrNetworkUnavailable is returned when there is no connectivity, or when a
// bounded wait for connectivity timed out. It is retryable by default.
var ErrNetworkUnavailable = errors.New("network unavailable")

// ErrKeyNotFound is returned by a Storage implementation when the requested
// key has no value.
var ErrKeyNotFound = errors.New("key not found")

// StatusError carries an HTTP-style status code reported by the API client.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
	// Message is an optional server-supplied description.
	Message string
}

// NewStatusError returns a StatusError for the given code.
func NewStatusError(code int, message string) *StatusError {
	return &StatusError{Code: code, Message: message}
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d: %s", e.Code, http.StatusText(e.Code))
	}

	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Transient reports whether the status describes a server-side or throttling
// condition that is expected to clear: any 5xx, 408 or 429.
func (e *StatusError) Transient() bool {
	return e.Code >= http.StatusInternalServerError ||
		e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests
}

// DefaultShouldRetry classifies an error as retryable or terminal. Network
// unreachability and transient server statuses are retryable; cancellation
// and remaining client statuses are not.
func DefaultShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrNetworkUnavailable) {
		return true
	}

	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.Transient()
	}

	return IsNetworkError(err)
}

// IsNetworkError reports whether err looks like a connectivity-level failure.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.ECONNRESET) || // "connection reset"
		errors.Is(err, syscall.EPIPE) || // "broken pipe"
		errors.Is(err, syscall.ETIMEDOUT) || // "timeout"
		errors.Is(err, syscall.ECONNREFUSED) || // "connection refused"
		errors.Is(err, syscall.ENETUNREACH) || // "network is unreachable"
		errors.Is(err, syscall.ECONNABORTED) || // "software caused connection abort"
		errors.Is(err, syscall.EHOSTUNREACH) || // "no route to host"
		errors.Is(err, io.ErrClosedPipe) || // "closed pipe"
		errors.Is(err, io.ErrUnexpectedEOF) || // "unexpected eof"
		errors.Is(err, context.DeadlineExceeded) { // "context deadline"
		return true
	}

	// For timeouts surfaced as net.Error (e.g. "i/o timeout")
	var nErr net.Error
	if errors.As(err, &nErr) && nErr.Timeout() {
		return true
	}

	return false
}
