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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ruh-app/offline-go/internal/logging"
)

// ConnectivityMonitor tracks the platform connectivity signal.
// The platform glue feeds raw reports in via [ConnectivityMonitor.Report];
// everyone else reads the current state or subscribes to transitions.
type ConnectivityMonitor struct {
	logger *slog.Logger
	id     string

	mu        sync.Mutex
	connected bool
	changedAt time.Time
	nextID    uint64
	listeners map[uint64]func(connected bool)
}

// MonitorOpt is a functional option that allows configuring the [ConnectivityMonitor].
type MonitorOpt func(*ConnectivityMonitor)

// WithMonitorLogger sets the logger for the [ConnectivityMonitor].
func WithMonitorLogger(logger *slog.Logger) MonitorOpt {
	return func(m *ConnectivityMonitor) {
		m.logger = logger
	}
}

// WithMonitorID sets the ID for the [ConnectivityMonitor].
// This ID is used for logging purposes.
func WithMonitorID(id string) MonitorOpt {
	return func(m *ConnectivityMonitor) {
		m.id = id
	}
}

// WithInitiallyDisconnected starts the [ConnectivityMonitor] in the
// disconnected state. By default the monitor assumes connectivity until the
// first report says otherwise.
func WithInitiallyDisconnected() MonitorOpt {
	return func(m *ConnectivityMonitor) {
		m.connected = false
	}
}

// NewConnectivityMonitor creates a new connectivity monitor.
//
// options:
//   - [WithMonitorLogger] to set a logger that the monitor will log to.
//   - [WithMonitorID] to set an identifier for the monitor.
//   - [WithInitiallyDisconnected] to start in the disconnected state.
func NewConnectivityMonitor(opts ...MonitorOpt) *ConnectivityMonitor {
	m := &ConnectivityMonitor{
		logger:    logging.NewDefault(),
		id:        uuid.NewString(),
		connected: true,
		changedAt: time.Now(),
		listeners: make(map[uint64]func(connected bool)),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger = logging.WithMonitor(m.logger, m.id)

	return m
}

// Report feeds a raw connectivity signal into the monitor. Repeated reports
// of the current state are ignored; listeners fire only on transitions.
func (m *ConnectivityMonitor) Report(connected bool) {
	m.mu.Lock()

	if m.connected == connected {
		m.mu.Unlock()
		return
	}

	m.connected = connected
	m.changedAt = time.Now()

	listeners := make([]func(connected bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}

	m.mu.Unlock()

	m.logger.Debug("connectivity changed", slog.Bool("connected", connected))

	// Callbacks run outside the lock so they may call back into the monitor.
	for _, fn := range listeners {
		fn(connected)
	}
}

// IsConnected returns the current connectivity state.
func (m *ConnectivityMonitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.connected
}

// LastTransition returns the time of the most recent state change.
func (m *ConnectivityMonitor) LastTransition() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.changedAt
}

// OnChange subscribes fn to connectivity transitions. The returned function
// removes the subscription.
func (m *ConnectivityMonitor) OnChange(fn func(connected bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.listeners, id)
	}
}

// WaitForConnection returns true immediately if connected, otherwise blocks
// until the next connected transition, the timeout, or ctx cancellation,
// whichever comes first. It always unsubscribes before returning.
func (m *ConnectivityMonitor) WaitForConnection(ctx context.Context, timeout time.Duration) bool {
	if m.IsConnected() {
		return true
	}

	connected := make(chan struct{}, 1)

	unsubscribe := m.OnChange(func(isConnected bool) {
		if isConnected {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	// A transition between the first check and the subscription would
	// otherwise be missed.
	if m.IsConnected() {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-connected:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
