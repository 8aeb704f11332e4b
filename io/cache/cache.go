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

// Package cache provides an in-memory query cache keyed by region.
// The mobile client plugs its own cache behind the same surface; this one
// backs tests and the maintenance CLI. Invalidation marks a region stale but
// keeps its value, so readers see data until a refetch replaces it.
package cache

import (
	"context"
	"sync"

	"github.com/ruh-app/offline-go/models"
)

type entry struct {
	value any
	stale bool
}

type hook struct {
	id     uint64
	cancel context.CancelFunc
}

// Cache holds one value per region plus the cancel hooks of in-flight
// fetches for that region.
type Cache struct {
	mu      sync.Mutex
	entries map[models.Region]entry
	cancels map[models.Region][]hook
	nextID  uint64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[models.Region]entry),
		cancels: make(map[models.Region][]hook),
	}
}

// Data returns the cached value for the region, if any. Stale values are
// still returned; staleness only signals that a refetch is due.
func (c *Cache) Data(region models.Region) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[region]

	return e.value, ok
}

// SetData replaces the cached value for the region and marks it fresh.
func (c *Cache) SetData(region models.Region, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[region] = entry{value: value}
}

// Invalidate marks the region stale so the next reader refetches it.
func (c *Cache) Invalidate(region models.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[region]
	if !ok {
		return
	}

	e.stale = true
	c.entries[region] = e
}

// IsStale reports whether the region is marked for refetch.
func (c *Cache) IsStale(region models.Region) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries[region].stale
}

// Remove drops the region entirely.
func (c *Cache) Remove(region models.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, region)
}

// RegisterInFlight records the cancel hook of a fetch targeting the region.
// The returned release removes the hook once the fetch settles.
func (c *Cache) RegisterInFlight(region models.Region, cancel context.CancelFunc) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.cancels[region] = append(c.cancels[region], hook{id: id, cancel: cancel})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		hooks := c.cancels[region]
		for i, h := range hooks {
			if h.id == id {
				c.cancels[region] = append(hooks[:i], hooks[i+1:]...)
				return
			}
		}
	}
}

// CancelInFlight cancels every registered in-flight fetch for the region.
// Hooks run outside the cache lock.
func (c *Cache) CancelInFlight(region models.Region) {
	c.mu.Lock()
	hooks := c.cancels[region]
	delete(c.cancels, region)
	c.mu.Unlock()

	for _, h := range hooks {
		h.cancel()
	}
}

// Len returns the number of cached regions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
