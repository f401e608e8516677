// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package weather

import "sync"

// Cache remembers the last successfully fetched Reading. It has no expiry
// logic: staleness is a scheduling concern, a stale reading is retained and
// displayed even after a fetch failure. Store is the only mutation point and
// is safe for use from a goroutine other than the render loop.
type Cache struct {
	mu      sync.RWMutex
	reading Reading
	isSet   bool
}

// Current returns the last successful Reading and true, or a zero Reading
// and false if nothing has been fetched yet.
func (c *Cache) Current() (Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reading, c.isSet
}

// Store replaces the held Reading atomically. Readers never observe a
// partially updated Reading.
func (c *Cache) Store(reading Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reading = reading
	c.isSet = true
}
