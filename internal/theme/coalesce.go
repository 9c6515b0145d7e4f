// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period after the last edit before pending
// fields are written.
const DefaultDebounce = time.Second

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a virtual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

// Coalescer collects field edits and hands the latest value per field to
// flush once no edit arrived for the debounce window. Each edit restarts
// the window.
type Coalescer struct {
	mu      sync.Mutex
	clock   Clock
	window  time.Duration
	flush   func(fields map[string]any)
	pending map[string]any
	timer   Timer
	gen     uint64
	stopped bool
}

// NewCoalescer creates a coalescer calling flush with the pending fields.
func NewCoalescer(clock Clock, window time.Duration, flush func(fields map[string]any)) *Coalescer {
	if clock == nil {
		clock = RealClock()
	}
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Coalescer{
		clock:   clock,
		window:  window,
		flush:   flush,
		pending: make(map[string]any),
	}
}

// Add records value for key, replacing any pending value, and restarts
// the debounce window.
func (c *Coalescer) Add(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.pending[key] = value
	c.scheduleLocked()
}

// Merge folds values into the map pending under key, so each entry keeps
// only its latest value, and restarts the debounce window.
func (c *Coalescer) Merge(key string, values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	m, _ := c.pending[key].(map[string]any)
	m = maps.Clone(m)
	if m == nil {
		m = make(map[string]any, len(values))
	}
	maps.Copy(m, values)
	c.pending[key] = m
	c.scheduleLocked()
}

// Requeue puts back fields whose write failed. Keys that received a newer
// value in the meantime keep the newer value; for map values the newer
// entries win one by one. The timer is not restarted: requeued fields go
// out with the next edit or flush. Returns the keys requeued.
func (c *Coalescer) Requeue(fields map[string]any) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return nil
	}
	var requeued []string
	for k, v := range fields {
		newer, hasNewer := c.pending[k]
		if !hasNewer {
			c.pending[k] = v
			requeued = append(requeued, k)
			continue
		}
		failed, okFailed := v.(map[string]any)
		pending, okPending := newer.(map[string]any)
		if !okFailed || !okPending {
			continue
		}
		merged := maps.Clone(failed)
		maps.Copy(merged, pending)
		if len(merged) > len(pending) {
			requeued = append(requeued, k)
		}
		c.pending[k] = merged
	}
	slices.Sort(requeued)
	return requeued
}

// scheduleLocked cancels the pending timer and starts a new window.
func (c *Coalescer) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.window, func() { c.fire(gen) })
}

func (c *Coalescer) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.stopped {
		// Superseded by a later edit or an explicit flush.
		c.mu.Unlock()
		return
	}
	fields := c.takeLocked()
	c.mu.Unlock()

	if len(fields) > 0 {
		c.flush(fields)
	}
}

// takeLocked empties the queue and disarms the timer.
func (c *Coalescer) takeLocked() map[string]any {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	fields := maps.Clone(c.pending)
	clear(c.pending)
	return fields
}

// Flush writes pending fields now, on the calling goroutine.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	fields := c.takeLocked()
	c.mu.Unlock()

	if len(fields) > 0 {
		c.flush(fields)
	}
}

// Pending returns the number of fields waiting to be written.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stop cancels the timer and discards pending fields. Later calls are
// no-ops.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.takeLocked()
	c.stopped = true
}
