// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/metrics"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 16

// Hub fans preview messages out to the subscriptions of one process.
// Each subscription has its own buffered queue: a full queue drops the
// message for that subscriber only, and nothing is replayed to late
// subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	buffer int
}

// NewHub creates a hub whose subscriptions buffer up to buffer messages.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscription receives the messages of one store until closed.
type Subscription struct {
	hub     *Hub
	storeID uuid.UUID
	ch      chan Message
	once    sync.Once
}

// C returns the message channel. It is closed by Close.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// StoreID returns the store the subscription listens to.
func (s *Subscription) StoreID() uuid.UUID {
	return s.storeID
}

// Close detaches the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.storeID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.storeID)
			}
		}
		close(s.ch)
		s.hub.mu.Unlock()
		metrics.PreviewSubscribed(-1)
	})
}

// Subscribe opens a subscription for a store.
func (h *Hub) Subscribe(storeID uuid.UUID) *Subscription {
	sub := &Subscription{hub: h, storeID: storeID, ch: make(chan Message, h.buffer)}

	h.mu.Lock()
	set, ok := h.subs[storeID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[storeID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	metrics.PreviewSubscribed(1)
	return sub
}

// Deliver offers msg to every subscription of storeID without blocking
// and returns how many accepted it.
func (h *Hub) Deliver(storeID uuid.UUID, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[storeID] {
		select {
		case sub.ch <- msg:
			delivered++
			metrics.RecordPreviewMessage(string(msg.Type), true)
		default:
			metrics.RecordPreviewMessage(string(msg.Type), false)
		}
	}
	return delivered
}

// Broadcast validates msg and delivers it to this process only. It
// satisfies the same contract as Relay.Broadcast for single-instance
// deployments.
func (h *Hub) Broadcast(_ context.Context, storeID uuid.UUID, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	h.Deliver(storeID, msg)
	return nil
}

// Subscribers returns the number of open subscriptions for a store.
func (h *Hub) Subscribers(storeID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[storeID])
}
