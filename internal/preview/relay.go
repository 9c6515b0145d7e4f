// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces preview pub/sub channels in Valkey.
const channelPrefix = "preview:"

// Channel returns the Valkey pub/sub channel of a store.
func Channel(storeID uuid.UUID) string {
	return channelPrefix + storeID.String()
}

// Relay fans preview messages across instances through Valkey pub/sub, so
// an editor and a preview attached to different processes still meet.
// Messages published by any instance reach the local Hub via Run.
type Relay struct {
	client *redis.Client
	hub    *Hub
}

// NewRelay creates a relay delivering into hub.
func NewRelay(client *redis.Client, hub *Hub) *Relay {
	return &Relay{client: client, hub: hub}
}

// Broadcast publishes msg on the store's channel. Delivery to subscribers
// (including local ones) happens in Run.
func (r *Relay) Broadcast(ctx context.Context, storeID uuid.UUID, msg Message) error {
	payload, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, Channel(storeID), payload).Err(); err != nil {
		return fmt.Errorf("publish preview message: %w", err)
	}
	return nil
}

// Run pattern-subscribes to every preview channel and forwards messages
// to the hub until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe preview channels: %w", err)
	}
	slog.Info("preview relay subscribed", "pattern", channelPrefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.dispatch(m)
		}
	}
}

func (r *Relay) dispatch(m *redis.Message) {
	storeID, err := uuid.Parse(strings.TrimPrefix(m.Channel, channelPrefix))
	if err != nil {
		slog.Warn("preview relay: bad channel", "channel", m.Channel)
		return
	}
	msg, err := Decode([]byte(m.Payload))
	if err != nil {
		slog.Warn("preview relay: dropping invalid message", "store_id", storeID, "error", err)
		return
	}
	r.hub.Deliver(storeID, msg)
}
