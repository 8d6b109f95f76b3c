// Package notifications publishes post lifecycle events over Redis pub/sub
// so interested consumers (feeds, push gateways) can react without polling.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"ember/internal/models"

	"github.com/redis/go-redis/v9"
)

// Event types published on the broadcast channel.
const (
	EventPostCreated     = "post.created"
	EventPostTTLRefresh  = "post.ttl_refreshed"
	EventReactionUpdated = "post.reaction_updated"
)

// Event is the wire form of a post lifecycle notification.
type Event struct {
	Type      string       `json:"type"`
	Post      *models.Post `json:"post,omitempty"`
	ActorID   string       `json:"actor_id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Notifier provides helpers to publish notifications into Redis channels.
// A Notifier with a nil client is valid and drops everything silently, so
// callers never need to branch on Redis availability.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID string, payload string) error {
	if n.rdb == nil {
		return nil
	}
	channel := fmt.Sprintf("notifications:user:%s", userID)
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// PublishBroadcast sends a notification payload to all connected consumers.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, "notifications:broadcast", payload).Err()
}

// PublishPostEvent marshals and broadcasts a post lifecycle event.
func (n *Notifier) PublishPostEvent(ctx context.Context, eventType string, post *models.Post, actorID string) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Post:      post,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.PublishBroadcast(ctx, string(payload))
}

// StartPatternSubscriber subscribes to `notifications:user:*` and the
// broadcast channel and calls onMessage for each incoming message.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*", "notifications:broadcast")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
