// Package notify publishes pipeline events for downstream consumers. The
// primary implementation targets Google Cloud Pub/Sub; a log-only fallback
// covers local development.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/jobsift/jobsift/internal/ingest"
)

// message is the wire payload for a published event.
type message struct {
	Event   string    `json:"event"`
	ActorID string    `json:"actor_id"`
	Detail  string    `json:"detail"`
	TS      time.Time `json:"ts"`
}

// PubSubNotifier publishes events to a Pub/Sub topic.
type PubSubNotifier struct {
	topic *pubsub.Topic
	clock ingest.Clock
}

// NewPubSub creates a notifier for the given topic.
func NewPubSub(client *pubsub.Client, topicID string, clock ingest.Clock) (*PubSubNotifier, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}
	if topicID == "" {
		return nil, fmt.Errorf("topic id is required")
	}
	return &PubSubNotifier{
		topic: client.Topic(topicID),
		clock: clock,
	}, nil
}

// Notify marshals the event and publishes it, waiting for the server ack so
// callers learn about delivery failures.
func (n *PubSubNotifier) Notify(ctx context.Context, event string, actorID string, detail string) error {
	data, err := json.Marshal(message{
		Event:   event,
		ActorID: actorID,
		Detail:  detail,
		TS:      n.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := n.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event": event},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish event %s: %w", event, err)
	}
	return nil
}

// Stop flushes pending messages. Call during shutdown.
func (n *PubSubNotifier) Stop() {
	if n.topic != nil {
		n.topic.Stop()
	}
}
