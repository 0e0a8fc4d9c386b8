package chat

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/courio/courio/internal/pubsub"
)

// Router fans committed events out to the channels of the two parties
// involved, and nobody else. Delivery is best-effort: an identity without a
// bound channel simply misses the event and catches up via history the next
// time it asks.
type Router struct {
	registry *Registry
	sub      pubsub.Subscriber
	logger   *slog.Logger
}

// NewRouter creates a Router pushing through the given registry.
func NewRouter(registry *Registry, sub pubsub.Subscriber) *Router {
	return &Router{
		registry: registry,
		sub:      sub,
		logger:   slog.Default().With("service", "chat-router"),
	}
}

// Start subscribes the router to the chat topics. Subscriptions run until
// ctx is canceled or the bus is closed.
func (r *Router) Start(ctx context.Context) error {
	if err := r.sub.Subscribe(ctx, TopicMessageCreated, r.handleMessageCreated); err != nil {
		return err
	}
	return r.sub.Subscribe(ctx, TopicStatusChanged, r.handleStatusChanged)
}

// handleMessageCreated pushes the new message to the receiver's channel and
// echoes a confirmation copy to the sender's own channel. A self-message is
// a single delivery, not a duplicate.
func (r *Router) handleMessageCreated(ctx context.Context, msg pubsub.Message) error {
	payload, err := NewEnvelope(EventMessageReceived, json.RawMessage(msg.Payload))
	if err != nil {
		return err
	}

	sender := msg.Metadata[MetaSenderID]
	receiver := msg.Metadata[MetaReceiverID]

	r.push(receiver, payload)
	if sender != receiver {
		r.push(sender, payload)
	}
	return nil
}

// handleStatusChanged pushes the transition to both the sender's and the
// receiver's channels, since either may be rendering the conversation.
func (r *Router) handleStatusChanged(ctx context.Context, msg pubsub.Message) error {
	payload, err := NewEnvelope(EventStatusChanged, json.RawMessage(msg.Payload))
	if err != nil {
		return err
	}

	sender := msg.Metadata[MetaSenderID]
	receiver := msg.Metadata[MetaReceiverID]

	r.push(sender, payload)
	if receiver != sender {
		r.push(receiver, payload)
	}
	return nil
}

// push delivers to the channel bound to identity, if any. An unbound
// identity is unreachable, which is not an error.
func (r *Router) push(identity string, payload []byte) {
	ch, ok := r.registry.Lookup(identity)
	if !ok {
		r.logger.Debug("No channel bound, dropping event", "identity", identity)
		return
	}
	ch.Push(payload)
}
