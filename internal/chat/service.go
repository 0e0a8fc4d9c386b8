package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/courio/courio/internal/domain"
	"github.com/courio/courio/internal/pubsub"
)

// Service is the realtime messaging core. It persists messages, drives the
// delivery-status state machine and publishes committed events for the
// router to fan out.
//
// All transitions for one message are serialized behind a lock keyed by
// message id; the status event is published inside that critical section so
// observers see notifications in commit order.
type Service struct {
	store    domain.MessageRepository
	pub      pubsub.Publisher
	validate *validator.Validate
	locks    *keyedMutex
	logger   *slog.Logger
}

// NewService creates the messaging core on top of a message store and an
// event bus publisher.
func NewService(store domain.MessageRepository, pub pubsub.Publisher) *Service {
	return &Service{
		store:    store,
		pub:      pub,
		validate: validator.New(),
		locks:    newKeyedMutex(),
		logger:   slog.Default().With("service", "chat"),
	}
}

// Send validates and persists a new message from senderID, then announces it
// on the bus. When the request carries an explicit sender it must match the
// authenticated identity.
func (s *Service) Send(ctx context.Context, senderID string, req SendRequest) (*domain.Message, error) {
	if req.SenderID != "" && req.SenderID != senderID {
		return nil, fmt.Errorf("%w: sender does not match authenticated identity", domain.ErrUnauthorized)
	}
	if err := s.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	msg, err := s.store.Create(ctx, senderID, req.ReceiverID, req.Content)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, TopicMessageCreated, msg, msg)
	return msg, nil
}

// Acknowledge advances the delivery status of a message on behalf of
// actorID. Only the receiver may acknowledge; a duplicate delivered-ack is an
// idempotent no-op returning the current state unchanged.
func (s *Service) Acknowledge(ctx context.Context, actorID, messageID string, ack domain.Ack) (*domain.Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("%w: missing message id", domain.ErrValidation)
	}

	unlock := s.locks.lock(messageID)
	defer unlock()

	msg, err := s.store.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := msg.AuthorizeAck(actorID); err != nil {
		return nil, err
	}

	next, advance, err := domain.NextStatus(msg.Status, ack)
	if err != nil {
		return nil, err
	}
	if !advance {
		return msg, nil
	}

	updated, err := s.store.SetStatus(ctx, messageID, next)
	if err != nil {
		return nil, err
	}

	// Published while the per-message lock is held: a later seen event can
	// never overtake this one on the bus.
	s.publish(ctx, TopicStatusChanged, StatusChange{
		MessageID: updated.ID,
		Status:    updated.Status,
	}, updated)

	return updated, nil
}

// History returns the conversation between self and other, ascending by
// creation time. Safe to call repeatedly; it holds no cursor state.
func (s *Service) History(ctx context.Context, selfID, otherID string) ([]domain.Message, error) {
	if otherID == "" {
		return nil, fmt.Errorf("%w: missing peer id", domain.ErrValidation)
	}
	return s.store.History(ctx, selfID, otherID)
}

// publish puts a committed event on the bus. A bus failure is logged and
// swallowed: the state is already durable and the parties catch up through
// history, mirroring how an unreachable channel is handled.
func (s *Service) publish(ctx context.Context, topic string, payload any, msg *domain.Message) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal event payload", "topic", topic, "error", err)
		return
	}

	err = s.pub.Publish(ctx, pubsub.Message{
		Topic:   topic,
		Payload: raw,
		Metadata: map[string]string{
			MetaSenderID:   msg.SenderID,
			MetaReceiverID: msg.ReceiverID,
		},
	})
	if err != nil {
		s.logger.Error("Failed to publish event", "topic", topic, "message_id", msg.ID, "error", err)
	}
}
