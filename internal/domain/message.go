package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the delivery state of a message. It only ever advances along
// sent < delivered < seen; a regression is never legal.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusSeen      Status = "seen"
)

var statusRank = map[Status]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusSeen:      2,
}

// Valid reports whether s is one of the three known delivery states.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Advances reports whether moving from s to next is a strict advance.
func (s Status) Advances(next Status) bool {
	return s.Valid() && next.Valid() && statusRank[next] > statusRank[s]
}

// Ack is a receiver-originated event advancing a message's delivery status.
type Ack string

const (
	AckDelivered Ack = "delivered-ack"
	AckSeen      Ack = "seen-ack"
)

// Target returns the status an ack drives a message toward.
func (a Ack) Target() (Status, bool) {
	switch a {
	case AckDelivered:
		return StatusDelivered, true
	case AckSeen:
		return StatusSeen, true
	default:
		return "", false
	}
}

// Message is a single unit of two-party communication. Everything except
// Status is immutable after creation; Status advances via acks only.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewMessage validates and assembles a message ready for persistence.
// A fresh message always starts out as sent.
func NewMessage(senderID, receiverID, content string) (*Message, error) {
	if senderID == "" {
		return nil, fmt.Errorf("%w: missing sender", ErrValidation)
	}
	if receiverID == "" {
		return nil, fmt.Errorf("%w: missing receiver", ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrValidation)
	}
	return &Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Status:     StatusSent,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// AuthorizeAck checks that actorID may acknowledge this message. Only the
// receiver may; sender-originated or third-party acks are always rejected.
func (m *Message) AuthorizeAck(actorID string) error {
	if actorID != m.ReceiverID {
		return fmt.Errorf("%w: only the receiver may acknowledge message %s", ErrUnauthorized, m.ID)
	}
	return nil
}

// NextStatus is the pure transition decision for the delivery state machine.
// It returns the resulting status and whether the store must be updated.
// A duplicate delivered-ack on an already delivered message is an idempotent
// no-op (advance=false, no error); any ack on a seen message is rejected
// because seen is terminal.
func NextStatus(current Status, ack Ack) (Status, bool, error) {
	target, ok := ack.Target()
	if !ok {
		return current, false, fmt.Errorf("%w: unknown ack %q", ErrValidation, ack)
	}
	if current == StatusSeen {
		return current, false, fmt.Errorf("%w: message already seen", ErrInvalidTransition)
	}
	if current == target {
		// Duplicate delivered-ack, e.g. resent by a flaky client.
		return current, false, nil
	}
	if !current.Advances(target) {
		return current, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}
	return target, true, nil
}

// MessageRepository defines the contract for message persistence. It lives in
// the domain because it's a requirement OF the domain, not of the database
// implementation.
type MessageRepository interface {
	// Create validates and persists a new message with status sent.
	Create(ctx context.Context, senderID, receiverID, content string) (*Message, error)
	// Get returns the message with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Message, error)
	// SetStatus advances the stored status. It fails with ErrNotFound for an
	// unknown id and ErrInvalidTransition when status does not strictly
	// advance past the stored value. The update is atomic with respect to
	// concurrent attempts on the same message.
	SetStatus(ctx context.Context, id string, status Status) (*Message, error)
	// History returns every message exchanged between the two users, in
	// either direction, ascending by creation time.
	History(ctx context.Context, userA, userB string) ([]Message, error)
}
