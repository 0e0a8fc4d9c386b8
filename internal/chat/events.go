package chat

import (
	"encoding/json"

	"github.com/courio/courio/internal/domain"
)

// Topics carried on the in-process event bus between the core service and
// the channel layer.
const (
	TopicMessageCreated = "chat.message.created"
	TopicStatusChanged  = "chat.status.changed"
)

// Metadata keys used to target fan-out without reparsing payloads.
const (
	MetaSenderID   = "sender_id"
	MetaReceiverID = "receiver_id"
)

// Event types on the realtime channel, both directions.
const (
	EventSend            = "send"
	EventDeliveredAck    = "delivered-ack"
	EventSeenAck         = "seen-ack"
	EventMessageReceived = "message-received"
	EventStatusChanged   = "status-changed"
	EventError           = "error"
)

// Envelope frames every event on the realtime channel.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals an event of the given type ready for a channel push.
func NewEnvelope(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

// SendRequest is the client payload asking to create a message. SenderID is
// optional on the wire; when present it must match the authenticated
// identity.
type SendRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// StatusChange notifies interested parties that a message advanced.
type StatusChange struct {
	MessageID string        `json:"messageId"`
	Status    domain.Status `json:"status"`
}

// ErrorEvent reports a failed channel event back to its originating channel
// only; it never affects other connections.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
