package database

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/courio/courio/internal/domain"
)

// messageRecord is the persisted shape of a message. The application id is a
// plain field rather than the record id so it stays an opaque string on the
// wire.
type messageRecord struct {
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *messageRecord) toDomain() *domain.Message {
	return &domain.Message{
		ID:         r.MessageID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		Status:     domain.Status(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

const messageFields = "message_id, sender_id, receiver_id, content, status, created_at"

// MessageStore encapsulates database operations for messages.
type MessageStore struct {
	db *surrealdb.DB
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(db *surrealdb.DB) *MessageStore {
	return &MessageStore{db: db}
}

var _ domain.MessageRepository = (*MessageStore)(nil)

// Create validates and persists a new message with status sent.
func (s *MessageStore) Create(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	msg, err := domain.NewMessage(senderID, receiverID, content)
	if err != nil {
		return nil, err
	}

	query := `
		CREATE message CONTENT {
			message_id: $message_id,
			sender_id: $sender_id,
			receiver_id: $receiver_id,
			content: $content,
			status: $status,
			created_at: $created_at
		}
	`
	params := map[string]any{
		"message_id":  msg.ID,
		"sender_id":   msg.SenderID,
		"receiver_id": msg.ReceiverID,
		"content":     msg.Content,
		"status":      string(msg.Status),
		"created_at":  msg.CreatedAt,
	}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// Get returns the message with the given id, or domain.ErrNotFound.
func (s *MessageStore) Get(ctx context.Context, id string) (*domain.Message, error) {
	query := fmt.Sprintf("SELECT %s FROM message WHERE message_id = $message_id", messageFields)
	params := map[string]any{"message_id": id}

	rec, err := QueryOne[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, id)
	}
	return rec.toDomain(), nil
}

// SetStatus advances the stored status of a message. The update is guarded in
// the query itself so a concurrent attempt on the same message can never
// regress or double-apply: only rows whose current status strictly precedes
// the target are touched.
func (s *MessageStore) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Message, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	query := fmt.Sprintf(`
		UPDATE message SET status = $status
		WHERE message_id = $message_id AND status IN $preceding
		RETURN %s
	`, messageFields)
	params := map[string]any{
		"message_id": id,
		"status":     string(status),
		"preceding":  precedingStatuses(status),
	}

	updated, err := Query[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update message status: %w", err)
	}
	if len(updated) > 0 {
		return updated[0].toDomain(), nil
	}

	// Nothing matched: either the message does not exist or the stored
	// status does not strictly precede the target. Re-read to tell apart.
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, status)
}

// History returns every message exchanged between the two users, in either
// direction, ascending by creation time.
func (s *MessageStore) History(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM message
		WHERE (sender_id = $a AND receiver_id = $b)
		   OR (sender_id = $b AND receiver_id = $a)
		ORDER BY created_at ASC
	`, messageFields)
	params := map[string]any{"a": userA, "b": userB}

	records, err := Query[messageRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	messages := make([]domain.Message, len(records))
	for i := range records {
		messages[i] = *records[i].toDomain()
	}
	return messages, nil
}

// precedingStatuses lists the states a message may be in for target to be a
// strict advance.
func precedingStatuses(target domain.Status) []string {
	switch target {
	case domain.StatusDelivered:
		return []string{string(domain.StatusSent)}
	case domain.StatusSeen:
		return []string{string(domain.StatusSent), string(domain.StatusDelivered)}
	default:
		return nil
	}
}
