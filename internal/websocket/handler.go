package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/courio/courio/internal/chat"
	"github.com/courio/courio/internal/domain"
)

// TokenVerifier turns a presented bearer credential into a verified
// identity. Verification happens once, at connect time.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Handler upgrades HTTP requests to websocket channels, binds them in the
// registry and pumps client events into the chat service.
type Handler struct {
	gate     TokenVerifier
	service  *chat.Service
	registry *chat.Registry
}

// NewHandler creates a websocket Handler.
func NewHandler(gate TokenVerifier, service *chat.Service, registry *chat.Registry) *Handler {
	return &Handler{gate: gate, service: service, registry: registry}
}

// Serve handles a websocket upgrade request. The bearer token comes from the
// Authorization header or, for browser WebSocket API clients that cannot set
// headers, the token query parameter.
func (h *Handler) Serve(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token")
	}

	identity, err := h.gate.Verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid bearer token")
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true, // In production, check origin.
	})
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return err
	}

	client := newClient(identity, conn)
	h.registry.Register(identity, client)
	slog.Info("Channel connected", "identity", identity)

	go client.writePump()
	go h.readPump(client)

	return nil
}

// readPump reads client events until the connection drops, then unbinds the
// channel. Events already in flight for a closed channel fall into a no-op
// push.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.registry.Unregister(client.identity, client)
		client.Close()
		client.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
		slog.Info("Channel disconnected", "identity", client.identity)
	}()

	for {
		_, raw, err := client.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "identity", client.identity)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "identity", client.identity, "error", err)
			}
			return
		}

		h.dispatch(context.Background(), client, raw)
	}
}

// dispatch routes one inbound event. Failures are reported back to the
// originating channel only and never affect other connections.
func (h *Handler) dispatch(ctx context.Context, client *Client, raw []byte) {
	var env chat.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.reportError(client, domain.ErrValidation)
		return
	}

	var err error
	switch env.Type {
	case chat.EventSend:
		var req chat.SendRequest
		if err = json.Unmarshal(env.Payload, &req); err != nil {
			err = domain.ErrValidation
			break
		}
		_, err = h.service.Send(ctx, client.identity, req)

	case chat.EventDeliveredAck:
		err = h.acknowledge(ctx, client, env.Payload, domain.AckDelivered)

	case chat.EventSeenAck:
		err = h.acknowledge(ctx, client, env.Payload, domain.AckSeen)

	default:
		slog.Warn("Unknown event type", "identity", client.identity, "type", env.Type)
		err = domain.ErrValidation
	}

	if err != nil {
		h.reportError(client, err)
	}
}

// acknowledge handles delivered-ack and seen-ack events, whose payload is
// the message id as a JSON string.
func (h *Handler) acknowledge(ctx context.Context, client *Client, payload json.RawMessage, ack domain.Ack) error {
	var messageID string
	if err := json.Unmarshal(payload, &messageID); err != nil {
		return domain.ErrValidation
	}
	_, err := h.service.Acknowledge(ctx, client.identity, messageID, ack)
	return err
}

// reportError pushes an error event to the originating channel.
func (h *Handler) reportError(client *Client, err error) {
	payload, marshalErr := chat.NewEnvelope(chat.EventError, chat.ErrorEvent{
		Code:    domain.ErrorCode(err),
		Message: err.Error(),
	})
	if marshalErr != nil {
		slog.Error("Failed to marshal error event", "error", marshalErr)
		return
	}
	client.Push(payload)
}

// bearerToken extracts the credential from the Authorization header or the
// token query parameter.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.QueryParam("token")
}
