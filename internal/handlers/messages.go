package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courio/courio/internal/chat"
	"github.com/courio/courio/internal/domain"
	"github.com/courio/courio/internal/middleware"
)

// MessagesHandler exposes the message core over HTTP: a REST send path and
// the history service.
type MessagesHandler struct {
	service *chat.Service
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(service *chat.Service) *MessagesHandler {
	return &MessagesHandler{service: service}
}

// Create handles POST /api/messages. The message is persisted and fanned out
// through the same pipeline as realtime sends.
func (h *MessagesHandler) Create(c echo.Context) error {
	user, ok := c.Get(middleware.UserContextKey).(*domain.User)
	if !ok || user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid message")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid message")
	}

	msg, err := h.service.Send(c.Request().Context(), user.ID, chat.SendRequest{
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid message")
		}
		slog.Error("Failed to send message", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusCreated, msg)
}

// History handles GET /api/messages/:userId and returns the conversation
// with that peer, both directions, ascending by time.
func (h *MessagesHandler) History(c echo.Context) error {
	user, ok := c.Get(middleware.UserContextKey).(*domain.User)
	if !ok || user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	otherID := c.Param("userId")
	messages, err := h.service.History(c.Request().Context(), user.ID, otherID)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid peer")
		}
		slog.Error("Failed to load history", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	// An empty conversation serializes as [], not null.
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, messages)
}
