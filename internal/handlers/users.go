package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courio/courio/internal/domain"
	"github.com/courio/courio/internal/middleware"
)

// UsersHandler serves the contact list.
type UsersHandler struct {
	users domain.UserRepository
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(users domain.UserRepository) *UsersHandler {
	return &UsersHandler{users: users}
}

// List handles GET /users and returns every user except the caller.
func (h *UsersHandler) List(c echo.Context) error {
	user, ok := c.Get(middleware.UserContextKey).(*domain.User)
	if !ok || user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	others, err := h.users.ListOthers(c.Request().Context(), user.ID)
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
	return c.JSON(http.StatusOK, others)
}
