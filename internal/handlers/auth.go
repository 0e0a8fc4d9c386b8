package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courio/courio/internal/auth"
	"github.com/courio/courio/internal/domain"
	"github.com/courio/courio/internal/middleware"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	users  domain.UserRepository
	tokens *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "All fields are required")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if _, err := h.users.Create(c.Request().Context(), user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
		}
		slog.Error("Failed to create user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusCreated, map[string]string{"message": "User created successfully"})
}

// Login handles POST /login: verifies the credentials and issues a signed
// bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "All fields are required")
	}

	user, err := h.users.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		slog.Error("Failed to look up user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "User not found")
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid password")
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		slog.Error("Failed to issue token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Login successful",
		"token":   token,
	})
}

// Profile handles GET /profile and returns the authenticated user.
func (h *AuthHandler) Profile(c echo.Context) error {
	user, ok := c.Get(middleware.UserContextKey).(*domain.User)
	if !ok || user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return c.JSON(http.StatusOK, user)
}
