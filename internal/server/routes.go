package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courio/courio/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	authRequired := middleware.Auth(s.tokens, s.userStore)
	rateLimiter := middleware.RateLimiter()

	s.E.POST("/signup", s.authHandler.Signup, rateLimiter)
	s.E.POST("/login", s.authHandler.Login, rateLimiter)

	s.E.GET("/profile", s.authHandler.Profile, authRequired)
	s.E.GET("/users", s.usersHandler.List, authRequired)

	api := s.E.Group("/api", authRequired)
	{
		api.POST("/messages", s.messagesHandler.Create)
		api.GET("/messages/:userId", s.messagesHandler.History)
	}

	// The websocket handler verifies the bearer token itself, once per
	// connection.
	s.E.GET("/ws", s.wsHandler.Serve)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
