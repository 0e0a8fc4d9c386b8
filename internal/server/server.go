package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/surrealdb/surrealdb.go"

	"github.com/courio/courio/internal/auth"
	"github.com/courio/courio/internal/chat"
	"github.com/courio/courio/internal/config"
	"github.com/courio/courio/internal/database"
	"github.com/courio/courio/internal/domain"
	"github.com/courio/courio/internal/handlers"
	"github.com/courio/courio/internal/logging"
	"github.com/courio/courio/internal/pubsub"
	"github.com/courio/courio/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg *config.Config

	bus      *pubsub.WatermillBridge
	registry *chat.Registry
	router   *chat.Router
	chatSvc  *chat.Service
	tokens   *auth.TokenService

	userStore domain.UserRepository

	authHandler     *handlers.AuthHandler
	usersHandler    *handlers.UsersHandler
	messagesHandler *handlers.MessagesHandler
	wsHandler       *websocket.Handler
}

// New creates a new Server instance with all dependencies wired.
func New() *Server {
	logging.New()
	cfg := config.New()

	db, err := database.NewDB(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// The in-memory event bus connecting the messaging core to the
	// channel layer.
	bus := pubsub.NewWatermillBridge()

	userStore := database.NewUserStore(db)
	messageStore := database.NewMessageStore(db)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	registry := chat.NewRegistry()
	chatSvc := chat.NewService(messageStore, bus)

	router := chat.NewRouter(registry, bus)
	if err := router.Start(context.Background()); err != nil {
		slog.Error("Failed to start broadcast router", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Validator = handlers.NewValidator()

	// Serve the bundled frontend, mirroring the static file glue around
	// the realtime core.
	e.Static("/static", "web/static")

	return &Server{
		E:               e,
		DB:              db,
		Cfg:             cfg,
		bus:             bus,
		registry:        registry,
		router:          router,
		chatSvc:         chatSvc,
		tokens:          tokens,
		userStore:       userStore,
		authHandler:     handlers.NewAuthHandler(userStore, tokens),
		usersHandler:    handlers.NewUsersHandler(userStore),
		messagesHandler: handlers.NewMessagesHandler(chatSvc),
		wsHandler:       websocket.NewHandler(tokens, chatSvc, registry),
	}
}
