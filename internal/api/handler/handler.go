// Package handler exposes the chat over HTTP (gin) and WebSocket.
package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"directchat/backend/internal/auth"
	"directchat/backend/internal/chathub"
	"directchat/backend/internal/messaging"
	"directchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Options carries the transport knobs taken from config.
type Options struct {
	SendBuffer    int
	CookieSecure  bool
	TokenTTL      time.Duration
	MaxMediaBytes int64
	// AllowedOrigin is the browser origin accepted on /ws. Empty keeps the
	// same-host check, "*" accepts any origin.
	AllowedOrigin string
	MediaDir      string
	MediaBaseURL  string
}

// Handler holds the collaborators every route needs.
type Handler struct {
	Tokens   *auth.TokenService
	Store    storage.Storage
	Messages *messaging.Service
	Registry *chathub.Registry

	opts     Options
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(tokens *auth.TokenService, store storage.Storage, messages *messaging.Service, registry *chathub.Registry, opts Options, log *slog.Logger) *Handler {
	return &Handler{
		Tokens:   tokens,
		Store:    store,
		Messages: messages,
		Registry: registry,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(opts.AllowedOrigin),
		},
		log: log.With("component", "http"),
	}
}

func checkOrigin(allowed string) func(r *http.Request) bool {
	switch allowed {
	case "":
		// nil makes gorilla fall back to its same-host check
		return nil
	case "*":
		return func(*http.Request) bool { return true }
	default:
		return func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowed
		}
	}
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	api := r.Group("/api/v1")

	user := api.Group("/user")
	user.POST("/sign-up", h.SignUp)
	user.POST("/sign-in", h.SignIn)
	user.GET("/sign-out", h.SignOut)
	user.GET("/me", h.RequireAuth(), h.Me)

	message := api.Group("/message", h.RequireAuth())
	message.GET("/users", h.Users)
	message.GET("/online", h.Online)
	message.GET("/:id", h.History)
	message.POST("/send/:id", h.Send)

	r.GET("/ws", h.ServeWebSocket)

	// a MEDIA_BASE_URL pointing at another host is served elsewhere
	if h.opts.MediaDir != "" && strings.HasPrefix(h.opts.MediaBaseURL, "/") {
		r.Static(h.opts.MediaBaseURL, h.opts.MediaDir)
	}
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
