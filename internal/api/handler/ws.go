package handler

import (
	"directchat/backend/internal/apperr"
	"directchat/backend/internal/auth"
	"directchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
)

// ServeWebSocket resolves the caller's identity, upgrades the connection and
// admits it to the presence registry. A failed resolution answers 401 before
// any upgrade and leaves the registry untouched.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID, err := h.Tokens.Resolve(c.Request.Context(), auth.CredentialFromRequest(c.Request))
	if err != nil {
		h.log.Debug("websocket handshake rejected", "remote", c.ClientIP(), "error", err)
		h.respondError(c, apperr.ErrUnauthenticated)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := chathub.NewWebSocketClient(conn, userID, h.Registry, h.opts.SendBuffer, h.log)
	h.Registry.Register(client)
	client.Run()
}
