package handler

import (
	"directchat/backend/internal/apperr"
	"directchat/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// RequireAuth resolves the request credential and stores the user id in the
// gin context under userIDKey.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := h.Tokens.Resolve(c.Request.Context(), auth.CredentialFromRequest(c.Request))
		if err != nil {
			h.respondError(c, apperr.ErrUnauthenticated)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
