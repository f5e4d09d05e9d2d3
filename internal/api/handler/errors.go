package handler

import (
	"errors"
	"net/http"

	"directchat/backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

// statusFor maps the error taxonomy onto HTTP status codes.
// ErrNotFound is checked before ErrInvalidRecipient: an unknown recipient
// carries both and answers 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, apperr.ErrInvalidRecipient),
		errors.Is(err, apperr.ErrEmptyMessage),
		errors.Is(err, apperr.ErrEmailTaken),
		errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		message = "internal server error"
		if errors.Is(err, apperr.ErrMediaUpload) {
			message = apperr.ErrMediaUpload.Error()
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
