package handler

import (
	"errors"
	"net/http"

	"directchat/backend/internal/messaging"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for the text field and part headers on top
// of the attachment limit.
const multipartOverhead = 1 << 20

// Users lists every account except the caller.
func (h *Handler) Users(c *gin.Context) {
	users, err := h.Messages.Contacts(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// Online lists the profiles of connected users except the caller.
func (h *Handler) Online(c *gin.Context) {
	users, err := h.Messages.OnlineContacts(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// History returns the conversation with :id, oldest first.
func (h *Handler) History(c *gin.Context) {
	messages, err := h.Messages.History(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

type sendJSONRequest struct {
	Text string `json:"text"`
}

// Send accepts either multipart/form-data (fields "text" and "media") or a
// JSON body {"text": "..."} and answers with the persisted message.
func (h *Handler) Send(c *gin.Context) {
	var (
		text string
		att  *messaging.Attachment
	)

	if c.ContentType() == gin.MIMEJSON {
		var req sendJSONRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		text = req.Text
	} else {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxMediaBytes+multipartOverhead)
		text = c.PostForm("text")

		file, header, err := c.Request.FormFile("media")
		switch {
		case err == nil:
			defer file.Close()
			att = &messaging.Attachment{Filename: header.Filename, Content: file}
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		default:
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "attachment too large"})
				return
			}
			badRequest(c, "invalid multipart body")
			return
		}
	}

	msg, err := h.Messages.Send(c.Request.Context(), currentUser(c), c.Param("id"), text, att)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg})
}
