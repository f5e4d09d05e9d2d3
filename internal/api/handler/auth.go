package handler

import (
	"errors"
	"net/http"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/auth"
	"directchat/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SignUp creates an account. It does not sign the user in.
func (h *Handler) SignUp(c *gin.Context) {
	var req auth.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.Normalize()
	if err := auth.ValidateSignUp(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := &models.User{FullName: req.FullName, Email: req.Email, Password: hash}
	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info("user signed up", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

// SignIn checks the password and returns a token, also set as an httpOnly cookie.
func (h *Handler) SignIn(c *gin.Context) {
	var req auth.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.Normalize()
	if err := auth.ValidateSignIn(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.Store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		h.respondError(c, apperr.ErrInvalidCredentials)
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok, err := auth.ComparePassword(req.Password, user.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		h.respondError(c, apperr.ErrInvalidCredentials)
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, token, int(h.opts.TokenTTL.Seconds()), "/", "", h.opts.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "token": token})
}

// SignOut revokes the presented token (if any) and clears the cookie.
// It succeeds even for an already invalid credential.
func (h *Handler) SignOut(c *gin.Context) {
	if cred := auth.CredentialFromRequest(c.Request); cred != "" {
		if err := h.Tokens.Revoke(c.Request.Context(), cred); err != nil {
			h.respondError(c, err)
			return
		}
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.opts.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "signed out"})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.Store.GetUserByID(c.Request.Context(), currentUser(c))
	if err != nil {
		// a valid token for a deleted account
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.ErrUnauthenticated
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
