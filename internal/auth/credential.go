package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the identity token for browser clients.
const CookieName = "token"

// CredentialFromRequest extracts the identity token presented at handshake:
// Authorization bearer header first, then the token query parameter (browsers
// cannot set headers on WebSocket upgrades), then the token cookie.
func CredentialFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
