package middleware

import (
	"net/http"
	"strings"
)

const (
	// TokenCookieName is the cookie carrying the session token for browser clients
	TokenCookieName = "token"

	bearerPrefix = "Bearer "
)

// ExtractToken locates the session token of a request.
// An Authorization header starting with the exact prefix "Bearer " wins over the token cookie.
func ExtractToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix), true
	}

	cookie, err := r.Cookie(TokenCookieName)
	if err == nil {
		return cookie.Value, true
	}

	return "", false
}
